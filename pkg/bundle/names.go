package bundle

import (
	"path/filepath"
	"strings"
)

// ExpandFilename replaces the [name] and [hash] tokens of a filename
// template. The hash is shortened to eight characters.
func ExpandFilename(template, name, hash string) string {
	if len(hash) > 8 {
		hash = hash[:8]
	}
	r := strings.NewReplacer("[name]", name, "[hash]", hash)
	return r.Replace(template)
}

// TwinName derives the unminified file name from the primary one: a ".min"
// segment is removed, otherwise ".nomin" is inserted before the extension.
//
//	bundle.min.js -> bundle.js
//	app.js        -> app.nomin.js
func TwinName(primary string) string {
	ext := filepath.Ext(primary)
	stem := strings.TrimSuffix(primary, ext)

	parts := strings.Split(stem, ".")
	for i := len(parts) - 1; i > 0; i-- {
		if parts[i] == "min" {
			parts = append(parts[:i], parts[i+1:]...)
			return strings.Join(parts, ".") + ext
		}
	}
	return stem + ".nomin" + ext
}

// MapName is the name of the source map of file
func MapName(file string) string {
	return file + ".map"
}

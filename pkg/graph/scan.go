package graph

import (
	"regexp"

	"github.com/evanw/esbuild/pkg/api"
)

var requireCall = regexp.MustCompile(`(?:^|[^.\w$])require\(\s*["']([^"']+)["']\s*\)`)

// Requires returns the specifiers of the static require calls in code, in
// order of appearance and without duplicates
func Requires(code []byte) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range requireCall.FindAllSubmatch(code, -1) {
		spec := string(m[1])
		if !seen[spec] {
			seen[spec] = true
			out = append(out, spec)
		}
	}
	return out
}

// ScriptRequires is Requires over a script that no stage compiled. Comments
// are dropped by reprinting the script first; a script esbuild cannot parse
// is scanned as written.
func ScriptRequires(code []byte) ([]string, bool) {
	result := api.Transform(string(code), api.TransformOptions{
		Loader:        api.LoaderJS,
		LegalComments: api.LegalCommentsNone,
		LogLevel:      api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return Requires(code), false
	}
	return Requires(result.Code), true
}

func appendUnique(list []string, seen map[string]bool, items ...string) []string {
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			list = append(list, s)
		}
	}
	return list
}

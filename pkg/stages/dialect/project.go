package dialect

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ProjectItems returns the compile items of a project file in declaration
// order, as specifiers relative to the project file
func ProjectItems(source []byte) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(source); err != nil {
		return nil, fmt.Errorf("invalid project file: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("invalid project file: no root element")
	}

	var items []string
	for _, el := range doc.FindElements("//ItemGroup/Compile") {
		include := strings.TrimSpace(el.SelectAttrValue("Include", ""))
		if include == "" {
			continue
		}
		items = append(items, specifier(include))
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("project file has no compile items")
	}
	return items, nil
}

func specifier(include string) string {
	p := path.Clean(strings.ReplaceAll(include, `\`, "/"))
	if strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/") {
		return p
	}
	return "./" + p
}

// projectModule is the code of a project module: it loads every compile item
// in order and exports the last one, like the project's own entry point
func projectModule(polyfill string, items []string) []byte {
	var sb strings.Builder
	if polyfill != "" {
		fmt.Fprintf(&sb, "require(%s);\n", strconv.Quote(polyfill))
	}
	for i, item := range items {
		if i == len(items)-1 {
			fmt.Fprintf(&sb, "module.exports = require(%s);\n", strconv.Quote(item))
			break
		}
		fmt.Fprintf(&sb, "require(%s);\n", strconv.Quote(item))
	}
	return []byte(sb.String())
}

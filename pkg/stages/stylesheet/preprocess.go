package stylesheet

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	variableDecl = regexp.MustCompile(`^\$([\w-]+)\s*:\s*(.+?)\s*(!default)?$`)
	variableRef  = regexp.MustCompile(`\$[\w-]+`)
	declaration  = regexp.MustCompile(`^([\w-]+)\s*:\s*(.*)$`)
)

type node struct {
	text     string
	line     int
	indent   int
	children []*node
}

// Compile converts the indented stylesheet syntax to flat CSS. Nesting is
// expressed by indentation, & refers to the parent selector, $name: value
// defines a variable and // starts a line comment.
func Compile(source string, tabWidth int) (string, error) {
	root, err := parseIndented(source, tabWidth)
	if err != nil {
		return "", err
	}

	c := &compiler{vars: map[string]string{}}
	for _, n := range root.children {
		if err := c.top(n); err != nil {
			return "", err
		}
	}
	return c.out.String(), nil
}

func parseIndented(source string, tabWidth int) (*node, error) {
	if tabWidth <= 0 {
		tabWidth = 2
	}
	root := &node{indent: -1}
	stack := []*node{root}

	for i, raw := range strings.Split(source, "\n") {
		text := stripComment(strings.TrimRight(raw, " \t\r"))
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}

		indent := 0
		for _, r := range text {
			if r == ' ' {
				indent++
			} else if r == '\t' {
				indent += tabWidth
			} else {
				break
			}
		}

		for len(stack) > 1 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		if len(parent.children) > 0 && parent != root {
			sibling := parent.children[0]
			if sibling.indent != indent {
				return nil, fmt.Errorf("line %d: inconsistent indentation", i+1)
			}
		}

		n := &node{text: trimmed, line: i + 1, indent: indent}
		parent.children = append(parent.children, n)
		stack = append(stack, n)
	}
	return root, nil
}

// stripComment drops a // comment unless it is part of a URL
func stripComment(line string) string {
	quote := rune(0)
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '/' && strings.HasPrefix(line[i:], "//"):
			if i > 0 && line[i-1] == ':' {
				continue
			}
			return line[:i]
		}
	}
	return line
}

type compiler struct {
	vars map[string]string
	out  strings.Builder
}

func (c *compiler) top(n *node) error {
	switch {
	case variableDecl.MatchString(n.text) && len(n.children) == 0:
		return c.variable(n)
	case strings.HasPrefix(n.text, "@") && len(n.children) == 0:
		text, err := c.substitute(n)
		if err != nil {
			return err
		}
		fmt.Fprintf(&c.out, "%s;\n", strings.TrimSuffix(text, ";"))
		return nil
	case strings.HasPrefix(n.text, "@"):
		return c.atRule(n, nil)
	case len(n.children) == 0:
		return fmt.Errorf("line %d: declaration outside of a rule: %s", n.line, n.text)
	default:
		return c.rule(n, nil)
	}
}

func (c *compiler) variable(n *node) error {
	m := variableDecl.FindStringSubmatch(n.text)
	name := m[1]
	if m[3] != "" {
		if _, ok := c.vars[name]; ok {
			return nil
		}
	}
	value, err := c.expand(m[2], n.line)
	if err != nil {
		return err
	}
	c.vars[name] = value
	return nil
}

// atRule emits a block at-rule such as @media, nesting the rules it contains
// under the enclosing selectors
func (c *compiler) atRule(n *node, parents []string) error {
	prelude, err := c.substitute(n)
	if err != nil {
		return err
	}
	fmt.Fprintf(&c.out, "%s {\n", prelude)

	var decls []string
	for _, child := range n.children {
		if len(child.children) == 0 && !variableDecl.MatchString(child.text) {
			d, err := c.declaration(child, "")
			if err != nil {
				return err
			}
			decls = append(decls, d)
		}
	}
	if len(decls) > 0 && len(parents) > 0 {
		c.block(parents, decls)
	} else {
		for _, d := range decls {
			fmt.Fprintf(&c.out, "  %s;\n", d)
		}
	}
	for _, child := range n.children {
		if len(child.children) == 0 {
			if variableDecl.MatchString(child.text) {
				if err := c.variable(child); err != nil {
					return err
				}
			}
			continue
		}
		if err := c.nested(child, parents); err != nil {
			return err
		}
	}
	c.out.WriteString("}\n")
	return nil
}

func (c *compiler) rule(n *node, parents []string) error {
	text, err := c.substitute(n)
	if err != nil {
		return err
	}
	selectors := combine(parents, text)

	var decls []string
	for _, child := range n.children {
		switch {
		case variableDecl.MatchString(child.text) && len(child.children) == 0:
			if err := c.variable(child); err != nil {
				return err
			}
		case len(child.children) == 0:
			d, err := c.declaration(child, "")
			if err != nil {
				return err
			}
			decls = append(decls, d)
		case strings.HasSuffix(child.text, ":"):
			nested, err := c.propertyNamespace(child, strings.TrimSuffix(child.text, ":"))
			if err != nil {
				return err
			}
			decls = append(decls, nested...)
		}
	}
	if len(decls) > 0 {
		c.block(selectors, decls)
	}

	for _, child := range n.children {
		if len(child.children) == 0 || strings.HasSuffix(child.text, ":") {
			continue
		}
		if err := c.nested(child, selectors); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) nested(n *node, parents []string) error {
	if strings.HasPrefix(n.text, "@") {
		return c.atRule(n, parents)
	}
	return c.rule(n, parents)
}

// propertyNamespace expands nested properties: "font:" with a child
// "family: serif" becomes "font-family: serif"
func (c *compiler) propertyNamespace(n *node, prefix string) ([]string, error) {
	var decls []string
	for _, child := range n.children {
		d, err := c.declaration(child, prefix+"-")
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func (c *compiler) declaration(n *node, prefix string) (string, error) {
	m := declaration.FindStringSubmatch(n.text)
	if m == nil || strings.TrimSpace(m[2]) == "" {
		return "", fmt.Errorf("line %d: expected a declaration: %s", n.line, n.text)
	}
	value, err := c.expand(strings.TrimSuffix(strings.TrimSpace(m[2]), ";"), n.line)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s: %s", prefix, m[1], value), nil
}

func (c *compiler) block(selectors []string, decls []string) {
	fmt.Fprintf(&c.out, "%s {\n", strings.Join(selectors, ", "))
	for _, d := range decls {
		fmt.Fprintf(&c.out, "  %s;\n", d)
	}
	c.out.WriteString("}\n")
}

func (c *compiler) substitute(n *node) (string, error) {
	return c.expand(n.text, n.line)
}

func (c *compiler) expand(s string, line int) (string, error) {
	var missing string
	out := variableRef.ReplaceAllStringFunc(s, func(ref string) string {
		v, ok := c.vars[ref[1:]]
		if !ok && missing == "" {
			missing = ref
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("line %d: undefined variable %s", line, missing)
	}
	return out, nil
}

// combine resolves a nested selector list against its parents
func combine(parents []string, text string) []string {
	var children []string
	for _, s := range strings.Split(text, ",") {
		if s = strings.TrimSpace(s); s != "" {
			children = append(children, s)
		}
	}
	if len(parents) == 0 {
		return children
	}

	var out []string
	for _, p := range parents {
		for _, s := range children {
			if strings.Contains(s, "&") {
				out = append(out, strings.ReplaceAll(s, "&", p))
			} else {
				out = append(out, p+" "+s)
			}
		}
	}
	return out
}

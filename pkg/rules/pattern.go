package rules

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is a compiled path predicate
type Pattern interface {
	Match(path string) bool
	String() string
}

// ParsePattern compiles a regular expression (`/re/` or `/re/i`) or a glob
func ParsePattern(s string) (Pattern, error) {
	if s == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	if body, flags, ok := splitRegexp(s); ok {
		expr := body
		if strings.Contains(flags, "i") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", s, err)
		}
		return &regexpPattern{src: s, re: re}, nil
	}

	g, err := glob.Compile(s, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", s, err)
	}
	return &globPattern{src: s, g: g, fullPath: strings.Contains(s, "/")}, nil
}

func splitRegexp(s string) (body, flags string, ok bool) {
	if len(s) < 2 || s[0] != '/' {
		return "", "", false
	}
	end := strings.LastIndexByte(s, '/')
	if end == 0 {
		return "", "", false
	}
	flags = s[end+1:]
	if strings.Trim(flags, "i") != "" {
		return "", "", false
	}
	return s[1:end], flags, true
}

type regexpPattern struct {
	src string
	re  *regexp.Regexp
}

func (p *regexpPattern) Match(name string) bool {
	return p.re.MatchString(filepath.ToSlash(name))
}

func (p *regexpPattern) String() string { return p.src }

type globPattern struct {
	src      string
	g        glob.Glob
	fullPath bool
}

func (p *globPattern) Match(name string) bool {
	name = filepath.ToSlash(name)
	if !p.fullPath {
		name = path.Base(name)
	}
	return p.g.Match(name)
}

func (p *globPattern) String() string { return p.src }

package config

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// regexPrefix marks a sensitive pattern as a regular expression instead of a glob.
const regexPrefix = "re:"

// SensitivePattern is one compiled [sensitive].patterns entry.
//
// Globs without a slash are path independent: "*.pem" matches
// "server.pem" and "certs/server.pem" alike, since "*" never crosses a
// path segment. Globs containing a slash match the full repository path.
type SensitivePattern struct {
	Raw string

	re       *regexp.Regexp
	glob     string
	basename bool
}

// CompileSensitivePattern validates and compiles a single entry.
func CompileSensitivePattern(raw string) (SensitivePattern, error) {
	p := SensitivePattern{Raw: raw}
	if expr, ok := strings.CutPrefix(raw, regexPrefix); ok {
		re, err := regexp.Compile(expr)
		if err != nil {
			return p, fmt.Errorf("invalid sensitive regex %q: %w", raw, err)
		}
		p.re = re
		return p, nil
	}
	if !doublestar.ValidatePattern(raw) {
		return p, fmt.Errorf("invalid sensitive glob %q: %w", raw, doublestar.ErrBadPattern)
	}
	p.glob = raw
	p.basename = !strings.Contains(raw, "/")
	return p, nil
}

// Match reports whether a slash-separated repository path matches.
func (p SensitivePattern) Match(file string) bool {
	if p.re != nil {
		return p.re.MatchString(file)
	}
	target := file
	if p.basename {
		target = path.Base(file)
	}
	ok, err := doublestar.Match(p.glob, target)
	return err == nil && ok
}

// String returns the pattern as configured.
func (p SensitivePattern) String() string { return p.Raw }

package scanner

import (
	"regexp"
	"strings"
)

// GlobToRegexp converts a shell-style glob to an anchored, case-sensitive
// regular expression. Only `*` (any run of characters) and `?` (any single
// character) are special; there are no character classes. Asset names on the
// release host are matched exactly, hence case-sensitive.
func GlobToRegexp(glob string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(glob)
	escaped = strings.ReplaceAll(escaped, `\*`, `.*`)
	escaped = strings.ReplaceAll(escaped, `\?`, `.`)
	return regexp.Compile("^" + escaped + "$")
}

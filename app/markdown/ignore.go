package markdown

import (
	"path"
	"regexp"
	"strings"
)

// IgnoreFile is the optional ignore-list file at the source root.
const IgnoreFile = ".decksyncignore"

type patternKind int

const (
	patternExact patternKind = iota
	patternPrefix
	patternGlob
)

type ignorePattern struct {
	kind   patternKind
	value  string
	regexp *regexp.Regexp
}

// IgnoreList filters candidate paths against patterns loaded from the
// source's ignore file. Any matching pattern excludes the path.
type IgnoreList struct {
	patterns []ignorePattern
}

// ParseIgnoreFile parses ignore-file text: one pattern per line, blank lines
// and #-comments skipped. A trailing slash makes a directory-prefix pattern,
// a * makes a glob, anything else is an exact path match. A missing ignore
// file is represented by parsing empty text.
func ParseIgnoreFile(text string) *IgnoreList {
	list := &IgnoreList{}

	for _, line := range strings.Split(text, "\n") {
		pattern := strings.TrimSpace(line)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}

		switch {
		case strings.HasSuffix(pattern, "/"):
			list.patterns = append(list.patterns, ignorePattern{kind: patternPrefix, value: pattern})
		case strings.Contains(pattern, "*"):
			re, err := compileGlob(pattern)
			if err != nil {
				continue
			}
			list.patterns = append(list.patterns, ignorePattern{kind: patternGlob, value: pattern, regexp: re})
		default:
			list.patterns = append(list.patterns, ignorePattern{kind: patternExact, value: pattern})
		}
	}

	return list
}

// Match reports whether the candidate path is excluded.
func (l *IgnoreList) Match(candidate string) bool {
	for _, p := range l.patterns {
		switch p.kind {
		case patternExact:
			if candidate == p.value {
				return true
			}
		case patternPrefix:
			if strings.HasPrefix(candidate, p.value) {
				return true
			}
		case patternGlob:
			if p.regexp.MatchString(candidate) || p.regexp.MatchString(path.Base(candidate)) {
				return true
			}
		}
	}
	return false
}

// Len returns the number of loaded patterns.
func (l *IgnoreList) Len() int {
	return len(l.patterns)
}

// compileGlob translates a *-glob into an anchored regular expression,
// matched against both the full path and the final path segment.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	return regexp.Compile("^" + escaped + "$")
}

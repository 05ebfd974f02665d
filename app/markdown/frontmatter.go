package markdown

import (
	"strconv"
	"strings"
)

const delimiter = "---"

// ParseFrontmatter splits a document into its leading front-matter block and
// body. The grammar is deliberately lenient and line-oriented rather than
// full YAML: key: value pairs in any order, `- item` continuations for keys
// with no inline value, digit-only values coerced to int, surrounding quotes
// stripped. A document without a delimited block parses as an empty header
// and an unchanged body; absence of front matter is never an error.
func ParseFrontmatter(content string) (map[string]interface{}, string) {
	header := make(map[string]interface{})

	rest, ok := strings.CutPrefix(content, delimiter)
	if !ok {
		return header, content
	}
	// The opening line may carry trailing whitespace, but nothing else:
	// "--- " opens a block, "---extra" is plain body text.
	newline := strings.IndexByte(rest, '\n')
	if newline < 0 || strings.TrimRight(rest[:newline], " \t\r") != "" {
		return header, content
	}
	rest = rest[newline+1:]

	var headerLines []string
	body := ""
	closed := false

	lines := strings.Split(rest, "\n")
	for i, line := range lines {
		if strings.TrimRight(line, " \t\r") == delimiter {
			body = strings.Join(lines[i+1:], "\n")
			closed = true
			break
		}
		headerLines = append(headerLines, line)
	}
	if !closed {
		return header, content
	}

	var listKey string
	var listValues []string

	flushList := func() {
		if listKey != "" {
			header[listKey] = listValues
			listKey = ""
			listValues = nil
		}
	}

	for _, line := range headerLines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if listKey != "" && strings.HasPrefix(trimmed, "- ") {
			listValues = append(listValues, stripQuotes(strings.TrimSpace(trimmed[2:])))
			continue
		}

		flushList()

		key, value, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if value == "" {
			// Key with no inline value starts an indented list.
			listKey = key
			listValues = []string{}
			continue
		}

		if isDigits(value) {
			n, _ := strconv.Atoi(value)
			header[key] = n
		} else {
			header[key] = stripQuotes(value)
		}
	}
	flushList()

	return header, body
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

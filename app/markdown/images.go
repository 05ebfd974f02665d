package markdown

import (
	"path"
	"regexp"
	"strings"
)

// SupportedImageExtensions lists the embedded-asset extensions the pipeline
// materializes; anything else referenced from an item body is left alone.
var SupportedImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

var imageRefPattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)

// ExtractImagePaths scans an item body for markdown image references and
// resolves local ones against the item's own location. Absolute URLs are
// skipped, `./`, bare-relative, and `../` chains resolve against the item's
// directory, and only supported image extensions are kept. The result is
// deduplicated, in order of first appearance, as repository-relative paths.
func ExtractImagePaths(body, itemPath string) []string {
	dir := path.Dir(itemPath)
	if dir == "." {
		dir = ""
	}

	var resolved []string
	seen := make(map[string]bool)

	for _, match := range imageRefPattern.FindAllStringSubmatch(body, -1) {
		ref := cleanImageRef(match[1])
		if ref == "" || isAbsoluteURL(ref) {
			continue
		}

		target := resolveRelative(ref, dir)
		if target == "" || !IsImagePath(target) {
			continue
		}

		if !seen[target] {
			seen[target] = true
			resolved = append(resolved, target)
		}
	}

	return resolved
}

// IsImagePath reports whether the path carries a supported image extension.
func IsImagePath(p string) bool {
	lower := strings.ToLower(p)
	for _, ext := range SupportedImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// cleanImageRef strips an optional title annotation (`path "title"`) and
// surrounding angle brackets from a markdown image destination.
func cleanImageRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if idx := strings.IndexAny(ref, " \t"); idx != -1 {
		ref = ref[:idx]
	}
	ref = strings.TrimPrefix(ref, "<")
	ref = strings.TrimSuffix(ref, ">")
	return ref
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "//")
}

// resolveRelative resolves an image reference against the referencing item's
// directory. Leading-slash references are repository-root relative; chains of
// ../ consume one directory level each. References escaping the repository
// root resolve to "".
func resolveRelative(ref, dir string) string {
	if strings.HasPrefix(ref, "/") {
		return strings.TrimPrefix(path.Clean(ref), "/")
	}

	target := path.Clean(path.Join(dir, ref))
	if target == ".." || strings.HasPrefix(target, "../") {
		return ""
	}
	return target
}

package markdown

import (
	"reflect"
	"testing"
)

func TestExtractImagePaths(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		itemPath string
		expected []string
	}{
		{
			name:     "sibling reference",
			body:     "![diagram](./img/a.png)",
			itemPath: "cards/go.md",
			expected: []string{"cards/img/a.png"},
		},
		{
			name:     "bare relative reference",
			body:     "![diagram](img/a.png)",
			itemPath: "cards/go.md",
			expected: []string{"cards/img/a.png"},
		},
		{
			name:     "parent traversal",
			body:     "![d](../../assets/diagram.png)",
			itemPath: "cards/topic/ex1.md",
			expected: []string{"assets/diagram.png"},
		},
		{
			name:     "root item",
			body:     "![d](img/a.png)",
			itemPath: "ex1.md",
			expected: []string{"img/a.png"},
		},
		{
			name:     "leading slash is repo-root relative",
			body:     "![d](/assets/a.png)",
			itemPath: "cards/deep/ex1.md",
			expected: []string{"assets/a.png"},
		},
		{
			name:     "absolute URLs skipped",
			body:     "![a](https://example.com/x.png) ![b](http://example.com/y.png) ![c](//cdn/z.png)",
			itemPath: "cards/go.md",
			expected: nil,
		},
		{
			name:     "unsupported extension skipped",
			body:     "![doc](./spec.pdf) ![img](./ok.webp)",
			itemPath: "cards/go.md",
			expected: []string{"cards/ok.webp"},
		},
		{
			name:     "title annotation stripped",
			body:     `![d](img/a.png "the diagram")`,
			itemPath: "cards/go.md",
			expected: []string{"cards/img/a.png"},
		},
		{
			name:     "escapes repository root",
			body:     "![d](../../../outside.png)",
			itemPath: "cards/topic/ex1.md",
			expected: nil,
		},
		{
			name:     "deduplicated in order",
			body:     "![a](one.png) ![b](two.png) ![c](one.png)",
			itemPath: "ex.md",
			expected: []string{"one.png", "two.png"},
		},
		{
			name:     "no references",
			body:     "plain text with a [link](somewhere.md)",
			itemPath: "ex.md",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractImagePaths(tt.body, tt.itemPath)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExtractImagePaths(%q, %q) = %v, expected %v", tt.body, tt.itemPath, got, tt.expected)
			}
		})
	}
}

func TestIsImagePath(t *testing.T) {
	for _, p := range []string{"a.png", "b.JPG", "c.jpeg", "d.gif", "e.svg", "f.webp"} {
		if !IsImagePath(p) {
			t.Errorf("Expected %s to be recognized as an image", p)
		}
	}
	for _, p := range []string{"a.pdf", "b.md", "c.pngx", "noext"} {
		if IsImagePath(p) {
			t.Errorf("Expected %s not to be recognized as an image", p)
		}
	}
}

func TestHashContent(t *testing.T) {
	h1 := HashContent([]byte("hello"))
	h2 := HashContent([]byte("hello"))
	h3 := HashContent([]byte("hello!"))

	if h1 != h2 {
		t.Error("Expected identical content to hash identically")
	}
	if h1 == h3 {
		t.Error("Expected different content to hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(h1))
	}
	if h1 != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Errorf("Unexpected SHA-256 digest: %s", h1)
	}
}

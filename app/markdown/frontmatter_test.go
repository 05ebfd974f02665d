package markdown

import (
	"reflect"
	"testing"
)

func TestParseFrontmatterBasic(t *testing.T) {
	content := `---
title: "Pointers in Go"
difficulty: 4
language: en
tags:
  - go
  - memory
---
Body starts here.

More body.`

	header, body := ParseFrontmatter(content)

	if header["title"] != "Pointers in Go" {
		t.Errorf("Expected title 'Pointers in Go', got '%v'", header["title"])
	}
	if header["difficulty"] != 4 {
		t.Errorf("Expected difficulty 4 as int, got %v (%T)", header["difficulty"], header["difficulty"])
	}
	if header["language"] != "en" {
		t.Errorf("Expected language 'en', got '%v'", header["language"])
	}

	tags, ok := header["tags"].([]string)
	if !ok {
		t.Fatalf("Expected tags to be []string, got %T", header["tags"])
	}
	if !reflect.DeepEqual(tags, []string{"go", "memory"}) {
		t.Errorf("Expected tags [go memory], got %v", tags)
	}

	if body != "Body starts here.\n\nMore body." {
		t.Errorf("Unexpected body: %q", body)
	}
}

func TestParseFrontmatterAbsent(t *testing.T) {
	content := "Just a plain document.\nNo header at all."

	header, body := ParseFrontmatter(content)

	if len(header) != 0 {
		t.Errorf("Expected empty header, got %v", header)
	}
	if body != content {
		t.Errorf("Expected body unchanged, got %q", body)
	}
}

func TestParseFrontmatterUnclosed(t *testing.T) {
	content := "---\ntitle: broken\nno closing delimiter"

	header, body := ParseFrontmatter(content)

	if len(header) != 0 {
		t.Errorf("Expected empty header for unclosed block, got %v", header)
	}
	if body != content {
		t.Errorf("Expected body unchanged for unclosed block, got %q", body)
	}
}

func TestParseFrontmatterOpeningDelimiterTrailingWhitespace(t *testing.T) {
	content := "--- \t\ntitle: Trailing spaces\n---\nbody"

	header, body := ParseFrontmatter(content)

	if header["title"] != "Trailing spaces" {
		t.Errorf("Expected title 'Trailing spaces', got '%v'", header["title"])
	}
	if body != "body" {
		t.Errorf("Expected body 'body', got %q", body)
	}
}

func TestParseFrontmatterOpeningDelimiterWithSuffix(t *testing.T) {
	content := "---extra\ntitle: not a header\n---\nbody"

	header, body := ParseFrontmatter(content)

	if len(header) != 0 {
		t.Errorf("Expected empty header, got %v", header)
	}
	if body != content {
		t.Errorf("Expected body unchanged, got %q", body)
	}
}

func TestParseFrontmatterQuoting(t *testing.T) {
	content := "---\na: \"double\"\nb: 'single'\nc: plain text value\nd: 007\n---\nbody"

	header, _ := ParseFrontmatter(content)

	if header["a"] != "double" {
		t.Errorf("Expected double quotes stripped, got '%v'", header["a"])
	}
	if header["b"] != "single" {
		t.Errorf("Expected single quotes stripped, got '%v'", header["b"])
	}
	if header["c"] != "plain text value" {
		t.Errorf("Expected plain value kept, got '%v'", header["c"])
	}
	if header["d"] != 7 {
		t.Errorf("Expected digit-only value coerced to int, got %v (%T)", header["d"], header["d"])
	}
}

func TestParseFrontmatterBlankLinesAndQuotedListItems(t *testing.T) {
	content := `---

title: Spaced out

tags:
  - "first"
  - 'second'

---
body`

	header, body := ParseFrontmatter(content)

	if header["title"] != "Spaced out" {
		t.Errorf("Expected title 'Spaced out', got '%v'", header["title"])
	}
	tags, _ := header["tags"].([]string)
	if !reflect.DeepEqual(tags, []string{"first", "second"}) {
		t.Errorf("Expected quoted list items stripped, got %v", tags)
	}
	if body != "body" {
		t.Errorf("Expected body 'body', got %q", body)
	}
}

func TestParseFrontmatterListAtEndOfHeader(t *testing.T) {
	content := "---\ntags:\n  - solo\n---\nbody"

	header, _ := ParseFrontmatter(content)

	tags, ok := header["tags"].([]string)
	if !ok || len(tags) != 1 || tags[0] != "solo" {
		t.Errorf("Expected trailing list flushed, got %v", header["tags"])
	}
}

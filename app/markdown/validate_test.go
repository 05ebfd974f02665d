package markdown

import (
	"reflect"
	"strings"
	"testing"
)

func TestValidateManifest(t *testing.T) {
	manifest, err := ValidateManifest(map[string]interface{}{
		"format-version": 1,
		"description":    "Go interview deck",
	})
	if err != nil {
		t.Fatalf("Expected valid manifest, got error: %v", err)
	}
	if manifest.FormatVersion != 1 {
		t.Errorf("Expected format version 1, got %d", manifest.FormatVersion)
	}
	if manifest.Description != "Go interview deck" {
		t.Errorf("Expected description preserved, got '%s'", manifest.Description)
	}
}

func TestValidateManifestVersionMismatch(t *testing.T) {
	_, err := ValidateManifest(map[string]interface{}{
		"format-version": 2,
		"description":    "future deck",
	})
	if err == nil {
		t.Fatal("Expected version mismatch error")
	}
	if !strings.Contains(err.Error(), "2") {
		t.Errorf("Expected error to name the unsupported version, got: %v", err)
	}
}

func TestValidateManifestMissingFields(t *testing.T) {
	if _, err := ValidateManifest(map[string]interface{}{"description": "x"}); err == nil {
		t.Error("Expected error for missing format-version")
	}
	if _, err := ValidateManifest(map[string]interface{}{"format-version": "1", "description": "x"}); err == nil {
		t.Error("Expected error for non-integer format-version")
	}
	if _, err := ValidateManifest(map[string]interface{}{"format-version": 1}); err == nil {
		t.Error("Expected error for missing description")
	}
}

func TestValidateItemDefaults(t *testing.T) {
	meta, err := ValidateItem(map[string]interface{}{
		"title": "A",
		"tags":  []string{"T1", "Go"},
	}, "cards/a.md")
	if err != nil {
		t.Fatalf("Expected valid item, got error: %v", err)
	}

	if meta.Title != "A" {
		t.Errorf("Expected title 'A', got '%s'", meta.Title)
	}
	if !reflect.DeepEqual(meta.Tags, []string{"t1", "go"}) {
		t.Errorf("Expected lower-cased tags, got %v", meta.Tags)
	}
	if meta.Difficulty != DefaultDifficulty {
		t.Errorf("Expected default difficulty %d, got %d", DefaultDifficulty, meta.Difficulty)
	}
	if meta.Language != DefaultLanguage {
		t.Errorf("Expected default language '%s', got '%s'", DefaultLanguage, meta.Language)
	}
}

func TestValidateItemFailuresNamePath(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"tags": []string{"t"}}},
		{"empty title", map[string]interface{}{"title": "", "tags": []string{"t"}}},
		{"missing tags", map[string]interface{}{"title": "A"}},
		{"empty tags", map[string]interface{}{"title": "A", "tags": []string{}}},
		{"difficulty too low", map[string]interface{}{"title": "A", "tags": []string{"t"}, "difficulty": 0}},
		{"difficulty too high", map[string]interface{}{"title": "A", "tags": []string{"t"}, "difficulty": 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateItem(tt.header, "cards/bad.md")
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), "cards/bad.md") {
				t.Errorf("Expected error to name the file path, got: %v", err)
			}
		})
	}
}

func TestValidateItemLanguage(t *testing.T) {
	meta, err := ValidateItem(map[string]interface{}{
		"title":    "A",
		"tags":     []string{"t"},
		"language": "EN-us",
	}, "cards/a.md")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Language != "en-US" {
		t.Errorf("Expected canonicalized language 'en-US', got '%s'", meta.Language)
	}

	meta, err = ValidateItem(map[string]interface{}{
		"title":    "A",
		"tags":     []string{"t"},
		"language": "not!a!tag",
	}, "cards/a.md")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Language != "not!a!tag" {
		t.Errorf("Expected unparseable language kept verbatim, got '%s'", meta.Language)
	}
}

func TestValidateItemDifficultyBounds(t *testing.T) {
	for d := MinDifficulty; d <= MaxDifficulty; d++ {
		meta, err := ValidateItem(map[string]interface{}{
			"title":      "A",
			"tags":       []string{"t"},
			"difficulty": d,
		}, "cards/a.md")
		if err != nil {
			t.Errorf("Expected difficulty %d accepted, got error: %v", d, err)
			continue
		}
		if meta.Difficulty != d {
			t.Errorf("Expected difficulty %d, got %d", d, meta.Difficulty)
		}
	}
}

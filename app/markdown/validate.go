package markdown

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const (
	// FormatVersion is the single deck format version this build supports.
	FormatVersion = 1

	MinDifficulty     = 1
	MaxDifficulty     = 5
	DefaultDifficulty = 3
	DefaultLanguage   = "en"

	// ManifestFile is the root-level file carrying the deck manifest.
	ManifestFile = "README.md"
)

type Manifest struct {
	FormatVersion int
	Description   string
}

type ItemMeta struct {
	Title      string
	Tags       []string
	Difficulty int
	Language   string
}

// ValidateManifest enforces the deck manifest contract: an integer
// format-version equal to the supported value and a non-empty description.
func ValidateManifest(header map[string]interface{}) (*Manifest, error) {
	version, ok := header["format-version"].(int)
	if !ok {
		return nil, fmt.Errorf("invalid manifest: missing or non-integer format-version in %s", ManifestFile)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("unsupported format version: %d (only version %d is supported)", version, FormatVersion)
	}

	description, ok := header["description"].(string)
	if !ok || description == "" {
		return nil, fmt.Errorf("invalid manifest: missing description in %s", ManifestFile)
	}

	return &Manifest{FormatVersion: version, Description: description}, nil
}

// ValidateItem enforces the item record contract. Failures name the file
// path so the orchestrator can skip the record and report it rather than
// abort the sync.
func ValidateItem(header map[string]interface{}, filePath string) (*ItemMeta, error) {
	title, ok := header["title"].(string)
	if !ok || title == "" {
		return nil, fmt.Errorf("invalid item %s: missing title", filePath)
	}

	rawTags, ok := header["tags"].([]string)
	if !ok || len(rawTags) == 0 {
		return nil, fmt.Errorf("invalid item %s: missing or empty tags", filePath)
	}
	tags := make([]string, 0, len(rawTags))
	for _, tag := range rawTags {
		tags = append(tags, strings.ToLower(tag))
	}

	difficulty := DefaultDifficulty
	if raw, present := header["difficulty"]; present {
		difficulty, ok = raw.(int)
		if !ok {
			return nil, fmt.Errorf("invalid item %s: difficulty must be an integer", filePath)
		}
		if difficulty < MinDifficulty || difficulty > MaxDifficulty {
			return nil, fmt.Errorf("invalid item %s: difficulty must be %d-%d", filePath, MinDifficulty, MaxDifficulty)
		}
	}

	lang := DefaultLanguage
	if raw, present := header["language"]; present {
		if s, isString := raw.(string); isString && s != "" {
			lang = canonicalLanguage(s)
		}
	}

	return &ItemMeta{
		Title:      title,
		Tags:       tags,
		Difficulty: difficulty,
		Language:   lang,
	}, nil
}

// canonicalLanguage normalizes a BCP 47 tag ("EN-us" -> "en-US"); codes that
// do not parse are kept verbatim, since the field is informational.
func canonicalLanguage(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return tag.String()
}

package sync

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/decksync/decksync/app/database"
	"github.com/decksync/decksync/app/markdown"
)

var mimeByExtension = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// processAssets materializes every embedded image referenced by the stored
// items: download, hash, upload under a content-addressed key, and record the
// asset row. Failures never abort the sync; each becomes a warning.
func (s *Syncer) processAssets(ctx context.Context, source *database.Source, items []database.Item, token string) []string {
	var warnings []string
	uploaded := 0
	deduplicated := 0

	for i := range items {
		item := &items[i]
		_, body := markdown.ParseFrontmatter(item.RawContent)

		for _, assetPath := range markdown.ExtractImagePaths(body, item.FilePath) {
			existed, warning := s.processAsset(ctx, source, item.ID, assetPath, token)
			if warning != "" {
				warnings = append(warnings, warning)
				continue
			}
			if existed {
				deduplicated++
			} else {
				uploaded++
			}
		}
	}

	if uploaded > 0 || deduplicated > 0 || len(warnings) > 0 {
		slog.Debug("Asset pass completed", "source_id", source.ID,
			"uploaded", uploaded, "deduplicated", deduplicated, "failed", len(warnings))
	}
	return warnings
}

func (s *Syncer) processAsset(ctx context.Context, source *database.Source, itemID, assetPath, token string) (bool, string) {
	data, reportedType, err := s.client.GetFileBytes(ctx, source.Owner, source.Repo, assetPath, token)
	if err != nil {
		return false, fmt.Sprintf("asset %s: fetch failed: %v", assetPath, err)
	}

	ext := strings.ToLower(path.Ext(assetPath))
	digest := markdown.HashContent(data)
	key := storageKey(source.UserID, source.ID, digest, ext)

	existed, err := s.store.EnsureObject(ctx, key, data, contentTypeFor(ext, reportedType))
	if err != nil {
		return false, fmt.Sprintf("asset %s: upload failed: %v", assetPath, err)
	}

	record := database.AssetRecord{
		OriginalPath: assetPath,
		StoragePath:  key,
		ContentHash:  digest,
		MimeType:     contentTypeFor(ext, reportedType),
		SizeBytes:    int64(len(data)),
	}
	if err := s.assetRepo.UpsertAsset(itemID, record); err != nil {
		return false, fmt.Sprintf("asset %s: store failed: %v", assetPath, err)
	}

	return existed, ""
}

// storageKey builds the content-addressed object key. Byte-identical images
// within one source map to the same key regardless of their original paths.
func storageKey(userID, sourceID, digest, ext string) string {
	return fmt.Sprintf("%s/%s/%s%s", userID, sourceID, digest, ext)
}

// contentTypeFor prefers the extension-derived MIME type; the raw content
// endpoint reports text/plain for most files, so the reported type is only a
// fallback for unmapped extensions.
func contentTypeFor(ext, reported string) string {
	if mime, ok := mimeByExtension[ext]; ok {
		return mime
	}
	if reported != "" {
		return reported
	}
	return "application/octet-stream"
}

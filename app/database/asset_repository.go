package database

import (
	"fmt"

	"github.com/lib/pq"
)

var _ AssetRepository = (*assetRepository)(nil)

type assetRepository struct {
	db *DB
}

func NewAssetRepository(db *DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) UpsertAsset(itemID string, record AssetRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO assets (item_id, original_path, storage_path, content_hash, mime_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (item_id, original_path) DO UPDATE
		SET storage_path = EXCLUDED.storage_path,
		    content_hash = EXCLUDED.content_hash,
		    mime_type = EXCLUDED.mime_type,
		    size_bytes = EXCLUDED.size_bytes
	`, itemID, record.OriginalPath, record.StoragePath, record.ContentHash,
		record.MimeType, record.SizeBytes)
	if err != nil {
		return fmt.Errorf("failed to upsert asset: %w", err)
	}
	return nil
}

func (r *assetRepository) GetAssetsForItems(itemIDs []string) (map[string][]Asset, error) {
	assets := make(map[string][]Asset)
	if len(itemIDs) == 0 {
		return assets, nil
	}

	rows, err := r.db.Query(`
		SELECT id, item_id, original_path, storage_path, content_hash, mime_type, size_bytes, created_at
		FROM assets
		WHERE item_id = ANY($1)
		ORDER BY original_path
	`, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a Asset
		err := rows.Scan(&a.ID, &a.ItemID, &a.OriginalPath, &a.StoragePath,
			&a.ContentHash, &a.MimeType, &a.SizeBytes, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		assets[a.ItemID] = append(assets[a.ItemID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset rows: %w", err)
	}
	return assets, nil
}

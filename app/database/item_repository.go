package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

var _ ItemRepository = (*itemRepository)(nil)

type itemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, source_id, file_path, content_hash, raw_content, title,
	content, tags, difficulty, language, is_active, created_at, updated_at`

func (r *itemRepository) ReplaceItems(sourceID string, records []ItemRecord) ([]Item, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM items WHERE source_id = $1`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete existing items: %w", err)
	}

	items := make([]Item, 0, len(records))
	for _, record := range records {
		var item Item
		var tags pq.StringArray
		err = tx.QueryRow(`
			INSERT INTO items (
				source_id, file_path, content_hash, raw_content, title,
				content, tags, difficulty, language
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+itemColumns+`
		`, sourceID, record.FilePath, record.ContentHash, record.RawContent,
			record.Title, record.Content, pq.Array(record.Tags),
			record.Difficulty, record.Language).Scan(
			&item.ID, &item.SourceID, &item.FilePath, &item.ContentHash,
			&item.RawContent, &item.Title, &item.Content, &tags,
			&item.Difficulty, &item.Language, &item.IsActive,
			&item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert item %s: %w", record.FilePath, err)
		}
		item.Tags = tags
		items = append(items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit item replacement: %w", err)
	}
	return items, nil
}

func (r *itemRepository) GetItems(sourceID string) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items
		WHERE source_id = $1
		ORDER BY file_path
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (r *itemRepository) GetAllItemsForUser(userID string) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT i.id, i.source_id, i.file_path, i.content_hash, i.raw_content,
		       i.title, i.content, i.tags, i.difficulty, i.language, i.is_active,
		       i.created_at, i.updated_at
		FROM items i
		JOIN sources s ON s.id = i.source_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC, i.file_path
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (r *itemRepository) GetItemCount(sourceID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM items WHERE source_id = $1`, sourceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func collectItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var item Item
		var tags pq.StringArray
		err := rows.Scan(
			&item.ID, &item.SourceID, &item.FilePath, &item.ContentHash,
			&item.RawContent, &item.Title, &item.Content, &tags,
			&item.Difficulty, &item.Language, &item.IsActive,
			&item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		item.Tags = tags
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}
	return items, nil
}

package database

import (
	"database/sql"
	"fmt"
)

var _ SourceRepository = (*sourceRepository)(nil)

type sourceRepository struct {
	db *DB
}

func NewSourceRepository(db *DB) SourceRepository {
	return &sourceRepository{db: db}
}

const sourceColumns = `id, user_id, url, owner, repo, name, description, is_private,
	encrypted_token, credential_status, credential_error_message, format_version,
	last_commit_sha, last_synced_at, sync_status, sync_error_message, item_count,
	created_at, updated_at`

func (r *sourceRepository) CreateSource(source *Source) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO sources (
			user_id, url, owner, repo, name, description, is_private,
			encrypted_token, credential_status, format_version,
			last_commit_sha, sync_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, source.UserID, source.URL, source.Owner, source.Repo, source.Name,
		source.Description, source.IsPrivate, source.EncryptedToken,
		source.CredentialStatus, source.FormatVersion, source.LastCommitSHA,
		source.SyncStatus).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to create source: %w", err)
	}
	return id, nil
}

func (r *sourceRepository) GetSource(id string) (*Source, error) {
	return r.getOne(`SELECT `+sourceColumns+` FROM sources WHERE id = $1`, id)
}

func (r *sourceRepository) GetSourceForUser(id, userID string) (*Source, error) {
	return r.getOne(`SELECT `+sourceColumns+` FROM sources WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *sourceRepository) GetSourceByURL(userID, url string) (*Source, error) {
	return r.getOne(`SELECT `+sourceColumns+` FROM sources WHERE user_id = $1 AND url = $2`, userID, url)
}

func (r *sourceRepository) getOne(query string, args ...interface{}) (*Source, error) {
	source, err := scanSource(r.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return source, nil
}

func (r *sourceRepository) ListSourcesForUser(userID string) ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT `+sourceColumns+`
		FROM sources
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	return collectSources(rows)
}

// ListEligibleForSweep returns sources the scheduled sweep may touch:
// credential usable and not currently syncing. Sources with invalid
// credentials are skipped until the user supplies a new token.
func (r *sourceRepository) ListEligibleForSweep() ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT ` + sourceColumns + `
		FROM sources
		WHERE credential_status IN ('valid', 'not-required')
		  AND sync_status != 'syncing'
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweep-eligible sources: %w", err)
	}
	defer rows.Close()

	return collectSources(rows)
}

func (r *sourceRepository) UpdateSyncStatus(id, status, errorMessage string) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET sync_status = $2, sync_error_message = $3, updated_at = NOW()
		WHERE id = $1
	`, id, status, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

func (r *sourceRepository) FinalizeSyncSuccess(id, commitSHA string, itemCount int, warningSummary string) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET sync_status = 'synced', last_commit_sha = $2, last_synced_at = NOW(),
		    item_count = $3, sync_error_message = $4, updated_at = NOW()
		WHERE id = $1
	`, id, commitSHA, itemCount, warningSummary)
	if err != nil {
		return fmt.Errorf("failed to finalize sync: %w", err)
	}
	return nil
}

func (r *sourceRepository) UpdateSourceMetadata(id, name, description string) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
	`, id, name, description)
	if err != nil {
		return fmt.Errorf("failed to update source metadata: %w", err)
	}
	return nil
}

func (r *sourceRepository) UpdateCredential(id string, encryptedToken *string, status, errorMessage string) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET encrypted_token = $2, credential_status = $3, credential_error_message = $4,
		    sync_status = 'pending', updated_at = NOW()
		WHERE id = $1
	`, id, encryptedToken, status, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	return nil
}

func (r *sourceRepository) SetCredentialStatus(id, status, errorMessage string) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET credential_status = $2, credential_error_message = $3, updated_at = NOW()
		WHERE id = $1
	`, id, status, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to set credential status: %w", err)
	}
	return nil
}

func (r *sourceRepository) DeleteSource(id, userID string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM sources WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete source: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

func (r *sourceRepository) GetUserStats(userID string) (int, int, error) {
	var sourceCount, itemCount int
	err := r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(item_count), 0)
		FROM sources
		WHERE user_id = $1
	`, userID).Scan(&sourceCount, &itemCount)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get user stats: %w", err)
	}
	return sourceCount, itemCount, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row rowScanner) (*Source, error) {
	var s Source
	err := row.Scan(
		&s.ID, &s.UserID, &s.URL, &s.Owner, &s.Repo, &s.Name, &s.Description,
		&s.IsPrivate, &s.EncryptedToken, &s.CredentialStatus, &s.CredentialErrorMsg,
		&s.FormatVersion, &s.LastCommitSHA, &s.LastSyncedAt, &s.SyncStatus,
		&s.SyncErrorMessage, &s.ItemCount, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSources(rows *sql.Rows) ([]Source, error) {
	var sources []Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}
	return sources, nil
}

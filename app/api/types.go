package api

import (
	"context"
	"time"

	"github.com/decksync/decksync/app/database"
	"github.com/decksync/decksync/app/sync"
)

// SyncerInterface is the orchestrator surface the handlers need.
type SyncerInterface interface {
	Import(ctx context.Context, userID, url, token string, isPrivate bool) (*database.Source, error)
	Resync(ctx context.Context, id, userID string) (*database.Source, error)
	Sweep(ctx context.Context) (int, []string)
	CheckCredential(ctx context.Context, url, token string) error
	ValidateCredential(ctx context.Context, id, userID string) (string, error)
	UpdateCredential(ctx context.Context, id, userID, token string) error
	Delete(ctx context.Context, id, userID string) error
}

var _ SyncerInterface = (*sync.Syncer)(nil)

type Handler struct {
	sourceRepo   database.SourceRepository
	itemRepo     database.ItemRepository
	assetRepo    database.AssetRepository
	syncer       SyncerInterface
	store        sync.ObjectStore
	jwtSecret    string
	schedulerKey string
}

// ActionRequest is the single-envelope API request; the action field selects
// the operation, the rest of the fields apply per action.
type ActionRequest struct {
	Action    string `json:"action" binding:"required"`
	SourceID  string `json:"source_id"`
	URL       string `json:"url"`
	Token     string `json:"token"`
	IsPrivate bool   `json:"is_private"`
}

// SourceResponse is the client-facing source representation. The encrypted
// credential blob is deliberately absent.
type SourceResponse struct {
	ID                 string     `json:"id"`
	URL                string     `json:"url"`
	Owner              string     `json:"owner"`
	Repo               string     `json:"repo"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	IsPrivate          bool       `json:"is_private"`
	CredentialStatus   string     `json:"credential_status"`
	CredentialErrorMsg string     `json:"credential_error_message,omitempty"`
	FormatVersion      int        `json:"format_version"`
	LastCommitSHA      *string    `json:"last_commit_sha,omitempty"`
	LastSyncedAt       *time.Time `json:"last_synced_at,omitempty"`
	SyncStatus         string     `json:"sync_status"`
	SyncErrorMessage   string     `json:"sync_error_message,omitempty"`
	ItemCount          int        `json:"item_count"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func newSourceResponse(s *database.Source) SourceResponse {
	return SourceResponse{
		ID:                 s.ID,
		URL:                s.URL,
		Owner:              s.Owner,
		Repo:               s.Repo,
		Name:               s.Name,
		Description:        s.Description,
		IsPrivate:          s.IsPrivate,
		CredentialStatus:   s.CredentialStatus,
		CredentialErrorMsg: s.CredentialErrorMsg,
		FormatVersion:      s.FormatVersion,
		LastCommitSHA:      s.LastCommitSHA,
		LastSyncedAt:       s.LastSyncedAt,
		SyncStatus:         s.SyncStatus,
		SyncErrorMessage:   s.SyncErrorMessage,
		ItemCount:          s.ItemCount,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

type AssetResponse struct {
	OriginalPath string `json:"original_path"`
	URL          string `json:"url"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
}

type ItemResponse struct {
	ID          string          `json:"id"`
	SourceID    string          `json:"source_id"`
	FilePath    string          `json:"file_path"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	Tags        []string        `json:"tags"`
	Difficulty  int             `json:"difficulty"`
	Language    string          `json:"language"`
	ContentHash string          `json:"content_hash"`
	Assets      []AssetResponse `json:"assets,omitempty"`
}

func newItemResponse(item *database.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		SourceID:    item.SourceID,
		FilePath:    item.FilePath,
		Title:       item.Title,
		Content:     item.Content,
		Tags:        item.Tags,
		Difficulty:  item.Difficulty,
		Language:    item.Language,
		ContentHash: item.ContentHash,
	}
}

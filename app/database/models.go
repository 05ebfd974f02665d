package database

import (
	"time"
)

// Sync status values for a source.
const (
	SyncStatusPending = "pending"
	SyncStatusSyncing = "syncing"
	SyncStatusSynced  = "synced"
	SyncStatusError   = "error"
)

// Credential status values, orthogonal to sync status.
const (
	CredentialNotRequired = "not-required"
	CredentialValid       = "valid"
	CredentialInvalid     = "invalid"
)

// Source is a user-linked external markdown repository tracked for sync.
// EncryptedToken is non-nil only for private sources and must never be
// serialized to a client-facing response.
type Source struct {
	ID                 string
	UserID             string
	URL                string
	Owner              string
	Repo               string
	Name               string
	Description        string
	IsPrivate          bool
	EncryptedToken     *string
	CredentialStatus   string
	CredentialErrorMsg string
	FormatVersion      int
	LastCommitSHA      *string
	LastSyncedAt       *time.Time
	SyncStatus         string
	SyncErrorMessage   string
	ItemCount          int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Item is one normalized record imported from a source, uniquely identified
// by (SourceID, FilePath). Items are always replaced wholesale on re-sync.
type Item struct {
	ID          string
	SourceID    string
	FilePath    string
	ContentHash string
	RawContent  string
	Title       string
	Content     string
	Tags        []string
	Difficulty  int
	Language    string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Asset is one deduplicated embedded image referenced by an item. The
// storage path is a deterministic function of (user, source, digest,
// extension) so byte-identical images are stored once.
type Asset struct {
	ID           string
	ItemID       string
	OriginalPath string
	StoragePath  string
	ContentHash  string
	MimeType     string
	SizeBytes    int64
	CreatedAt    time.Time
}

// ItemRecord is a parsed, validated record ready for insertion.
type ItemRecord struct {
	FilePath    string
	ContentHash string
	RawContent  string
	Title       string
	Content     string
	Tags        []string
	Difficulty  int
	Language    string
}

// AssetRecord is a materialized asset ready for upsert.
type AssetRecord struct {
	OriginalPath string
	StoragePath  string
	ContentHash  string
	MimeType     string
	SizeBytes    int64
}

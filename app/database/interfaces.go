package database

type SourceRepository interface {
	CreateSource(source *Source) (string, error)
	GetSource(id string) (*Source, error)
	GetSourceForUser(id, userID string) (*Source, error)
	GetSourceByURL(userID, url string) (*Source, error)
	ListSourcesForUser(userID string) ([]Source, error)
	ListEligibleForSweep() ([]Source, error)

	UpdateSyncStatus(id, status, errorMessage string) error
	FinalizeSyncSuccess(id, commitSHA string, itemCount int, warningSummary string) error
	UpdateSourceMetadata(id, name, description string) error
	UpdateCredential(id string, encryptedToken *string, status, errorMessage string) error
	SetCredentialStatus(id, status, errorMessage string) error

	DeleteSource(id, userID string) (bool, error)
	GetUserStats(userID string) (sourceCount, itemCount int, err error)
}

type ItemRepository interface {
	// ReplaceItems deletes the source's items and inserts the given records
	// in a single transaction, returning the inserted rows with their ids.
	ReplaceItems(sourceID string, records []ItemRecord) ([]Item, error)

	GetItems(sourceID string) ([]Item, error)
	GetAllItemsForUser(userID string) ([]Item, error)
	GetItemCount(sourceID string) (int, error)
}

type AssetRepository interface {
	// UpsertAsset is keyed by (item id, original path) so re-processing an
	// item is idempotent.
	UpsertAsset(itemID string, record AssetRecord) error

	GetAssetsForItems(itemIDs []string) (map[string][]Asset, error)
}

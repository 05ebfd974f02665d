// Package sync orchestrates the import and synchronization pipeline: resolve
// the source's head revision, list its tree, fetch and validate markdown
// records, replace the stored items wholesale, and materialize embedded
// assets. Per-record and per-asset failures become warnings on the source;
// structural failures mark the sync as errored.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	gosync "sync"

	"github.com/decksync/decksync/app/database"
	"github.com/decksync/decksync/app/github"
	"github.com/decksync/decksync/app/markdown"
	"github.com/decksync/decksync/app/vault"
)

// headRef resolves to the default branch tip without knowing the branch name.
const headRef = "HEAD"

const defaultFetchWorkers = 5

type Syncer struct {
	sourceRepo   database.SourceRepository
	itemRepo     database.ItemRepository
	assetRepo    database.AssetRepository
	client       RemoteClient
	store        ObjectStore
	vault        *vault.Vault
	fetchWorkers int
}

func NewSyncer(sourceRepo database.SourceRepository, itemRepo database.ItemRepository,
	assetRepo database.AssetRepository, client RemoteClient, store ObjectStore,
	vault *vault.Vault, fetchWorkers int) *Syncer {
	if fetchWorkers < 1 {
		fetchWorkers = defaultFetchWorkers
	}

	return &Syncer{
		sourceRepo:   sourceRepo,
		itemRepo:     itemRepo,
		assetRepo:    assetRepo,
		client:       client,
		store:        store,
		vault:        vault,
		fetchWorkers: fetchWorkers,
	}
}

// Import registers a new source for the user and runs the initial sync.
// Nothing is persisted until the repository is reachable and its manifest
// validates; a failed initial sync still returns the created source, with the
// failure recorded on it. A source declared private must arrive with a token;
// that check happens before any remote call.
func (s *Syncer) Import(ctx context.Context, userID, url, token string, isPrivate bool) (*database.Source, error) {
	owner, repo, err := github.ParseSourceURL(url)
	if err != nil {
		return nil, err
	}

	if isPrivate && token == "" {
		return nil, ErrMissingCredential
	}

	existing, err := s.sourceRepo.GetSourceByURL(userID, url)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSourceExists
	}

	info, err := s.client.GetRepoInfo(ctx, owner, repo, token)
	if err != nil {
		return nil, fmt.Errorf("failed to reach repository: %w", err)
	}

	manifest, err := s.fetchManifest(ctx, owner, repo, token)
	if err != nil {
		return nil, err
	}

	source := &database.Source{
		UserID:           userID,
		URL:              url,
		Owner:            owner,
		Repo:             repo,
		Name:             info.Name,
		Description:      manifest.Description,
		FormatVersion:    manifest.FormatVersion,
		CredentialStatus: database.CredentialNotRequired,
		SyncStatus:       database.SyncStatusPending,
	}

	if token != "" {
		blob, err := s.vault.Encrypt(token)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt credential: %w", err)
		}
		// A supplied token marks the source private even when the caller
		// did not say so; the credential is needed on every later sync.
		source.IsPrivate = true
		source.EncryptedToken = &blob
		source.CredentialStatus = database.CredentialValid
	}

	id, err := s.sourceRepo.CreateSource(source)
	if err != nil {
		return nil, err
	}
	source.ID = id

	if err := s.syncSource(ctx, source, token); err != nil {
		slog.Warn("Initial sync failed", "source_id", id, "error", err)
	}

	return s.sourceRepo.GetSource(id)
}

// Resync re-runs the full pipeline for an existing source on user request.
// The returned source reflects the outcome either way; err is non-nil when
// the sync itself failed.
func (s *Syncer) Resync(ctx context.Context, id, userID string) (*database.Source, error) {
	source, err := s.sourceRepo.GetSourceForUser(id, userID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, ErrSourceNotFound
	}

	token, err := s.credentialFor(source)
	if err != nil {
		return nil, err
	}

	syncErr := s.syncSource(ctx, source, token)

	updated, err := s.sourceRepo.GetSource(id)
	if err != nil {
		return nil, err
	}
	return updated, syncErr
}

// CheckSource compares the remote head revision against the last synced one
// and re-syncs only on mismatch. Returns whether a sync ran.
func (s *Syncer) CheckSource(ctx context.Context, source *database.Source) (bool, error) {
	token, err := s.credentialFor(source)
	if err != nil {
		return false, err
	}

	sha, err := s.client.GetLatestCommitSHA(ctx, source.Owner, source.Repo, headRef, token)
	if err != nil {
		err = fmt.Errorf("failed to resolve head revision: %w", err)
		s.markSyncError(source.ID, err)
		return false, err
	}

	if source.LastCommitSHA != nil && *source.LastCommitSHA == sha {
		slog.Debug("Source unchanged, skipping sync", "source_id", source.ID, "revision", sha)
		return false, nil
	}

	if err := s.syncSource(ctx, source, token); err != nil {
		return false, err
	}
	return true, nil
}

// Sweep runs CheckSource over every eligible source, isolating per-source
// failures. Returns the number of sources that were re-synced and the
// collected error messages.
func (s *Syncer) Sweep(ctx context.Context) (int, []string) {
	sources, err := s.sourceRepo.ListEligibleForSweep()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to list sources: %v", err)}
	}

	updated := 0
	var errs []string
	for i := range sources {
		source := &sources[i]
		changed, err := s.CheckSource(ctx, source)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", source.ID, err))
			continue
		}
		if changed {
			updated++
		}
	}
	return updated, errs
}

// CheckCredential dry-runs a candidate token against a repository URL
// without touching any stored source, so a client can verify a token before
// importing. The returned error is the classified remote failure, if any.
func (s *Syncer) CheckCredential(ctx context.Context, url, token string) error {
	owner, repo, err := github.ParseSourceURL(url)
	if err != nil {
		return err
	}

	if _, err := s.client.GetRepoInfo(ctx, owner, repo, token); err != nil {
		return fmt.Errorf("credential rejected: %w", err)
	}
	return nil
}

// ValidateCredential performs a dry metadata fetch with the stored token and
// records the outcome on the source. Returns the resulting credential status.
func (s *Syncer) ValidateCredential(ctx context.Context, id, userID string) (string, error) {
	source, err := s.sourceRepo.GetSourceForUser(id, userID)
	if err != nil {
		return "", err
	}
	if source == nil {
		return "", ErrSourceNotFound
	}

	if !source.IsPrivate {
		return database.CredentialNotRequired, nil
	}
	if source.EncryptedToken == nil {
		return "", ErrMissingCredential
	}

	token, err := s.vault.Decrypt(*source.EncryptedToken)
	if err != nil {
		if markErr := s.sourceRepo.SetCredentialStatus(id, database.CredentialInvalid, err.Error()); markErr != nil {
			return "", markErr
		}
		return database.CredentialInvalid, nil
	}

	_, err = s.client.GetRepoInfo(ctx, source.Owner, source.Repo, token)
	if err != nil {
		if github.IsAuthError(err) || github.IsNotFound(err) {
			if markErr := s.sourceRepo.SetCredentialStatus(id, database.CredentialInvalid, err.Error()); markErr != nil {
				return "", markErr
			}
			return database.CredentialInvalid, nil
		}
		return "", fmt.Errorf("failed to validate credential: %w", err)
	}

	if err := s.sourceRepo.SetCredentialStatus(id, database.CredentialValid, ""); err != nil {
		return "", err
	}
	return database.CredentialValid, nil
}

// UpdateCredential stores a new token for a private source after a dry
// metadata fetch proves it works. A rejected token is never persisted.
func (s *Syncer) UpdateCredential(ctx context.Context, id, userID, token string) error {
	source, err := s.sourceRepo.GetSourceForUser(id, userID)
	if err != nil {
		return err
	}
	if source == nil {
		return ErrSourceNotFound
	}

	if _, err := s.client.GetRepoInfo(ctx, source.Owner, source.Repo, token); err != nil {
		return fmt.Errorf("credential rejected: %w", err)
	}

	blob, err := s.vault.Encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}
	return s.sourceRepo.UpdateCredential(id, &blob, database.CredentialValid, "")
}

// Delete removes a source and, via cascade, its items and asset rows. Stored
// objects are content-addressed and left for offline garbage collection.
func (s *Syncer) Delete(ctx context.Context, id, userID string) error {
	deleted, err := s.sourceRepo.DeleteSource(id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSourceNotFound
	}
	return nil
}

// credentialFor resolves the plaintext token for a source. Decrypt failure
// marks the credential invalid, same as a remote auth rejection would.
func (s *Syncer) credentialFor(source *database.Source) (string, error) {
	if !source.IsPrivate {
		return "", nil
	}
	if source.EncryptedToken == nil {
		return "", ErrMissingCredential
	}

	token, err := s.vault.Decrypt(*source.EncryptedToken)
	if err != nil {
		if markErr := s.sourceRepo.SetCredentialStatus(source.ID, database.CredentialInvalid, err.Error()); markErr != nil {
			slog.Error("Failed to mark credential invalid", "source_id", source.ID, "error", markErr)
		}
		return "", err
	}
	return token, nil
}

func (s *Syncer) fetchManifest(ctx context.Context, owner, repo, token string) (*markdown.Manifest, error) {
	text, err := s.client.GetFileContent(ctx, owner, repo, markdown.ManifestFile, token)
	if err != nil {
		if github.IsNotFound(err) {
			return nil, fmt.Errorf("repository has no %s manifest", markdown.ManifestFile)
		}
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}

	header, _ := markdown.ParseFrontmatter(text)
	manifest, err := markdown.ValidateManifest(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}
	return manifest, nil
}

func (s *Syncer) syncSource(ctx context.Context, source *database.Source, token string) error {
	if err := s.sourceRepo.UpdateSyncStatus(source.ID, database.SyncStatusSyncing, ""); err != nil {
		return err
	}

	itemCount, sha, warnings, err := s.runPipeline(ctx, source, token)
	if err != nil {
		s.markSyncError(source.ID, err)
		return err
	}

	if err := s.sourceRepo.FinalizeSyncSuccess(source.ID, sha, itemCount, summarizeWarnings(warnings)); err != nil {
		return err
	}

	slog.Info("Sync completed", "source_id", source.ID, "revision", sha, "items", itemCount, "warnings", len(warnings))
	return nil
}

func (s *Syncer) markSyncError(id string, err error) {
	if updateErr := s.sourceRepo.UpdateSyncStatus(id, database.SyncStatusError, err.Error()); updateErr != nil {
		slog.Error("Failed to record sync error", "source_id", id, "error", updateErr)
	}

	if github.IsAuthError(err) || errors.Is(err, vault.ErrDecryptFailed) {
		if credErr := s.sourceRepo.SetCredentialStatus(id, database.CredentialInvalid, err.Error()); credErr != nil {
			slog.Error("Failed to mark credential invalid", "source_id", id, "error", credErr)
		}
	}
}

func (s *Syncer) runPipeline(ctx context.Context, source *database.Source, token string) (int, string, []string, error) {
	sha, err := s.client.GetLatestCommitSHA(ctx, source.Owner, source.Repo, headRef, token)
	if err != nil {
		return 0, "", nil, fmt.Errorf("failed to resolve head revision: %w", err)
	}

	manifest, err := s.fetchManifest(ctx, source.Owner, source.Repo, token)
	if err != nil {
		return 0, "", nil, err
	}
	if err := s.sourceRepo.UpdateSourceMetadata(source.ID, source.Name, manifest.Description); err != nil {
		return 0, "", nil, err
	}

	entries, err := s.client.GetTree(ctx, source.Owner, source.Repo, sha, token)
	if err != nil {
		return 0, "", nil, fmt.Errorf("failed to list repository tree: %w", err)
	}

	ignore, err := s.loadIgnoreList(ctx, source, entries, token)
	if err != nil {
		return 0, "", nil, err
	}

	paths := candidatePaths(entries, ignore)

	records, warnings, err := s.fetchRecords(ctx, source, paths, token)
	if err != nil {
		return 0, "", nil, err
	}

	items, err := s.itemRepo.ReplaceItems(source.ID, records)
	if err != nil {
		return 0, "", nil, fmt.Errorf("failed to store items: %w", err)
	}

	warnings = append(warnings, s.processAssets(ctx, source, items, token)...)

	return len(items), sha, warnings, nil
}

func (s *Syncer) loadIgnoreList(ctx context.Context, source *database.Source, entries []github.TreeEntry, token string) (*markdown.IgnoreList, error) {
	present := false
	for _, entry := range entries {
		if entry.Type == "blob" && entry.Path == markdown.IgnoreFile {
			present = true
			break
		}
	}
	if !present {
		return markdown.ParseIgnoreFile(""), nil
	}

	text, err := s.client.GetFileContent(ctx, source.Owner, source.Repo, markdown.IgnoreFile, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", markdown.IgnoreFile, err)
	}
	return markdown.ParseIgnoreFile(text), nil
}

// candidatePaths filters the tree down to item files: markdown blobs that are
// neither the manifest nor ignore-matched. Tree order is preserved.
func candidatePaths(entries []github.TreeEntry, ignore *markdown.IgnoreList) []string {
	var paths []string
	for _, entry := range entries {
		if entry.Type != "blob" {
			continue
		}
		if !strings.HasSuffix(entry.Path, ".md") || entry.Path == markdown.ManifestFile {
			continue
		}
		if ignore.Match(entry.Path) {
			continue
		}
		paths = append(paths, entry.Path)
	}
	return paths
}

type fileResult struct {
	record      *database.ItemRecord
	warning     string
	fetchFailed error
}

// fetchRecords fetches, parses, and validates the candidate files with a
// bounded worker fan-out. Invalid or unfetchable records become warnings.
// When every single fetch fails the sync errors out instead, so a dead remote
// cannot wipe a previously synced source.
func (s *Syncer) fetchRecords(ctx context.Context, source *database.Source, paths []string, token string) ([]database.ItemRecord, []string, error) {
	results := make([]fileResult, len(paths))

	jobs := make(chan int)
	var wg gosync.WaitGroup
	for w := 0; w < s.fetchWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.fetchRecord(ctx, source, paths[i], token)
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	records := make([]database.ItemRecord, 0, len(paths))
	var warnings []string
	fetchFailures := 0
	var firstFetchErr error

	for _, result := range results {
		if result.record != nil {
			records = append(records, *result.record)
		}
		if result.warning != "" {
			warnings = append(warnings, result.warning)
		}
		if result.fetchFailed != nil {
			fetchFailures++
			if firstFetchErr == nil {
				firstFetchErr = result.fetchFailed
			}
		}
	}

	if len(paths) > 0 && fetchFailures == len(paths) {
		return nil, nil, fmt.Errorf("failed to fetch any items: %w", firstFetchErr)
	}

	return records, warnings, nil
}

func (s *Syncer) fetchRecord(ctx context.Context, source *database.Source, filePath, token string) fileResult {
	content, err := s.client.GetFileContent(ctx, source.Owner, source.Repo, filePath, token)
	if err != nil {
		return fileResult{
			warning:     fmt.Sprintf("%s: fetch failed: %v", filePath, err),
			fetchFailed: err,
		}
	}

	header, body := markdown.ParseFrontmatter(content)
	meta, err := markdown.ValidateItem(header, filePath)
	if err != nil {
		return fileResult{warning: err.Error()}
	}

	return fileResult{record: &database.ItemRecord{
		FilePath:    filePath,
		ContentHash: markdown.HashContent([]byte(content)),
		RawContent:  content,
		Title:       meta.Title,
		Content:     strings.TrimSpace(body),
		Tags:        meta.Tags,
		Difficulty:  meta.Difficulty,
		Language:    meta.Language,
	}}
}

package sync

import (
	"context"
	"time"

	"github.com/decksync/decksync/app/github"
)

// RemoteClient is the remote repository surface the orchestrator needs.
// Satisfied by github.Client; faked in tests.
type RemoteClient interface {
	GetRepoInfo(ctx context.Context, owner, repo, token string) (*github.RepoInfo, error)
	GetLatestCommitSHA(ctx context.Context, owner, repo, branch, token string) (string, error)
	GetTree(ctx context.Context, owner, repo, sha, token string) ([]github.TreeEntry, error)
	GetFileContent(ctx context.Context, owner, repo, path, token string) (string, error)
	GetFileBytes(ctx context.Context, owner, repo, path, token string) ([]byte, string, error)
}

// ObjectStore is the asset storage surface the orchestrator needs.
// Satisfied by storage.Store; faked in tests.
type ObjectStore interface {
	EnsureObject(ctx context.Context, key string, data []byte, contentType string) (bool, error)
	SignedGetURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

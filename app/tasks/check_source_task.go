package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/decksync/decksync/app/database"
	syncer "github.com/decksync/decksync/app/sync"
)

// CheckSourceTask runs the revision check for one source, re-syncing only
// when the remote head moved. A missing credential is not retried; it cannot
// resolve until the user stores a token.
type CheckSourceTask struct {
	Task
	Source *database.Source
	syncer *syncer.Syncer
}

func NewCheckSourceTask(source *database.Source, s *syncer.Syncer) *CheckSourceTask {
	return &CheckSourceTask{
		Task:   NewTask(TaskTypeCheckSource, source.ID),
		Source: source,
		syncer: s,
	}
}

func (t *CheckSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	changed, err := t.syncer.CheckSource(ctx, t.Source)
	if err != nil {
		if errors.Is(err, syncer.ErrMissingCredential) {
			slog.Warn("Source skipped, no usable credential", "source_id", t.SourceID)
			return nil
		}
		return fmt.Errorf("failed to check source: %w", err)
	}

	slog.Info("Task completed",
		"type", "CheckSource",
		"source_id", t.SourceID,
		"duration", t.GetDuration(),
		"synced", changed)

	return nil
}

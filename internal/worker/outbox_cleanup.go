package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/vetbook-api/internal/repository"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
)

// OutboxCleanupWorker deletes processed outbox rows once they are older
// than the retention window.
type OutboxCleanupWorker struct {
	repo            repository.OutboxRepository
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	now             func() time.Time
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retention, cleanupInterval time.Duration, logger *logger.Logger) *OutboxCleanupWorker {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Hour
	}
	return &OutboxCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          logger,
		now:             time.Now,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Error cleaning up outbox events")
			}
		}
	}
}

func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup outbox events: %w", err)
	}

	if rows > 0 {
		w.logger.Info("Cleaned up outbox events", "count", rows, "cutoff", cutoff.Format(time.RFC3339))
	}
	return rows, nil
}

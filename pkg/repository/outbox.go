package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
)

// OutboxReader is the slice of the outbox store the processor needs.
type OutboxReader interface {
	GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
	ScheduleRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
}

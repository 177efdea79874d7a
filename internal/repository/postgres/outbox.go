package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
)

// NULL payloads come back as JSON null so they scan into json.RawMessage.
const outboxColumns = `
	id, table_name, event_type,
	COALESCE(payload, 'null'::jsonb) AS payload, COALESCE(old_payload, 'null'::jsonb) AS old_payload,
	status, error_message, retry_count, retry_at, created_at, updated_at, processed_at
`

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil && event.OldPayload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (
			id, table_name, event_type, payload, old_payload, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	event.ID = uuid.New()
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt
	event.Status = model.OutboxStatusPending

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.TableName,
		event.EventType,
		nullJSON(event.Payload),
		nullJSON(event.OldPayload),
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	return wrap(err, "create outbox event")
}

// outboxClaimTimeout is how long a PROCESSING row may sit before another
// processor assumes its owner died and claims it again.
const outboxClaimTimeout = 5 * time.Minute

// GetPendingEventsWithLock claims up to limit deliverable events: PENDING
// rows, RETRY rows whose retry_at has passed and PROCESSING rows whose claim
// timed out. Claimed rows are flipped to PROCESSING and their retry_count is
// bumped in the same statement, so a concurrent poll never sees them as
// pending. Rows locked by another processor are skipped rather than waited on.
func (r *outboxRepository) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		UPDATE outbox_events
		SET status = $1, retry_count = retry_count + 1, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = $2
				OR (status = $3 AND (retry_at IS NULL OR retry_at <= NOW()))
				OR (status = $1 AND updated_at < $4)
			ORDER BY created_at ASC
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + outboxColumns

	events := []*model.OutboxEvent{}
	stale := time.Now().UTC().Add(-outboxClaimTimeout)
	if err := r.db.SelectContext(ctx, &events, query,
		model.OutboxStatusProcessing,
		model.OutboxStatusPending,
		model.OutboxStatusRetry,
		stale,
		limit,
	); err != nil {
		return nil, wrap(err, "get pending events")
	}
	// RETURNING does not preserve the subquery order.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	query := `
		UPDATE outbox_events
		SET status = $1,
			error_message = $2,
			retry_at = NULL,
			processed_at = CASE WHEN $1 = 'PROCESSED' THEN NOW() ELSE processed_at END,
			updated_at = NOW()
		WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, status, errMsg, id)
	if err != nil {
		return wrap(err, "update outbox status")
	}
	return expectRows(res, "update outbox status")
}

// ScheduleRetry releases a claimed event back to the poller, not before retryAt.
func (r *outboxRepository) ScheduleRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = $1, error_message = $2, retry_at = $3, updated_at = NOW()
		WHERE id = $4
	`
	res, err := r.db.ExecContext(ctx, query, model.OutboxStatusRetry, errMsg, retryAt, id)
	if err != nil {
		return wrap(err, "schedule outbox retry")
	}
	return expectRows(res, "schedule outbox retry")
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM outbox_events WHERE status = 'PROCESSED' AND processed_at < $1`, before)
	if err != nil {
		return 0, wrap(err, "delete processed events")
	}
	return res.RowsAffected()
}

func nullJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}

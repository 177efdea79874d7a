// Package event records row changes in the outbox so the processor can
// publish them on the change feed.
package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/realtime"
)

// Recorder is what domain services depend on.
type Recorder interface {
	Record(ctx context.Context, table string, typ realtime.ChangeType, record, old interface{}) error
}

type Service struct {
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(outboxRepo repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{outboxRepo: outboxRepo, logger: logger}
}

func (s *Service) Record(ctx context.Context, table string, typ realtime.ChangeType, record, old interface{}) error {
	event := &model.OutboxEvent{
		TableName: table,
		EventType: string(typ),
	}

	var err error
	if record != nil {
		if event.Payload, err = json.Marshal(record); err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}
	if old != nil {
		if event.OldPayload, err = json.Marshal(old); err != nil {
			return fmt.Errorf("failed to marshal old payload: %w", err)
		}
	}

	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error(err, "Failed to record change", "table", table, "type", string(typ))
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

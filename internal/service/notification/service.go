// Package notification stores per-user notifications and streams new ones
// to connected clients over the change feed.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/realtime"
)

const table = "notifications"

type Service struct {
	repo   repository.NotificationRepository
	feed   realtime.Feed
	logger *logger.Logger
}

func NewService(repo repository.NotificationRepository, feed realtime.Feed, logger *logger.Logger) *Service {
	return &Service{repo: repo, feed: feed, logger: logger}
}

// Notify stores n and publishes it to the user's live stream. A publish
// failure is logged; the stored row is still returned on the next List.
func (s *Service) Notify(ctx context.Context, n *model.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	change, err := realtime.NewChange(table, realtime.Insert, n, nil)
	if err != nil {
		return fmt.Errorf("failed to build change: %w", err)
	}
	if err := s.feed.Publish(ctx, change); err != nil {
		s.logger.Warn("Failed to publish notification", "user_id", n.UserID.String(), "error", err.Error())
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page model.Pagination) ([]*model.Notification, error) {
	items, err := s.repo.ListByUser(ctx, userID, unreadOnly, page)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list notifications: %w", err))
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("failed to count notifications: %w", err))
	}
	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("notification", err)
		}
		return apperrors.Internal(fmt.Errorf("failed to mark notification read: %w", err))
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("failed to mark notifications read: %w", err))
	}
	return n, nil
}

// Subscribe delivers the user's new notifications to handler until ctx is
// done or the returned func is called.
func (s *Service) Subscribe(ctx context.Context, userID uuid.UUID, handler func(*model.Notification)) (realtime.Unsubscribe, error) {
	filter := realtime.Filter{Table: table, Column: "user_id", Value: userID.String()}
	return s.feed.Subscribe(ctx, filter, func(c realtime.Change) {
		if c.Type != realtime.Insert {
			return
		}
		var n model.Notification
		if err := json.Unmarshal(c.Record, &n); err != nil {
			s.logger.Warn("Dropping malformed notification", "error", err.Error())
			return
		}
		handler(&n)
	})
}

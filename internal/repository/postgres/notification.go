package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, appointment_id, title, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	n.ID = uuid.New()
	n.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.AppointmentID, n.Title, n.Body, n.Read, n.CreatedAt)
	return wrap(err, "create notification")
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page model.Pagination) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, appointment_id, title, body, read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	notifications := []*model.Notification{}
	err := r.db.SelectContext(ctx, &notifications, query, userID, unreadOnly, page.Limit(), page.Offset())
	if err != nil {
		return nil, wrap(err, "list notifications")
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return wrap(err, "mark notification read")
	}
	return expectRows(res, "mark notification read")
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, wrap(err, "mark all notifications read")
	}
	return res.RowsAffected()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, wrap(err, "count unread notifications")
	}
	return count, nil
}

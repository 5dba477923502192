package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/infra"
	"storefront/internal/models/db_models"
	"storefront/pkg/metrics"
)

type NotificationRepositoryInterface interface {
	// Create inserts the notification and publishes a FeedEvent referencing it on
	// the realtime channel. Inside a transaction the publish is delivered on commit.
	Create(ctx context.Context, notification *db_models.Notification) error
	// FindByID returns nil, nil when missing.
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]db_models.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// FeedEvent is the pg_notify payload. It only carries ids so it stays far below
// the 8000 byte NOTIFY limit whatever the notification text is; listeners load
// the row itself.
type FeedEvent struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

const feedSavepoint = "notification_feed"

type NotificationRepository struct {
	db      *gorm.DB
	channel string
}

func NewNotificationRepository(db *gorm.DB, channel string) *NotificationRepository {
	return &NotificationRepository{db: db, channel: channel}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *db_models.Notification) error {
	conn := infra.Conn(ctx, r.db)
	if err := conn.Create(notification).Error; err != nil {
		return err
	}
	if r.channel == "" {
		return nil
	}

	payload, err := json.Marshal(FeedEvent{ID: notification.ID, UserID: notification.UserID})
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}
	r.publish(ctx, conn, string(payload))
	return nil
}

// publish never fails the caller. The row is already written and clients
// catch up on their next list call. Inside a transaction a savepoint keeps a
// failed NOTIFY from aborting it.
func (r *NotificationRepository) publish(ctx context.Context, conn *gorm.DB, payload string) {
	if !infra.InTransaction(ctx) {
		if err := conn.Exec("SELECT pg_notify(?, ?)", r.channel, payload).Error; err != nil {
			metrics.NotificationsPublished.WithLabelValues("notify_failed").Inc()
		}
		return
	}

	if err := conn.Exec("SAVEPOINT " + feedSavepoint).Error; err != nil {
		metrics.NotificationsPublished.WithLabelValues("notify_failed").Inc()
		return
	}
	if err := conn.Exec("SELECT pg_notify(?, ?)", r.channel, payload).Error; err != nil {
		metrics.NotificationsPublished.WithLabelValues("notify_failed").Inc()
		conn.Exec("ROLLBACK TO SAVEPOINT " + feedSavepoint)
	}
}

func (r *NotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Notification, error) {
	var n db_models.Notification
	err := infra.Conn(ctx, r.db).First(&n, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]db_models.Notification, error) {
	var notifications []db_models.Notification
	err := infra.Conn(ctx, r.db).
		Where("user_id = ?", userID).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := infra.Conn(ctx, r.db).
		Model(&db_models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res := infra.Conn(ctx, r.db).
		Model(&db_models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := infra.Conn(ctx, r.db).
		Model(&db_models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

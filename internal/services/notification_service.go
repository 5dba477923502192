package services

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/models/db_models"
	"storefront/internal/repositories"
	"storefront/pkg/utils"
)

type NotificationServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]db_models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type NotificationService struct {
	notificationRepo repositories.NotificationRepositoryInterface
}

func NewNotificationService(notificationRepo repositories.NotificationRepositoryInterface) NotificationServiceInterface {
	return &NotificationService{notificationRepo: notificationRepo}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]db_models.Notification, error) {
	if err := utils.ValidatePage(page, pageSize); err != nil {
		return nil, err
	}
	rows, err := s.notificationRepo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, persistenceErr("list notifications", err)
	}
	if rows == nil {
		rows = []db_models.Notification{}
	}
	return rows, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, persistenceErr("count unread", err)
	}
	return n, nil
}

// MarkRead only touches notifications owned by userID.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	ok, err := s.notificationRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return persistenceErr("mark read", err)
	}
	if !ok {
		return utils.ErrNotificationMissing
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, persistenceErr("mark all read", err)
	}
	return n, nil
}

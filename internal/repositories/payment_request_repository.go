package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/infra"
	dbm "storefront/internal/models/db_models"
	"storefront/pkg/utils"
)

type PaymentRequestFilter struct {
	Status   *dbm.PaymentRequestStatus
	UserID   *uuid.UUID
	Page     int
	PageSize int
}

type PaymentRequestRepository interface {
	Create(ctx context.Context, req *dbm.PaymentRequest) error
	// FindByID preloads the product (including soft-deleted ones). Returns nil, nil when missing.
	FindByID(ctx context.Context, id uuid.UUID) (*dbm.PaymentRequest, error)
	FindActiveForPair(ctx context.Context, userID, productID uuid.UUID) (*dbm.PaymentRequest, error)
	List(ctx context.Context, filter PaymentRequestFilter) ([]dbm.PaymentRequest, int64, error)

	// UpdateStatusIfCurrent moves the row from expected to next. notes == nil leaves
	// admin_notes untouched. Reports false when no row matched.
	UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, expected, next dbm.PaymentRequestStatus, notes *string) (bool, error)
	HardDelete(ctx context.Context, id uuid.UUID) (bool, error)
}

type paymentRequestRepository struct {
	db *gorm.DB
}

func NewPaymentRequestRepository(db *gorm.DB) PaymentRequestRepository {
	return &paymentRequestRepository{db: db}
}

func withProduct(db *gorm.DB) *gorm.DB {
	return db.Preload("Product", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() })
}

func (r *paymentRequestRepository) Create(ctx context.Context, req *dbm.PaymentRequest) error {
	return infra.Conn(ctx, r.db).Omit("Product").Create(req).Error
}

func (r *paymentRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*dbm.PaymentRequest, error) {
	var req dbm.PaymentRequest
	err := withProduct(infra.Conn(ctx, r.db)).First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *paymentRequestRepository) FindActiveForPair(ctx context.Context, userID, productID uuid.UUID) (*dbm.PaymentRequest, error) {
	var req dbm.PaymentRequest
	err := infra.Conn(ctx, r.db).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Where("status IN ?", []dbm.PaymentRequestStatus{dbm.PaymentStatusPending, dbm.PaymentStatusApproved}).
		Order("created_at DESC").
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *paymentRequestRepository) List(ctx context.Context, filter PaymentRequestFilter) ([]dbm.PaymentRequest, int64, error) {
	q := infra.Conn(ctx, r.db).Model(&dbm.PaymentRequest{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []dbm.PaymentRequest
	q = withProduct(q).Order("created_at DESC")
	if filter.PageSize > 0 {
		q = q.Limit(filter.PageSize).Offset((filter.Page - 1) * filter.PageSize)
	}
	err := q.Find(&rows).Error
	return rows, total, err
}

func (r *paymentRequestRepository) UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, expected, next dbm.PaymentRequestStatus, notes *string) (bool, error) {
	fields := map[string]interface{}{
		"status":     next,
		"updated_at": utils.NowUnixSeconds(),
	}
	if notes != nil {
		fields["admin_notes"] = *notes
	}

	res := infra.Conn(ctx, r.db).
		Model(&dbm.PaymentRequest{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *paymentRequestRepository) HardDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := infra.Conn(ctx, r.db).Unscoped().Delete(&dbm.PaymentRequest{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

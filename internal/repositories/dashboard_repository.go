package repositories

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/infra"
	dbm "storefront/internal/models/db_models"
)

// DashboardRepository only reads. Every figure is derived from current table
// state; there are no stored counters.
type DashboardRepository interface {
	CountRequestsByStatus(ctx context.Context) ([]StatusCount, error)
	ApprovedRevenue(ctx context.Context) ([]CurrencySum, error)
	CountGrants(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
	CountAccounts(ctx context.Context) (int64, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

// ---------- Row helpers ----------
type StatusCount struct {
	Status dbm.PaymentRequestStatus `gorm:"column:status"`
	Count  int64                    `gorm:"column:count"`
}

type CurrencySum struct {
	Currency string `gorm:"column:currency"`
	Sum      int64  `gorm:"column:sum"`
}

// ---------- Counts ----------
func (r *dashboardRepository) CountRequestsByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := infra.Conn(ctx, r.db).
		Model(&dbm.PaymentRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Find(&rows).Error
	return rows, err
}

func (r *dashboardRepository) CountGrants(ctx context.Context) (int64, error) {
	var n int64
	err := infra.Conn(ctx, r.db).Model(&dbm.AccessGrant{}).Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := infra.Conn(ctx, r.db).Model(&dbm.Product{}).Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	err := infra.Conn(ctx, r.db).Model(&dbm.Account{}).Count(&n).Error
	return n, err
}

// ---------- Revenue ----------
func (r *dashboardRepository) ApprovedRevenue(ctx context.Context) ([]CurrencySum, error) {
	var rows []CurrencySum
	err := infra.Conn(ctx, r.db).
		Table("payment_requests pr").
		Select("p.currency AS currency, COALESCE(SUM(p.price_minor), 0) AS sum").
		Joins("JOIN products p ON p.id = pr.product_id").
		Where("pr.status = ?", dbm.PaymentStatusApproved).
		Where("pr.deleted_at IS NULL").
		Group("p.currency").
		Order("p.currency ASC").
		Find(&rows).Error
	return rows, err
}

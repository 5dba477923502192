package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/infra"
	dbm "storefront/internal/models/db_models"
)

type GrantWithProduct struct {
	ProductID uuid.UUID `gorm:"column:product_id"`
	Title     string    `gorm:"column:title"`
	CreatedAt int64     `gorm:"column:created_at"`
}

type AccessGrantRepository interface {
	// Ensure inserts the (user, product) grant unless it already exists.
	// Reports whether a new row was written.
	Ensure(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]GrantWithProduct, error)
}

type accessGrantRepository struct {
	db *gorm.DB
}

func NewAccessGrantRepository(db *gorm.DB) AccessGrantRepository {
	return &accessGrantRepository{db: db}
}

func (r *accessGrantRepository) Ensure(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	grant := &dbm.AccessGrant{UserID: userID, ProductID: productID}
	res := infra.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(grant)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *accessGrantRepository) Delete(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := infra.Conn(ctx, r.db).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&dbm.AccessGrant{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *accessGrantRepository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var n int64
	err := infra.Conn(ctx, r.db).
		Model(&dbm.AccessGrant{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n > 0, err
}

func (r *accessGrantRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]GrantWithProduct, error) {
	var rows []GrantWithProduct
	err := infra.Conn(ctx, r.db).
		Table("user_product_access g").
		Select("g.product_id, p.title, g.created_at").
		Joins("JOIN products p ON p.id = g.product_id").
		Where("g.user_id = ?", userID).
		Order("g.created_at DESC").
		Find(&rows).Error
	return rows, err
}

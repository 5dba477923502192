package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/infra"
	"storefront/internal/models/db_models"
)

type ProductRepository interface {
	Create(ctx context.Context, product *db_models.Product) error
	Update(ctx context.Context, product *db_models.Product) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Product, error)
	List(ctx context.Context, includeInactive bool) ([]db_models.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *db_models.Product) error {
	return infra.Conn(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *db_models.Product) error {
	return infra.Conn(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := infra.Conn(ctx, r.db).Delete(&db_models.Product{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Product, error) {
	var product db_models.Product
	err := infra.Conn(ctx, r.db).First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, includeInactive bool) ([]db_models.Product, error) {
	var products []db_models.Product
	q := infra.Conn(ctx, r.db).Order("created_at DESC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&products).Error
	return products, err
}

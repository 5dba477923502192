package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/infra"
	"storefront/internal/models/db_models"
)

type AccountRepository interface {
	Create(ctx context.Context, account *db_models.Account) error
	FindById(ctx context.Context, id uuid.UUID) (*db_models.Account, error)
	FindByEmail(ctx context.Context, email string) (*db_models.Account, error)
	// FindRoleByID returns "" when the account does not exist.
	FindRoleByID(ctx context.Context, id uuid.UUID) (string, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func (a *accountRepository) Create(ctx context.Context, account *db_models.Account) error {
	return infra.Conn(ctx, a.db).Create(account).Error
}

func (a *accountRepository) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {

	var account db_models.Account
	err := infra.Conn(ctx, a.db).First(&account, "email = ?", email).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (a *accountRepository) FindById(ctx context.Context, id uuid.UUID) (*db_models.Account, error) {
	var account db_models.Account
	err := infra.Conn(ctx, a.db).First(&account, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (a *accountRepository) FindRoleByID(ctx context.Context, id uuid.UUID) (string, error) {
	var roles []string
	err := infra.Conn(ctx, a.db).
		Model(&db_models.Account{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("role", &roles).Error
	if err != nil {
		return "", err
	}
	if len(roles) == 0 {
		return "", nil
	}
	return roles[0], nil
}

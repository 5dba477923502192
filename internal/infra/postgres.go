package infra

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/models/db_models"
)

func InitPostgresql(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {

	connectionPool, err := gorm.Open(postgres.Open(cfg.PostgresURL), &gorm.Config{
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})

	if err != nil {
		logger.Error("error connecting to database", zap.Error(err))
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return connectionPool, nil
}

// Migrate creates the storefront tables and the partial unique index that keeps
// at most one pending/approved request per (user, product).
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&db_models.Account{},
		&db_models.Product{},
		&db_models.PaymentRequest{},
		&db_models.AccessGrant{},
		&db_models.Notification{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_requests_active_pair
		ON payment_requests (user_id, product_id)
		WHERE status IN ('pending', 'approved') AND deleted_at IS NULL`).Error
}

func ClosePostgresql(db *gorm.DB, logger *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("error getting database instance", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("error closing database connection", zap.Error(err))
	} else {
		logger.Info("PostgreSQL database connection closed successfully")
	}
}

// Transactor runs fn inside one database transaction. Repositories pick the
// transaction up from ctx through Conn.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Conn returns the transaction bound to ctx, or db scoped to ctx.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// InTransaction reports whether ctx carries a transaction from WithinTransaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

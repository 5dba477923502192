package db_models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessGrant permits a user to download a product. At most one row per (user, product).
type AccessGrant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_product_access_pair"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_product_access_pair"`
	CreatedAt int64     `gorm:"autoCreateTime"`
}

func (AccessGrant) TableName() string { return "user_product_access" }

func (g *AccessGrant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.CreatedAt == 0 {
		g.CreatedAt = time.Now().Unix()
	}
	return nil
}

package db_models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
)

type Notification struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	Title            string           `gorm:"not null" json:"title"`
	Message          string           `gorm:"type:text;not null" json:"message"`
	Type             NotificationType `gorm:"size:16;not null" json:"type"`
	PaymentRequestID *uuid.UUID       `gorm:"type:uuid;index" json:"payment_request_id,omitempty"`
	IsRead           bool             `gorm:"default:false" json:"is_read"`
	Metadata         datatypes.JSON   `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt        int64            `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().Unix()
	}
	return nil
}

package db_models

import "github.com/google/uuid"

type PaymentRequestStatus string

const (
	PaymentStatusPending  PaymentRequestStatus = "pending"
	PaymentStatusApproved PaymentRequestStatus = "approved"
	PaymentStatusRejected PaymentRequestStatus = "rejected"
)

type PaymentMethod string

const (
	PaymentMethodNayaPay PaymentMethod = "nayapay"
	PaymentMethodCustom  PaymentMethod = "custom"
)

type ContactMethod string

const (
	ContactWhatsApp ContactMethod = "whatsapp"
	ContactTelegram ContactMethod = "telegram"
)

// PaymentRequest is a purchaser's claim of having paid for a product.
// Rows are hard-deleted by reset, so the soft-delete column of BaseModel is never set.
type PaymentRequest struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"`

	PaymentMethod PaymentMethod `gorm:"size:16;not null"`
	ContactMethod ContactMethod `gorm:"size:16;not null"`
	ContactValue  string        `gorm:"not null"`

	TransactionID        *string
	PaymentScreenshotURL *string
	PaymentDetails       *string `gorm:"type:text"`
	AdminNotes           *string `gorm:"type:text"`

	Status PaymentRequestStatus `gorm:"size:16;index;not null;default:'pending'"`

	Product Product `gorm:"foreignKey:ProductID"`
}

func (PaymentRequest) TableName() string { return "payment_requests" }

package response_models

import "github.com/google/uuid"

type PaymentRequestResponse struct {
	ID                   uuid.UUID `json:"id"`
	UserID               uuid.UUID `json:"user_id"`
	ProductID            uuid.UUID `json:"product_id"`
	ProductTitle         string    `json:"product_title,omitempty"`
	PriceMinor           int64     `json:"price_minor"`
	Currency             string    `json:"currency,omitempty"`
	PaymentMethod        string    `json:"payment_method"`
	ContactMethod        string    `json:"contact_method"`
	ContactValue         string    `json:"contact_value"`
	TransactionID        *string   `json:"transaction_id,omitempty"`
	PaymentScreenshotURL *string   `json:"payment_screenshot_url,omitempty"`
	PaymentDetails       *string   `json:"payment_details,omitempty"`
	AdminNotes           *string   `json:"admin_notes,omitempty"`
	Status               string    `json:"status"`
	CreatedAt            string    `json:"created_at"`
}

type PaymentRequestPage struct {
	Items    []PaymentRequestResponse `json:"items"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
	Total    int64                    `json:"total"`
}

type ResetConfirmation struct {
	Token     string `json:"confirmation_token"`
	ExpiresIn int64  `json:"expires_in_seconds"`
}

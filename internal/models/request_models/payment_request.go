package request_models

type SubmitPaymentRequest struct {
	ProductID            string  `json:"product_id" binding:"required,uuid"`
	PaymentMethod        string  `json:"payment_method" binding:"required,oneof=nayapay custom"`
	ContactMethod        string  `json:"contact_method" binding:"required,oneof=whatsapp telegram"`
	ContactValue         string  `json:"contact_value" binding:"required,max=255"`
	TransactionID        *string `json:"transaction_id" binding:"omitempty,max=255"`
	PaymentScreenshotURL *string `json:"payment_screenshot_url" binding:"omitempty,url"`
	PaymentDetails       *string `json:"payment_details" binding:"omitempty,max=2000"`
}

// ReviewPaymentRequest is the body of approve, reject and reapprove.
type ReviewPaymentRequest struct {
	AdminNotes *string `json:"admin_notes" binding:"omitempty,max=2000"`
	Notify     *bool   `json:"notify"`
}

type RevokeAccessRequest struct {
	Notify *bool `json:"notify"`
}

type ResetPaymentRequest struct {
	ConfirmationToken string `json:"confirmation_token" binding:"required"`
	Notify            *bool  `json:"notify"`
}

package response_models

import "github.com/google/uuid"

type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	PriceMinor  int64     `json:"price_minor"`
	Currency    string    `json:"currency"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
}

type ProductAccessResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	GrantedAt string    `json:"granted_at"`
}

type DownloadResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	FileURL   string    `json:"file_url"`
}

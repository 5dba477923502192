package request_models

type UpsertProductRequest struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Description *string `json:"description"`
	PriceMinor  int64   `json:"price_minor" binding:"gte=0"`
	Currency    string  `json:"currency" binding:"omitempty,len=3"`
	ImageURL    string  `json:"image_url" binding:"omitempty,url"`
	FileURL     string  `json:"file_url" binding:"omitempty,url"`
	IsActive    *bool   `json:"is_active"`
}

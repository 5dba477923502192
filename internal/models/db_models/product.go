package db_models

type Product struct {
	BaseModel
	Title       string `gorm:"not null"`
	Description *string
	PriceMinor  int64  // 1000 = $10.00
	Currency    string `gorm:"size:3;default:'USD'"`
	ImageURL    string
	FileURL     string // download location, only handed out to grant holders
	IsActive    bool `gorm:"default:true"`
}

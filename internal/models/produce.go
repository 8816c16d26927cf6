package models

import "time"

// Produce statuses
const (
	ProduceStatusActive     = "active"
	ProduceStatusOutOfStock = "out_of_stock"
	ProduceStatusInactive   = "inactive"
)

// Produce represents a product listed by a farmer
type Produce struct {
	ID          int     `json:"id" gorm:"primaryKey"`
	FarmerID    int     `json:"farmer_id" gorm:"index"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"` // kg, box, piece, etc.
	Quantity    float64 `json:"quantity"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Status      string  `json:"status"` // "active", "out_of_stock", "inactive"

	CreatedAt time.Time `json:"created_at"`
}

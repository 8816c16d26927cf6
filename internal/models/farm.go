package models

import "time"

// Farm represents a farmer's farm profile
type Farm struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	FarmerID    int    `json:"farmer_id" gorm:"uniqueIndex"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Image       string `json:"image"`

	Rating       float64 `json:"rating"`
	TotalRatings int     `json:"total_ratings"`
	Featured     bool    `json:"featured"`

	CreatedAt time.Time `json:"created_at"`
}

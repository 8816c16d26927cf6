package models

import "time"

// Vehicle represents a driver's delivery vehicle
type Vehicle struct {
	ID           int     `json:"id" gorm:"primaryKey"`
	DriverID     int     `json:"driver_id" gorm:"index"`
	Type         string  `json:"type"` // bike, tricycle, van, etc.
	LicensePlate string  `json:"license_plate"`
	Capacity     float64 `json:"capacity"` // in kg
	Status       string  `json:"status"`   // "available", "busy", "offline"
	Location     string  `json:"location"`

	CreatedAt time.Time `json:"created_at"`
}

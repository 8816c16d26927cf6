package models

import "time"

// User roles. The role stored on a session is advisory only - privileged
// behaviour always re-checks the stored user record.
const (
	RoleBuyer  = "buyer"
	RoleFarmer = "farmer"
	RoleDriver = "driver"
)

// User represents a registered marketplace user (buyer, farmer or driver)
type User struct {
	ID       int    `json:"id" gorm:"primaryKey"`
	Username string `json:"username" gorm:"uniqueIndex"`
	Password string `json:"-"`
	Role     string `json:"role"` // "buyer", "farmer", "driver"
	Phone    string `json:"phone" gorm:"uniqueIndex"`
	Name     string `json:"name"`
	Email    string `json:"email"`

	// Location details
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`

	// Reputation
	Rating       float64 `json:"rating"`
	TotalRatings int     `json:"total_ratings"`

	Wallet   float64 `json:"wallet"`
	Verified bool    `json:"verified"`

	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusInTransit = "in_transit"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Order represents a buyer's order
type Order struct {
	ID      int    `json:"id" gorm:"primaryKey"`
	BuyerID int    `json:"buyer_id" gorm:"index"`
	Ref     string `json:"ref" gorm:"uniqueIndex"` // external reference, e.g. "ORD-a1b2c3d4"

	// Pricing
	Total       float64 `json:"total"`
	DeliveryFee float64 `json:"delivery_fee"`

	// Status
	Status        string `json:"status"`         // "pending", "confirmed", "in_transit", "delivered", "cancelled"
	PaymentStatus string `json:"payment_status"` // "pending", "paid", "failed"
	PaymentMethod string `json:"payment_method"`

	// Delivery
	DeliveryAddress       string     `json:"delivery_address"`
	DriverID              *int       `json:"driver_id"`
	EstimatedDeliveryTime *time.Time `json:"estimated_delivery_time"`
	ActualDeliveryTime    *time.Time `json:"actual_delivery_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem represents a single line of an order
type OrderItem struct {
	ID        int     `json:"id" gorm:"primaryKey"`
	OrderID   int     `json:"order_id" gorm:"index"`
	ProduceID int     `json:"produce_id"`
	FarmerID  int     `json:"farmer_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Status    string  `json:"status"` // "pending", "confirmed", "rejected"

	CreatedAt time.Time `json:"created_at"`
}

// OrderItemInput is a line item for order creation
type OrderItemInput struct {
	ProduceID int     `json:"produce_id"`
	FarmerID  int     `json:"farmer_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

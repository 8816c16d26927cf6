package storage

import (
	"sync"

	"github.com/agrimove/agrimove-backend/internal/models"
)

var (
	storeInstance Store
	storeMu       sync.RWMutex
)

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeMu.Lock()
	defer storeMu.Unlock()
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return storeInstance
}

// Store defines the catalog and order gateway consumed by the messaging
// engine. The engine only reads catalog data and writes a single order at
// checkout; the order read operations also serve the notification side.
type Store interface {
	// User operations
	GetUser(id int) (*models.User, error)
	GetUserByPhone(phone string) (*models.User, error)

	// Produce operations
	GetAllProduce() ([]*models.Produce, error)
	GetProduce(id int) (*models.Produce, error)
	GetProduceByFarmer(farmerID int) ([]*models.Produce, error)

	// Farm operations
	GetAllFarms() ([]*models.Farm, error)
	GetFarm(id int) (*models.Farm, error)
	GetFarmByFarmer(farmerID int) (*models.Farm, error)

	// Order operations
	CreateOrder(buyerID int, items []models.OrderItemInput, deliveryAddress string, total float64) (*models.Order, error)
	GetOrder(id int) (*models.Order, error)
	GetOrdersByBuyer(buyerID int) ([]*models.Order, error)
	GetOrdersByStatus(status string) ([]*models.Order, error)
	GetOrderItemsByOrder(orderID int) ([]*models.OrderItem, error)
	UpdateOrderStatus(id int, status string) error
}

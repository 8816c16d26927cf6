package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimove/agrimove-backend/internal/models"
)

// DatabaseStore implements Store over PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// User operations

func (d *DatabaseStore) GetUser(id int) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	err := d.db.Where("phone = ?", phone).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	return &user, nil
}

// Produce operations

func (d *DatabaseStore) GetAllProduce() ([]*models.Produce, error) {
	var items []*models.Produce
	err := d.db.Where("status = ?", models.ProduceStatusActive).Order("id").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("produce lookup failed: %w", err)
	}
	return items, nil
}

func (d *DatabaseStore) GetProduce(id int) (*models.Produce, error) {
	var p models.Produce
	if err := d.db.First(&p, id).Error; err != nil {
		return nil, fmt.Errorf("produce not found: %w", err)
	}
	return &p, nil
}

func (d *DatabaseStore) GetProduceByFarmer(farmerID int) ([]*models.Produce, error) {
	var items []*models.Produce
	err := d.db.Where("farmer_id = ?", farmerID).Order("id").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("produce lookup failed: %w", err)
	}
	return items, nil
}

// Farm operations

func (d *DatabaseStore) GetAllFarms() ([]*models.Farm, error) {
	var farms []*models.Farm
	if err := d.db.Order("id").Find(&farms).Error; err != nil {
		return nil, fmt.Errorf("farm lookup failed: %w", err)
	}
	return farms, nil
}

func (d *DatabaseStore) GetFarm(id int) (*models.Farm, error) {
	var farm models.Farm
	if err := d.db.First(&farm, id).Error; err != nil {
		return nil, fmt.Errorf("farm not found: %w", err)
	}
	return &farm, nil
}

func (d *DatabaseStore) GetFarmByFarmer(farmerID int) (*models.Farm, error) {
	var farm models.Farm
	if err := d.db.Where("farmer_id = ?", farmerID).First(&farm).Error; err != nil {
		return nil, fmt.Errorf("farm not found: %w", err)
	}
	return &farm, nil
}

// Order operations

func (d *DatabaseStore) CreateOrder(buyerID int, items []models.OrderItemInput, deliveryAddress string, total float64) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("order has no items")
	}

	now := time.Now()
	order := &models.Order{
		BuyerID:         buyerID,
		Ref:             "ORD-" + strings.SplitN(uuid.NewString(), "-", 2)[0],
		Total:           total,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		DeliveryAddress: deliveryAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Order and items commit together; a half-written order must never be
	// visible to the notification side.
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for _, in := range items {
			item := &models.OrderItem{
				OrderID:   order.ID,
				ProduceID: in.ProduceID,
				FarmerID:  in.FarmerID,
				Quantity:  in.Quantity,
				UnitPrice: in.UnitPrice,
				Status:    models.OrderStatusPending,
				CreatedAt: now,
			}
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("order creation failed: %w", err)
	}

	return order, nil
}

func (d *DatabaseStore) GetOrder(id int) (*models.Order, error) {
	var order models.Order
	if err := d.db.First(&order, id).Error; err != nil {
		return nil, fmt.Errorf("order not found: %w", err)
	}
	return &order, nil
}

func (d *DatabaseStore) GetOrdersByBuyer(buyerID int) ([]*models.Order, error) {
	var orders []*models.Order
	err := d.db.Where("buyer_id = ?", buyerID).Order("id desc").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("order lookup failed: %w", err)
	}
	return orders, nil
}

func (d *DatabaseStore) GetOrdersByStatus(status string) ([]*models.Order, error) {
	var orders []*models.Order
	err := d.db.Where("status = ?", status).Order("id").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("order lookup failed: %w", err)
	}
	return orders, nil
}

func (d *DatabaseStore) GetOrderItemsByOrder(orderID int) ([]*models.OrderItem, error) {
	var items []*models.OrderItem
	err := d.db.Where("order_id = ?", orderID).Order("id").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("order item lookup failed: %w", err)
	}
	return items, nil
}

func (d *DatabaseStore) UpdateOrderStatus(id int, status string) error {
	result := d.db.Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("order update failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order not found")
	}
	return nil
}

package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrimove/agrimove-backend/internal/models"
)

// MemoryStore holds all data in memory, for tests and local runs
type MemoryStore struct {
	users      map[int]*models.User
	produce    map[int]*models.Produce
	farms      map[int]*models.Farm
	orders     map[int]*models.Order
	orderItems map[int]*models.OrderItem

	// Mutexes for thread safety
	userMu    sync.RWMutex
	produceMu sync.RWMutex
	farmMu    sync.RWMutex
	orderMu   sync.RWMutex

	// Counters for ID generation
	userCounter      int
	produceCounter   int
	farmCounter      int
	orderCounter     int
	orderItemCounter int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[int]*models.User),
		produce:    make(map[int]*models.Produce),
		farms:      make(map[int]*models.Farm),
		orders:     make(map[int]*models.Order),
		orderItems: make(map[int]*models.OrderItem),
	}
}

// User operations

// AddUser seeds a user record (test/demo helper)
func (m *MemoryStore) AddUser(user *models.User) *models.User {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	m.userCounter++
	user.ID = m.userCounter
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return user
}

func (m *MemoryStore) GetUser(id int) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

func (m *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, user := range m.users {
		if user.Phone == phone {
			return user, nil
		}
	}
	return nil, nil
}

// Produce operations

// AddProduce seeds a produce record (test/demo helper)
func (m *MemoryStore) AddProduce(p *models.Produce) *models.Produce {
	m.produceMu.Lock()
	defer m.produceMu.Unlock()

	m.produceCounter++
	p.ID = m.produceCounter
	if p.Status == "" {
		p.Status = models.ProduceStatusActive
	}
	p.CreatedAt = time.Now()
	m.produce[p.ID] = p
	return p
}

func (m *MemoryStore) GetAllProduce() ([]*models.Produce, error) {
	m.produceMu.RLock()
	defer m.produceMu.RUnlock()

	var items []*models.Produce
	for _, p := range m.produce {
		if p.Status == models.ProduceStatusActive {
			items = append(items, p)
		}
	}
	// Maps iterate in random order; menus rely on stable numbering
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *MemoryStore) GetProduce(id int) (*models.Produce, error) {
	m.produceMu.RLock()
	defer m.produceMu.RUnlock()

	p, exists := m.produce[id]
	if !exists {
		return nil, fmt.Errorf("produce not found")
	}
	return p, nil
}

func (m *MemoryStore) GetProduceByFarmer(farmerID int) ([]*models.Produce, error) {
	m.produceMu.RLock()
	defer m.produceMu.RUnlock()

	var items []*models.Produce
	for _, p := range m.produce {
		if p.FarmerID == farmerID {
			items = append(items, p)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// Farm operations

// AddFarm seeds a farm record (test/demo helper)
func (m *MemoryStore) AddFarm(farm *models.Farm) *models.Farm {
	m.farmMu.Lock()
	defer m.farmMu.Unlock()

	m.farmCounter++
	farm.ID = m.farmCounter
	farm.CreatedAt = time.Now()
	m.farms[farm.ID] = farm
	return farm
}

func (m *MemoryStore) GetAllFarms() ([]*models.Farm, error) {
	m.farmMu.RLock()
	defer m.farmMu.RUnlock()

	var farms []*models.Farm
	for _, farm := range m.farms {
		farms = append(farms, farm)
	}
	sort.Slice(farms, func(i, j int) bool { return farms[i].ID < farms[j].ID })
	return farms, nil
}

func (m *MemoryStore) GetFarm(id int) (*models.Farm, error) {
	m.farmMu.RLock()
	defer m.farmMu.RUnlock()

	farm, exists := m.farms[id]
	if !exists {
		return nil, fmt.Errorf("farm not found")
	}
	return farm, nil
}

func (m *MemoryStore) GetFarmByFarmer(farmerID int) (*models.Farm, error) {
	m.farmMu.RLock()
	defer m.farmMu.RUnlock()

	for _, farm := range m.farms {
		if farm.FarmerID == farmerID {
			return farm, nil
		}
	}
	return nil, fmt.Errorf("farm not found")
}

// Order operations

func (m *MemoryStore) CreateOrder(buyerID int, items []models.OrderItemInput, deliveryAddress string, total float64) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("order has no items")
	}

	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	m.orderCounter++
	now := time.Now()

	order := &models.Order{
		ID:              m.orderCounter,
		BuyerID:         buyerID,
		Ref:             newOrderRef(),
		Total:           total,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		DeliveryAddress: deliveryAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.orders[order.ID] = order

	for _, in := range items {
		m.orderItemCounter++
		m.orderItems[m.orderItemCounter] = &models.OrderItem{
			ID:        m.orderItemCounter,
			OrderID:   order.ID,
			ProduceID: in.ProduceID,
			FarmerID:  in.FarmerID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Status:    models.OrderStatusPending,
			CreatedAt: now,
		}
	}

	return order, nil
}

func (m *MemoryStore) GetOrder(id int) (*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	order, exists := m.orders[id]
	if !exists {
		return nil, fmt.Errorf("order not found")
	}
	return order, nil
}

func (m *MemoryStore) GetOrdersByBuyer(buyerID int) ([]*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	var orders []*models.Order
	for _, order := range m.orders {
		if order.BuyerID == buyerID {
			orders = append(orders, order)
		}
	}
	// Most recent first
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (m *MemoryStore) GetOrdersByStatus(status string) ([]*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	var orders []*models.Order
	for _, order := range m.orders {
		if order.Status == status {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (m *MemoryStore) GetOrderItemsByOrder(orderID int) ([]*models.OrderItem, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	var items []*models.OrderItem
	for _, item := range m.orderItems {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *MemoryStore) UpdateOrderStatus(id int, status string) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	order, exists := m.orders[id]
	if !exists {
		return fmt.Errorf("order not found")
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	return nil
}

// newOrderRef generates a short external order reference, e.g. "ORD-a1b2c3d4"
func newOrderRef() string {
	id := uuid.NewString()
	return "ORD-" + strings.SplitN(id, "-", 2)[0]
}

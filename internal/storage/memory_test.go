package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimove/agrimove-backend/internal/models"
)

func seededStore() *MemoryStore {
	store := NewMemoryStore()
	store.AddUser(&models.User{Role: models.RoleBuyer, Phone: "+254700000001", Name: "John"})
	store.AddUser(&models.User{Role: models.RoleFarmer, Phone: "+254700000100", Name: "Mary"})
	store.AddFarm(&models.Farm{FarmerID: 2, Name: "Green Acres", Address: "Limuru"})
	store.AddProduce(&models.Produce{FarmerID: 2, Name: "Tomatoes", Price: 1.50, Unit: "kg"})
	store.AddProduce(&models.Produce{FarmerID: 2, Name: "Maize", Price: 0.80, Unit: "kg"})
	return store
}

func TestGetUserByPhone(t *testing.T) {
	store := seededStore()

	user, err := store.GetUserByPhone("+254700000001")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "John", user.Name)

	// Unknown phone is an absence, not an error
	user, err = store.GetUserByPhone("+254700999999")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestGetAllProduceSkipsInactive(t *testing.T) {
	store := seededStore()
	store.AddProduce(&models.Produce{FarmerID: 2, Name: "Old Kale", Price: 0.50, Unit: "bunch", Status: models.ProduceStatusInactive})

	items, err := store.GetAllProduce()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Tomatoes", items[0].Name)
	assert.Equal(t, "Maize", items[1].Name)
}

func TestGetProduceByFarmer(t *testing.T) {
	store := seededStore()

	items, err := store.GetProduceByFarmer(2)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = store.GetProduceByFarmer(99)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetFarmByFarmer(t *testing.T) {
	store := seededStore()

	farm, err := store.GetFarmByFarmer(2)
	require.NoError(t, err)
	assert.Equal(t, "Green Acres", farm.Name)

	_, err = store.GetFarmByFarmer(99)
	assert.Error(t, err)
}

func TestCreateOrderWithItems(t *testing.T) {
	store := seededStore()

	order, err := store.CreateOrder(1, []models.OrderItemInput{
		{ProduceID: 1, FarmerID: 2, Quantity: 2, UnitPrice: 1.50},
		{ProduceID: 2, FarmerID: 2, Quantity: 5, UnitPrice: 0.80},
	}, "12 Market Rd", 7.00)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "12 Market Rd", order.DeliveryAddress)
	assert.True(t, len(order.Ref) > 4, "order ref must be generated")

	items, err := store.GetOrderItemsByOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, order.ID, items[0].OrderID)

	orders, err := store.GetOrdersByBuyer(1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func TestCreateOrderRejectsEmpty(t *testing.T) {
	store := seededStore()

	_, err := store.CreateOrder(1, nil, "12 Market Rd", 0)
	assert.Error(t, err)
}

func TestUpdateOrderStatus(t *testing.T) {
	store := seededStore()
	order, err := store.CreateOrder(1, []models.OrderItemInput{
		{ProduceID: 1, FarmerID: 2, Quantity: 1, UnitPrice: 1.50},
	}, "12 Market Rd", 1.50)
	require.NoError(t, err)

	require.NoError(t, store.UpdateOrderStatus(order.ID, models.OrderStatusConfirmed))

	updated, err := store.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, updated.Status)

	assert.Error(t, store.UpdateOrderStatus(999, models.OrderStatusConfirmed))
}

func TestGetOrdersByStatus(t *testing.T) {
	store := seededStore()
	first, _ := store.CreateOrder(1, []models.OrderItemInput{{ProduceID: 1, FarmerID: 2, Quantity: 1, UnitPrice: 1.50}}, "A", 1.50)
	second, _ := store.CreateOrder(1, []models.OrderItemInput{{ProduceID: 2, FarmerID: 2, Quantity: 1, UnitPrice: 0.80}}, "B", 0.80)
	require.NoError(t, store.UpdateOrderStatus(second.ID, models.OrderStatusDelivered))

	pending, err := store.GetOrdersByStatus(models.OrderStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)
}

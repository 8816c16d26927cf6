package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimove/agrimove-backend/internal/models"
	"github.com/agrimove/agrimove-backend/internal/storage"
)

const (
	testBuyerPhone    = "+254700000001"
	testFarmerPhone   = "+254700000100"
	testSessionID     = "ussd-test-1"
	unregisteredPhone = "+254700009999"
)

// seedStore builds a memory store with one farmer, one farm and two
// products priced so that 2kg + 3kg comes to 7.50.
func seedStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	store := storage.NewMemoryStore()

	farmer := store.AddUser(&models.User{
		Role:  models.RoleFarmer,
		Phone: testFarmerPhone,
		Name:  "Mary Wanjiru",
	})
	store.AddFarm(&models.Farm{
		FarmerID: farmer.ID,
		Name:     "Green Acres",
		Address:  "Ridge Road, Limuru",
		Rating:   4.5,
	})
	store.AddProduce(&models.Produce{
		FarmerID: farmer.ID,
		Name:     "Tomatoes",
		Price:    1.50,
		Unit:     "kg",
	})
	store.AddProduce(&models.Produce{
		FarmerID:    farmer.ID,
		Name:        "Maize",
		Description: "Fresh white maize",
		Price:       1.50,
		Unit:        "kg",
	})

	return store
}

func newTestEngine(t *testing.T, store storage.Store) (*MenuEngine, *SessionStore) {
	t.Helper()
	sessions := NewSessionStore(time.Minute)
	t.Cleanup(sessions.Stop)
	return NewMenuEngine(store, sessions), sessions
}

// startBuyer walks an unregistered caller into the buyer main menu
func startBuyer(t *testing.T, engine *MenuEngine, sessions *SessionStore, phone string) *Session {
	t.Helper()
	session := sessions.GetOrCreate(phone, testSessionID)
	reply := engine.Process(session, "1")
	require.Contains(t, reply, "Browse Products")
	return session
}

func TestWelcomeUnregisteredOffersRoles(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := sessions.GetOrCreate(unregisteredPhone, testSessionID)
	reply := engine.Process(session, "")

	assert.Contains(t, reply, "not registered")
	assert.Contains(t, reply, "1. Continue as Buyer")
	assert.Equal(t, MenuMain, session.CurrentMenu)
	assert.Empty(t, session.UserData.Role)
}

func TestWelcomeRoleChoiceOnOpeningTurn(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := sessions.GetOrCreate(unregisteredPhone, testSessionID)
	reply := engine.Process(session, "1")

	assert.Equal(t, models.RoleBuyer, session.UserData.Role)
	assert.Contains(t, reply, "Browse Products")
}

func TestWelcomeRegisteredUserGetsTheirMenu(t *testing.T) {
	store := seedStore(t)
	buyer := store.AddUser(&models.User{
		Role:  models.RoleBuyer,
		Phone: testBuyerPhone,
		Name:  "John Otieno",
	})
	engine, sessions := newTestEngine(t, store)

	session := sessions.GetOrCreate(testBuyerPhone, testSessionID)
	reply := engine.Process(session, "")

	assert.Equal(t, models.RoleBuyer, session.UserData.Role)
	assert.Equal(t, buyer.ID, session.UserData.UserID)
	assert.Contains(t, reply, "Browse Products")
}

func TestRoleSelectionExitEndsSession(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := sessions.GetOrCreate(unregisteredPhone, testSessionID)
	engine.Process(session, "")
	reply := engine.Process(session, "4")

	assert.Contains(t, reply, "Goodbye")
	assert.Equal(t, 0, sessions.ActiveCount())

	// The next turn on that id starts over
	fresh := sessions.GetOrCreate(unregisteredPhone, testSessionID)
	assert.Equal(t, MenuWelcome, fresh.CurrentMenu)
}

func TestFarmerMenuIsPlaceholder(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := sessions.GetOrCreate(unregisteredPhone, testSessionID)
	reply := engine.Process(session, "2")
	assert.Contains(t, reply, "Farmer Menu")

	reply = engine.Process(session, "1")
	assert.Contains(t, reply, "available soon")
	assert.Equal(t, MenuMain, session.CurrentMenu)
}

func TestProduceListEmptyCatalog(t *testing.T) {
	engine, sessions := newTestEngine(t, storage.NewMemoryStore())

	session := startBuyerNoCatalog(t, engine, sessions)
	reply := engine.Process(session, "1")

	assert.Contains(t, reply, "No products available")
	assert.Equal(t, MenuMain, session.CurrentMenu)
}

func startBuyerNoCatalog(t *testing.T, engine *MenuEngine, sessions *SessionStore) *Session {
	t.Helper()
	session := sessions.GetOrCreate(unregisteredPhone, testSessionID)
	engine.Process(session, "1")
	return session
}

func TestProduceListShowsNumberedItems(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	reply := engine.Process(session, "1")

	assert.Equal(t, MenuProduceList, session.CurrentMenu)
	assert.Contains(t, reply, "1. Tomatoes - $1.50/kg")
	assert.Contains(t, reply, "2. Maize - $1.50/kg")
	assert.Len(t, session.UserData.ListedProduce, 2)
}

func TestProduceDetailAndAddToCart(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	engine.Process(session, "1")

	reply := engine.Process(session, "2")
	assert.Contains(t, reply, "Name: Maize")
	assert.Contains(t, reply, "Farm: Green Acres")
	assert.Contains(t, reply, "Fresh white maize")

	reply = engine.Process(session, "1")
	assert.Contains(t, reply, "Enter quantity")

	reply = engine.Process(session, "3")
	assert.Contains(t, reply, "Added Maize x3")
	require.Len(t, session.UserData.Cart, 1)
	assert.Equal(t, 1.50, session.UserData.Cart[0].UnitPrice)
	assert.Equal(t, 3.0, session.UserData.Cart[0].Quantity)
}

func TestListSelectionBoundaries(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	engine.Process(session, "1")

	for _, input := range []string{"3", "99", "-1", "abc", "00"} {
		reply := engine.Process(session, input)
		assert.Equal(t, "Invalid selection. Please try again.", reply, "input %q", input)
		assert.Equal(t, MenuProduceList, session.CurrentMenu)
	}
}

func TestProduceSelectionUsesSnapshot(t *testing.T) {
	store := seedStore(t)
	engine, sessions := newTestEngine(t, store)

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	engine.Process(session, "1")

	// The catalog changes between the listing turn and the selection turn;
	// the selection must still resolve the item that was shown.
	store.AddProduce(&models.Produce{FarmerID: 1, Name: "Kale", Price: 0.80, Unit: "bunch"})

	reply := engine.Process(session, "1")
	assert.Contains(t, reply, "Name: Tomatoes")
}

func TestProduceListBackToMainMenu(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	engine.Process(session, "1")
	reply := engine.Process(session, "0")

	assert.Equal(t, MenuMain, session.CurrentMenu)
	assert.Contains(t, reply, "Browse Products")
}

func TestOrderStatusRequiresRegisteredUser(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	reply := engine.Process(session, "2")

	assert.Contains(t, reply, "logged in")
	assert.Equal(t, MenuMain, session.CurrentMenu)
}

func TestOrderStatusListsRecentOrders(t *testing.T) {
	store := seedStore(t)
	buyer := store.AddUser(&models.User{Role: models.RoleBuyer, Phone: testBuyerPhone, Name: "John"})
	_, err := store.CreateOrder(buyer.ID, []models.OrderItemInput{
		{ProduceID: 1, FarmerID: 1, Quantity: 2, UnitPrice: 1.50},
	}, "Ridge Road", 3.00)
	require.NoError(t, err)

	engine, sessions := newTestEngine(t, store)
	session := sessions.GetOrCreate(testBuyerPhone, testSessionID)
	engine.Process(session, "")

	reply := engine.Process(session, "2")
	assert.Contains(t, reply, "Your Recent Orders:")
	assert.Contains(t, reply, "Order #1 - pending - $3.00")

	reply = engine.Process(session, "1")
	assert.Contains(t, reply, "Order #1 Details")
	assert.Contains(t, reply, "Tomatoes x2")
	assert.Contains(t, reply, "Delivery Address: Ridge Road")
}

func TestFarmInfoListAndDetail(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	reply := engine.Process(session, "3")
	assert.Equal(t, MenuFarmInfo, session.CurrentMenu)
	assert.Contains(t, reply, "1. Green Acres (Rating: 4.5)")

	reply = engine.Process(session, "1")
	assert.Contains(t, reply, "Name: Green Acres")
	assert.Contains(t, reply, "Location: Ridge Road, Limuru")
	assert.Contains(t, reply, "- Tomatoes: $1.50/kg")
}

func TestPlaceOrderRoundTrip(t *testing.T) {
	store := seedStore(t)
	engine, sessions := newTestEngine(t, store)

	session := startBuyer(t, engine, sessions, unregisteredPhone)

	reply := engine.Process(session, "4")
	assert.Equal(t, MenuPlaceOrder, session.CurrentMenu)
	assert.Contains(t, reply, "Select a product")

	// Two items: 2kg tomatoes + 3kg maize at 1.50 = 7.50
	engine.Process(session, "1")
	engine.Process(session, "2")
	engine.Process(session, "2")
	reply = engine.Process(session, "3")
	assert.Contains(t, reply, "Your cart has 2 items.")

	reply = engine.Process(session, "C")
	assert.Contains(t, reply, "Tomatoes x2 = $3.00")
	assert.Contains(t, reply, "Maize x3 = $4.50")
	assert.Contains(t, reply, "Total: $7.50")

	reply = engine.Process(session, "F")
	assert.Equal(t, MenuConfirmOrder, session.CurrentMenu)
	assert.Contains(t, reply, "Total: $7.50")
	assert.Contains(t, reply, "delivery address")

	reply = engine.Process(session, "12 Market Rd")
	assert.Contains(t, reply, "Delivery to: 12 Market Rd")
	assert.Contains(t, reply, "1. Confirm Order")

	reply = engine.Process(session, "1")
	assert.Contains(t, reply, "Order placed successfully!")
	assert.Contains(t, reply, "Thank you for using")

	// Exactly one order, carrying exactly the cart's lines
	order, err := store.GetOrder(1)
	require.NoError(t, err)
	assert.Equal(t, 7.50, order.Total)
	assert.Equal(t, "12 Market Rd", order.DeliveryAddress)

	items, err := store.GetOrderItemsByOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].ProduceID)
	assert.Equal(t, 2.0, items[0].Quantity)
	assert.Equal(t, 2, items[1].ProduceID)
	assert.Equal(t, 3.0, items[1].Quantity)

	_, err = store.GetOrder(2)
	assert.Error(t, err, "exactly one order must exist")

	// Cart cleared and the conversation ended
	assert.Nil(t, session.UserData.Cart)
	assert.Nil(t, session.UserData.TempOrder)
	assert.Equal(t, 0, sessions.ActiveCount())
}

func TestConfirmOrderCancelReturnsToProducts(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	engine.Process(session, "4")
	engine.Process(session, "1")
	engine.Process(session, "2")

	engine.Process(session, "F")
	engine.Process(session, "12 Market Rd")
	reply := engine.Process(session, "2")

	assert.Contains(t, reply, "Order cancelled.")
	assert.Equal(t, MenuPlaceOrder, session.CurrentMenu)
	assert.Nil(t, session.UserData.TempOrder)
	assert.Len(t, session.UserData.Cart, 1, "cancelling checkout keeps the cart")
}

func TestConfirmOrderWithEmptyCart(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	engine.Process(session, "4")
	reply := engine.Process(session, "F")

	assert.Contains(t, reply, "cart is empty")
	assert.Equal(t, MenuPlaceOrder, session.CurrentMenu)
}

// The remove flow used to stop at the prompt; it now completes with an
// index-based removal, bounds-checked like every other selection.
func TestCartRemoveItem(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	engine.Process(session, "4")
	engine.Process(session, "1")
	engine.Process(session, "2")
	engine.Process(session, "2")
	engine.Process(session, "3")

	reply := engine.Process(session, "R")
	assert.Contains(t, reply, "item number to remove")

	reply = engine.Process(session, "1")
	assert.Contains(t, reply, "Item removed.")
	require.Len(t, session.UserData.Cart, 1)
	assert.Equal(t, 2, session.UserData.Cart[0].ProduceID)
}

func TestCartRemoveOutOfRange(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	engine.Process(session, "4")
	engine.Process(session, "1")
	engine.Process(session, "2")

	engine.Process(session, "R")
	reply := engine.Process(session, "5")

	assert.Equal(t, "Invalid selection. Please try again.", reply)
	assert.Len(t, session.UserData.Cart, 1)
}

func TestInvalidQuantityKeepsPrompting(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	engine.Process(session, "4")
	engine.Process(session, "1")

	for _, input := range []string{"abc", "-2", "0"} {
		reply := engine.Process(session, input)
		assert.Contains(t, reply, "Invalid quantity", "input %q", input)
	}
	assert.Empty(t, session.UserData.Cart)

	engine.Process(session, "2")
	assert.Len(t, session.UserData.Cart, 1)
}

// Redelivered quantity turns are not deduplicated: replaying the same
// turn appends a second line. Documented redelivery hazard.
func TestQuantityTurnReplayAppendsTwice(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	engine.Process(session, "4")
	engine.Process(session, "1")
	engine.Process(session, "2")

	engine.Process(session, "1")
	engine.Process(session, "2")

	assert.Len(t, session.UserData.Cart, 2)
}

type failingStore struct {
	storage.Store
	failProduce bool
}

func (f *failingStore) GetAllProduce() ([]*models.Produce, error) {
	if f.failProduce {
		return nil, errors.New("connection refused")
	}
	return f.Store.GetAllProduce()
}

func TestGatewayFailureFallsBackToMainMenu(t *testing.T) {
	store := &failingStore{Store: seedStore(t), failProduce: true}
	engine, sessions := newTestEngine(t, store)

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	reply := engine.Process(session, "1")

	assert.Contains(t, reply, "temporarily unavailable")
	assert.Equal(t, MenuMain, session.CurrentMenu)
}

func TestUnknownStateFallsBackToMainMenu(t *testing.T) {
	engine, sessions := newTestEngine(t, seedStore(t))

	session := startBuyer(t, engine, sessions, unregisteredPhone)
	session.CurrentMenu = MenuState("stale_state")

	reply := engine.Process(session, "7")
	assert.Equal(t, MenuMain, session.CurrentMenu)
	assert.Contains(t, reply, "Browse Products")
}

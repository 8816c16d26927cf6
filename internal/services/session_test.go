package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	store := NewSessionStore(time.Minute)
	defer store.Stop()

	first := store.GetOrCreate("+254700000001", "ussd-1")
	first.UserData.Role = "buyer"

	second := store.GetOrCreate("+254700000001", "ussd-1")
	require.Same(t, first, second)
	assert.Equal(t, "buyer", second.UserData.Role)
}

func TestGetOrCreateStartsAtWelcome(t *testing.T) {
	store := NewSessionStore(time.Minute)
	defer store.Stop()

	session := store.GetOrCreate("+254700000001", "ussd-1")
	assert.Equal(t, MenuWelcome, session.CurrentMenu)
	assert.Empty(t, session.UserData.Cart)
	assert.Equal(t, "+254700000001", session.PhoneNumber)
}

func TestExpiredSessionIsAFreshStart(t *testing.T) {
	store := NewSessionStore(20 * time.Millisecond)
	defer store.Stop()

	first := store.GetOrCreate("+254700000001", "ussd-1")
	first.UserData.Role = "buyer"
	first.CurrentMenu = MenuPlaceOrder

	time.Sleep(40 * time.Millisecond)

	second := store.GetOrCreate("+254700000001", "ussd-1")
	require.NotSame(t, first, second)
	assert.Equal(t, MenuWelcome, second.CurrentMenu)
	assert.Empty(t, second.UserData.Role)
}

func TestEndIsIdempotent(t *testing.T) {
	store := NewSessionStore(time.Minute)
	defer store.Stop()

	store.GetOrCreate("+254700000001", "ussd-1")
	store.End("ussd-1")
	store.End("ussd-1")
	store.End("never-existed")

	assert.Equal(t, 0, store.ActiveCount())
}

func TestSweepExpiredRemovesIdleSessions(t *testing.T) {
	store := NewSessionStore(20 * time.Millisecond)
	defer store.Stop()

	store.GetOrCreate("+254700000001", "ussd-1")
	store.GetOrCreate("+254700000002", "ussd-2")
	assert.Equal(t, 2, store.ActiveCount())

	time.Sleep(40 * time.Millisecond)
	store.SweepExpired()

	assert.Equal(t, 0, store.ActiveCount())

	// Sweep must leave the key usable for a fresh conversation
	session := store.GetOrCreate("+254700000001", "ussd-1")
	assert.Equal(t, MenuWelcome, session.CurrentMenu)
}

func TestConcurrentSessionsDoNotInterfere(t *testing.T) {
	store := NewSessionStore(time.Minute)
	defer store.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("ussd-%d", i)
			session := store.GetOrCreate(fmt.Sprintf("+2547%08d", i), id)
			session.Lock()
			session.UserData.Cart = append(session.UserData.Cart, CartItem{ProduceID: i, Quantity: 1, UnitPrice: 1})
			session.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.ActiveCount())
	for i := 0; i < 50; i++ {
		session := store.GetOrCreate(fmt.Sprintf("+2547%08d", i), fmt.Sprintf("ussd-%d", i))
		require.Len(t, session.UserData.Cart, 1)
		assert.Equal(t, i, session.UserData.Cart[0].ProduceID)
	}
}

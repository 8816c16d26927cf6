package services

import (
	"log"
	"sync"
	"time"

	"github.com/agrimove/agrimove-backend/internal/models"
)

// MenuState is a session's position in the conversation state machine
type MenuState string

const (
	MenuWelcome      MenuState = "welcome"
	MenuMain         MenuState = "main_menu"
	MenuProduceList  MenuState = "produce_list"
	MenuOrderStatus  MenuState = "order_status"
	MenuFarmInfo     MenuState = "farm_info"
	MenuPlaceOrder   MenuState = "place_order"
	MenuConfirmOrder MenuState = "confirm_order"
)

// CartItem is one line in a session's shopping cart
type CartItem struct {
	ProduceID int     `json:"produce_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// TempOrder is an order under construction during checkout
type TempOrder struct {
	Items           []models.OrderItemInput `json:"items"`
	Total           float64                 `json:"total"`
	DeliveryAddress string                  `json:"delivery_address"`
	AddressSet      bool                    `json:"address_set"`
}

// UserData is the mutable per-session conversation state
type UserData struct {
	Role   string `json:"role,omitempty"` // "buyer", "farmer", "driver"
	UserID int    `json:"user_id,omitempty"`

	// Snapshot of the ids shown in the last rendered list, so a 1-based
	// selection on the next turn resolves the same item even if the
	// catalog changes in between.
	ListedProduce []int `json:"listed_produce,omitempty"`
	ListedFarms   []int `json:"listed_farms,omitempty"`
	ListedOrders  []int `json:"listed_orders,omitempty"`

	// Product whose detail page is being viewed, 0 when none
	ViewingProduceID int `json:"viewing_produce_id,omitempty"`
	// Product awaiting a quantity entry, 0 when none
	PendingProduceID int `json:"pending_produce_id,omitempty"`
	// Cart view is awaiting an item index to remove
	PendingRemoval bool `json:"pending_removal,omitempty"`

	Cart      []CartItem `json:"cart,omitempty"`
	TempOrder *TempOrder `json:"temp_order,omitempty"`
}

// Session represents one in-flight conversation
type Session struct {
	SessionID    string    `json:"session_id"`
	PhoneNumber  string    `json:"phone_number"`
	CurrentMenu  MenuState `json:"current_menu"`
	UserData     UserData  `json:"user_data"`
	LastActivity time.Time `json:"last_activity"`

	// Serializes turns racing on the same session (e.g. a double-tapped
	// USSD reply). Held by the caller for the duration of a turn and by
	// the sweeper around removal.
	mu sync.Mutex
}

// Lock acquires the per-session turn lock
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session turn lock
func (s *Session) Unlock() { s.mu.Unlock() }

// SessionStore manages all in-flight conversational sessions.
// Storage is process-local and volatile by design: a restart drops all
// sessions, which is fine because any committed effect (an order) is
// already persisted through the gateway before a session ends.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	ttl      time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// DefaultSessionTTL is how long a session survives without an inbound turn
const DefaultSessionTTL = 5 * time.Minute

// sweepInterval is how often the background sweep runs
const sweepInterval = time.Minute

// NewSessionStore creates a session store and starts its background sweep
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	ss := &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}

	go ss.sweepLoop()

	return ss
}

// GetOrCreate returns the live session for sessionID, refreshing its
// activity timestamp, or creates a fresh one at the welcome state. An
// expired session found here is removed first, so the caller always sees
// either live state or a fresh start.
func (ss *SessionStore) GetOrCreate(phoneNumber, sessionID string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if session, exists := ss.sessions[sessionID]; exists {
		if time.Since(session.LastActivity) <= ss.ttl {
			session.LastActivity = time.Now()
			return session
		}
		// Lazily expired; indistinguishable from never having existed
		delete(ss.sessions, sessionID)
	}

	session := &Session{
		SessionID:    sessionID,
		PhoneNumber:  phoneNumber,
		CurrentMenu:  MenuWelcome,
		LastActivity: time.Now(),
	}
	ss.sessions[sessionID] = session
	log.Printf("Session created for %s (%s)", phoneNumber, sessionID)

	return session
}

// End removes the session if present; no-op otherwise
func (ss *SessionStore) End(sessionID string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if _, exists := ss.sessions[sessionID]; exists {
		delete(ss.sessions, sessionID)
		log.Printf("Session ended (%s)", sessionID)
	}
}

// SweepExpired removes every session idle for longer than the TTL
func (ss *SessionStore) SweepExpired() {
	ss.mu.Lock()
	var expired []*Session
	for id, session := range ss.sessions {
		if time.Since(session.LastActivity) > ss.ttl {
			expired = append(expired, session)
			delete(ss.sessions, id)
		}
	}
	ss.mu.Unlock()

	// Wait out any in-flight turn before declaring the session gone
	for _, session := range expired {
		session.Lock()
		session.Unlock()
		log.Printf("Cleaned up expired session for %s", session.PhoneNumber)
	}
}

// ActiveCount returns the number of live sessions (for monitoring)
func (ss *SessionStore) ActiveCount() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	count := 0
	for _, session := range ss.sessions {
		if time.Since(session.LastActivity) <= ss.ttl {
			count++
		}
	}
	return count
}

// Stop halts the background sweep
func (ss *SessionStore) Stop() {
	ss.stopOnce.Do(func() { close(ss.stop) })
}

func (ss *SessionStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ss.SweepExpired()
		case <-ss.stop:
			return
		}
	}
}

package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/agrimove/agrimove-backend/internal/models"
	"github.com/agrimove/agrimove-backend/internal/services"
	"github.com/agrimove/agrimove-backend/internal/storage"
)

// NotificationJob sends scheduled reminder pushes. It runs beside the
// conversational engine and shares nothing with it except the store and
// the notifier.
type NotificationJob struct {
	store    storage.Store
	notifier services.Notifier

	interval     time.Duration
	pendingAfter time.Duration
	stop         chan struct{}
}

// NewNotificationJob creates a new notification job scheduler
func NewNotificationJob(store storage.Store, notifier services.Notifier) *NotificationJob {
	return &NotificationJob{
		store:        store,
		notifier:     notifier,
		interval:     time.Hour,
		pendingAfter: 24 * time.Hour,
		stop:         make(chan struct{}),
	}
}

// Start begins the scheduled jobs
func (n *NotificationJob) Start() {
	log.Println("Starting scheduled notification jobs...")
	go n.runPendingOrderReminders()
}

// Stop halts all scheduled jobs
func (n *NotificationJob) Stop() {
	close(n.stop)
	log.Println("Stopping scheduled notification jobs...")
}

// runPendingOrderReminders checks hourly for orders that have sat in
// "pending" for too long and nudges their buyers.
func (n *NotificationJob) runPendingOrderReminders() {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.sendPendingOrderReminders()
		case <-n.stop:
			return
		}
	}
}

func (n *NotificationJob) sendPendingOrderReminders() {
	orders, err := n.store.GetOrdersByStatus(models.OrderStatusPending)
	if err != nil {
		log.Printf("Pending order sweep failed: %v", err)
		return
	}

	cutoff := time.Now().Add(-n.pendingAfter)
	reminded := 0

	for _, order := range orders {
		if order.CreatedAt.After(cutoff) {
			continue
		}

		buyer, err := n.store.GetUser(order.BuyerID)
		if err != nil || buyer.Phone == "" {
			continue
		}

		message := fmt.Sprintf("AgriMove: Your order #%d (total $%.2f) is still awaiting confirmation. Reply with \"status %d\" for updates.",
			order.ID, order.Total, order.ID)

		if n.notifier.SendMessage(buyer.Phone, message) {
			reminded++
		}
	}

	if reminded > 0 {
		log.Printf("Sent %d pending order reminders", reminded)
	}
}

package services

import (
	"fmt"
	"log"

	"github.com/agrimove/agrimove-backend/internal/models"
	"github.com/agrimove/agrimove-backend/internal/storage"
)

// OrderUpdateService pushes order-status notifications to buyers. It sits
// on the order-lifecycle side, not the conversation side: a failed push is
// logged and reported false, never surfaced as a fault.
type OrderUpdateService struct {
	store    storage.Store
	notifier Notifier
}

// NewOrderUpdateService creates the order notification service
func NewOrderUpdateService(store storage.Store, notifier Notifier) *OrderUpdateService {
	return &OrderUpdateService{
		store:    store,
		notifier: notifier,
	}
}

// NotifyStatusChange tells the buyer that their order moved to status.
// Returns whether a push went out.
func (o *OrderUpdateService) NotifyStatusChange(orderID int, status string) bool {
	order, err := o.store.GetOrder(orderID)
	if err != nil {
		log.Printf("Order update skipped, order %d not found: %v", orderID, err)
		return false
	}

	buyer, err := o.store.GetUser(order.BuyerID)
	if err != nil || buyer.Phone == "" {
		log.Printf("Order update skipped, no reachable buyer for order %d", orderID)
		return false
	}

	items, err := o.store.GetOrderItemsByOrder(orderID)
	if err != nil {
		log.Printf("Order update skipped, items missing for order %d: %v", orderID, err)
		return false
	}

	message := fmt.Sprintf("AgriMove: Your order #%d status has been updated to %s.\n\n%s\n\nReply with \"status %d\" for the latest updates.",
		order.ID, status, o.formatOrderDetails(order, items), order.ID)

	return o.notifier.SendMessage(buyer.Phone, message)
}

// formatOrderDetails renders an order summary for an outbound push
func (o *OrderUpdateService) formatOrderDetails(order *models.Order, items []*models.OrderItem) string {
	message := fmt.Sprintf("Order #%d Details\n", order.ID)
	message += fmt.Sprintf("Status: %s\n", order.Status)
	message += fmt.Sprintf("Total: $%.2f\n", order.Total)
	message += fmt.Sprintf("Payment status: %s\n\n", order.PaymentStatus)

	message += "Items:\n"
	for i, item := range items {
		name := "Unknown product"
		if produce, err := o.store.GetProduce(item.ProduceID); err == nil {
			name = produce.Name
		}
		message += fmt.Sprintf("%d. %s x%s - $%.2f\n", i+1, name, formatQuantity(item.Quantity), item.UnitPrice*item.Quantity)
	}

	message += fmt.Sprintf("\nDelivery Address: %s", order.DeliveryAddress)

	if order.Status == models.OrderStatusInTransit && order.EstimatedDeliveryTime != nil {
		message += fmt.Sprintf("\nEstimated delivery: %s", order.EstimatedDeliveryTime.Format("Jan 2, 3:04 PM"))
	}

	return message
}

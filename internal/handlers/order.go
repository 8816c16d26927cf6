package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/agrimove/agrimove-backend/internal/models"
	"github.com/agrimove/agrimove-backend/internal/services"
	"github.com/agrimove/agrimove-backend/internal/storage"
)

// OrderHandler exposes the order-lifecycle notification endpoints
type OrderHandler struct {
	store        storage.Store
	orderUpdates *services.OrderUpdateService
	notifier     services.Notifier
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(store storage.Store, orderUpdates *services.OrderUpdateService, notifier services.Notifier) *OrderHandler {
	return &OrderHandler{
		store:        store,
		orderUpdates: orderUpdates,
		notifier:     notifier,
	}
}

var validOrderStatuses = map[string]bool{
	models.OrderStatusPending:   true,
	models.OrderStatusConfirmed: true,
	models.OrderStatusInTransit: true,
	models.OrderStatusDelivered: true,
	models.OrderStatusCancelled: true,
}

type notifyRequest struct {
	Status string `json:"status"`
}

// NotifyStatus updates an order's status and pushes the change to the
// buyer's phone. The push is best effort; the status update is not.
func (h *OrderHandler) NotifyStatus(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}

	var req notifyRequest
	if err := c.BodyParser(&req); err != nil || !validOrderStatuses[req.Status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid or missing status",
		})
	}

	if err := h.store.UpdateOrderStatus(orderID, req.Status); err != nil {
		log.Printf("Order %d status update failed: %v", orderID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	}

	delivered := h.orderUpdates.NotifyStatusChange(orderID, req.Status)

	return c.JSON(fiber.Map{
		"success":   true,
		"delivered": delivered,
	})
}

type sendMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// SendMessage pushes a one-off WhatsApp message to a phone number
func (h *OrderHandler) SendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil || req.To == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Recipient phone number and message are required",
		})
	}

	delivered := h.notifier.SendMessage(req.To, req.Message)

	return c.JSON(fiber.Map{
		"success":   true,
		"delivered": delivered,
	})
}

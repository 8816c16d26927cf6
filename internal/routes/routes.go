package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/agrimove/agrimove-backend/internal/handlers"
	"github.com/agrimove/agrimove-backend/internal/middleware"
	"github.com/agrimove/agrimove-backend/internal/services"
	"github.com/agrimove/agrimove-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, sessions *services.SessionStore, engine *services.MenuEngine, notifier services.Notifier) {
	ussdHandler := handlers.NewUSSDHandler(sessions, engine)
	whatsappHandler := handlers.NewWhatsAppHandler(sessions, engine)
	orderUpdates := services.NewOrderUpdateService(store, notifier)
	orderHandler := handlers.NewOrderHandler(store, orderUpdates, notifier)
	healthHandler := handlers.NewHealthHandler("1.0.0", sessions)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")

	// Offline messaging entry points
	api.Post("/ussd", ussdHandler.HandleUSSD)

	// WhatsApp webhook, signature-checked outside development
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		api.Post("/whatsapp", whatsappHandler.HandleWebhook)
		log.Println("WhatsApp webhook validation DISABLED for development")
	} else {
		api.Post("/whatsapp", middleware.ValidateTwilioSignature(), whatsappHandler.HandleWebhook)
	}

	// Outbound messaging
	api.Post("/whatsapp/send", orderHandler.SendMessage)
	api.Post("/orders/:id/notify", orderHandler.NotifyStatus)
}

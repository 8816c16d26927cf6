package handlers

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/agrimove/agrimove-backend/internal/services"
)

// WhatsAppHandler adapts Twilio WhatsApp webhooks onto the menu engine
type WhatsAppHandler struct {
	sessions *services.SessionStore
	engine   *services.MenuEngine
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(sessions *services.SessionStore, engine *services.MenuEngine) *WhatsAppHandler {
	return &WhatsAppHandler{
		sessions: sessions,
		engine:   engine,
	}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid" json:"MessageSid"`
	AccountSid string `form:"AccountSid" json:"AccountSid"`
	From       string `form:"From" json:"From"` // "whatsapp:+254712345678"
	To         string `form:"To" json:"To"`
	Body       string `form:"Body" json:"Body"`
	NumMedia   string `form:"NumMedia" json:"NumMedia"`
}

// HandleWebhook processes one inbound WhatsApp message and answers with a
// TwiML envelope. WhatsApp has no session id of its own, so continuity is
// keyed on the phone number alone: a message within the store's idle
// timeout continues the conversation, anything later starts a new one.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing WhatsApp webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	if payload.Body == "" || payload.From == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message body and sender are required",
		})
	}

	phone := strings.TrimPrefix(payload.From, "whatsapp:")
	log.Printf("WhatsApp message from %s: %s", phone, payload.Body)

	session := h.sessions.GetOrCreate(phone, whatsAppSessionID(phone))
	session.Lock()
	reply := h.engine.Process(session, payload.Body)
	session.Unlock()

	return sendTwiML(c, reply)
}

// whatsAppSessionID synthesizes a session key for a channel that has none
func whatsAppSessionID(phone string) string {
	return "wa:" + phone
}

// sendTwiML wraps reply text in the TwiML message envelope
func sendTwiML(c *fiber.Ctx, reply string) error {
	c.Set(fiber.HeaderContentType, "text/xml")
	return c.SendString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Response><Message>%s</Message></Response>`, escapeXML(reply)))
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

func escapeXML(text string) string {
	return xmlEscaper.Replace(text)
}

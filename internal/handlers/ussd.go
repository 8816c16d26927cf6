package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/agrimove/agrimove-backend/internal/services"
	"github.com/agrimove/agrimove-backend/internal/utils"
)

// USSDHandler adapts telco gateway requests onto the menu engine
type USSDHandler struct {
	sessions *services.SessionStore
	engine   *services.MenuEngine
}

// NewUSSDHandler creates a new USSD handler
func NewUSSDHandler(sessions *services.SessionStore, engine *services.MenuEngine) *USSDHandler {
	return &USSDHandler{
		sessions: sessions,
		engine:   engine,
	}
}

// USSDPayload is the gateway's per-poll request. An empty Text marks the
// first turn of a dial.
type USSDPayload struct {
	SessionID   string `form:"sessionId" json:"sessionId"`
	ServiceCode string `form:"serviceCode" json:"serviceCode"`
	PhoneNumber string `form:"phoneNumber" json:"phoneNumber"`
	Text        string `form:"text" json:"text"`
}

// HandleUSSD processes one USSD poll and replies in the gateway's
// plain-text format: "CON <text>" to keep the session open, "END <text>"
// to close it.
func (h *USSDHandler) HandleUSSD(c *fiber.Ctx) error {
	var payload USSDPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing USSD request: %v", err)
		return c.Status(fiber.StatusBadRequest).SendString("END Missing required parameters")
	}

	if payload.SessionID == "" || payload.PhoneNumber == "" {
		return c.Status(fiber.StatusBadRequest).SendString("END Missing required parameters")
	}

	session := h.sessions.GetOrCreate(payload.PhoneNumber, payload.SessionID)
	session.Lock()
	reply := h.engine.Process(session, payload.Text)
	session.Unlock()

	prefix := "CON "
	if IsSessionEnding(reply) {
		prefix = "END "
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(prefix + utils.ClampUSSD(reply))
}

// IsSessionEnding classifies a reply as terminal. The goodbye markers are
// the engine's farewell lines; everything else keeps the session open.
func IsSessionEnding(reply string) bool {
	return strings.Contains(reply, "Goodbye") || strings.Contains(reply, "Thank you for using")
}

package services

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier pushes a text message to a user's phone. Implementations must
// never panic or block a conversational turn; a failed push reports false
// and nothing else.
type Notifier interface {
	SendMessage(to, body string) bool
}

var (
	notifierInstance Notifier
	notifierMu       sync.RWMutex
)

// SetNotifier sets the global notifier instance (call from main.go)
func SetNotifier(n Notifier) {
	notifierMu.Lock()
	defer notifierMu.Unlock()
	notifierInstance = n
}

// GetNotifier returns the global notifier instance
func GetNotifier() Notifier {
	notifierMu.RLock()
	defer notifierMu.RUnlock()
	return notifierInstance
}

// TwilioService delivers WhatsApp messages via Twilio. With no credentials
// configured it runs in demo mode: messages are logged, never sent.
type TwilioService struct {
	client *twilio.RestClient
	from   string // Twilio WhatsApp number, "whatsapp:+14155238886"
}

// NewTwilioService creates a new Twilio service instance. Missing
// credentials are not an error; the service degrades to demo mode.
func NewTwilioService() *TwilioService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		log.Println("Twilio credentials not provided. Running in demo mode.")
		return &TwilioService{}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{
		client: client,
		from:   from,
	}
}

// SendMessage sends a WhatsApp message and reports whether it was
// delivered to Twilio. Never raises; a false return is the whole story.
func (t *TwilioService) SendMessage(to, body string) bool {
	if t.client == nil {
		log.Printf("WhatsApp message would be sent to %s: %s", to, body)
		return false
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("Failed to send WhatsApp message to %s: %v", to, err)
		return false
	}

	if resp.Sid != nil {
		log.Printf("WhatsApp message sent to %s (SID %s)", to, *resp.Sid)
	}
	return true
}

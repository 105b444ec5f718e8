package messages

import "time"

// Direction of a message relative to the contact.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Message is a single persisted message in a contact's thread.
// Outgoing messages are written with is_sent=false; a separate delivery
// worker picks them up and flips the flag.
type Message struct {
	ID             string    `json:"id"`
	ContactID      string    `json:"contact_id"`
	Content        string    `json:"content"`
	Direction      string    `json:"direction"`
	IsFromCustomer bool      `json:"is_from_customer"`
	IsAIResponse   bool      `json:"is_ai_response"`
	IsSent         bool      `json:"is_sent"`
	Timestamp      time.Time `json:"timestamp"`
}

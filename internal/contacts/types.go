package contacts

import "time"

// Contact is a customer record that owns zero or more messages.
type Contact struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ContactInfo string     `json:"contact_info"`
	LastContact *time.Time `json:"last_contact,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Summary is the projection returned by lookup functions and carried on
// pending actions: just enough to identify and address a recipient.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContactInfo string `json:"contact_info"`
}

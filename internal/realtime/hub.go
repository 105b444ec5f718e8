// Package realtime fans Postgres change notifications out to dashboard
// subscribers so the UI refreshes without polling.
package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Event is one store change, keyed by collection. ContactID is set for
// message events so thread views can subscribe to a single contact.
type Event struct {
	Collection string `json:"collection"`
	Op         string `json:"op"`
	ID         string `json:"id"`
	ContactID  string `json:"contact_id,omitempty"`
}

// Topics.
const (
	TopicContacts = "contacts"
	TopicMessages = "messages"
)

// TopicMessagesFor returns the per-contact message topic.
func TopicMessagesFor(contactID string) string {
	return TopicMessages + ":" + contactID
}

// Hub is a pub/sub hub that routes change events to subscribers by topic.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[string]chan Event
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		streams: map[string]map[string]chan Event{},
	}
}

// Subscribe registers a new stream for the given topic and returns a stream
// ID, a read-only channel of events, and a cancel function to unsubscribe.
func (h *Hub) Subscribe(topic string) (string, <-chan Event, func()) {
	streamID := uuid.NewString()
	ch := make(chan Event, 32)

	h.mu.Lock()
	streams, ok := h.streams[topic]
	if !ok {
		streams = map[string]chan Event{}
		h.streams[topic] = streams
	}
	streams[streamID] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		streams := h.streams[topic]
		if streams != nil {
			if current, ok := streams[streamID]; ok {
				delete(streams, streamID)
				close(current)
			}
			if len(streams) == 0 {
				delete(h.streams, topic)
			}
		}
		h.mu.Unlock()
	}

	return streamID, ch, cancel
}

// Publish delivers the event to every subscriber of topic. Slow subscribers
// with a full buffer are skipped rather than blocking the listener.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.streams[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

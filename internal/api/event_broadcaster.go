package api

import (
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/logger"
)

// Event is one Server-Sent Event
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// EventBroadcaster manages SSE clients per session and fans events out to them
type EventBroadcaster struct {
	mu      sync.RWMutex
	clients map[string]map[chan Event]struct{} // sessionID -> clients
	log     *log.Logger
}

// NewEventBroadcaster creates an event broadcaster
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients: make(map[string]map[chan Event]struct{}),
		log:     logger.With("SSE"),
	}
}

// Subscribe adds a client for the session's events
func (b *EventBroadcaster) Subscribe(sessionID string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16)

	if b.clients[sessionID] == nil {
		b.clients[sessionID] = make(map[chan Event]struct{})
	}
	b.clients[sessionID][ch] = struct{}{}

	b.log.Debug("Client subscribed", "session_id", sessionID, "total_clients", len(b.clients[sessionID]))
	return ch
}

// Unsubscribe removes a client and closes its channel
func (b *EventBroadcaster) Unsubscribe(sessionID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[sessionID]; ok {
		if _, ok := clients[ch]; ok {
			delete(clients, ch)
			close(ch)
		}
		if len(clients) == 0 {
			delete(b.clients, sessionID)
		}
	}

	b.log.Debug("Client unsubscribed", "session_id", sessionID)
}

// Broadcast sends event to every client of the session. Slow clients miss events.
func (b *EventBroadcaster) Broadcast(sessionID string, event Event) {
	// Held for the sends so Unsubscribe cannot close a channel mid-send
	b.mu.RLock()
	defer b.mu.RUnlock()

	clients := b.clients[sessionID]
	if len(clients) == 0 {
		return
	}

	b.log.Debug("Broadcasting event", "type", event.Type, "session_id", sessionID, "clients", len(clients))

	for ch := range clients {
		select {
		case ch <- event:
		default:
			b.log.Warn("Client channel full, skipping event", "type", event.Type, "session_id", sessionID)
		}
	}
}

// Publish broadcasts a session event
func (b *EventBroadcaster) Publish(sessionID, eventType string, data any) {
	b.Broadcast(sessionID, Event{Type: eventType, Data: data})
}

// CloseSession disconnects every client of the session and returns how many there were
func (b *EventBroadcaster) CloseSession(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients := b.clients[sessionID]
	for ch := range clients {
		close(ch)
	}
	delete(b.clients, sessionID)

	b.log.Debug("Session clients closed", "session_id", sessionID, "clients", len(clients))
	return len(clients)
}

// ClientCount returns the number of clients subscribed to the session
func (b *EventBroadcaster) ClientCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[sessionID])
}

// TotalClientCount returns the number of clients across all sessions
func (b *EventBroadcaster) TotalClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}

// FormatSSE formats an event in SSE wire format
func FormatSSE(event Event) ([]byte, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte("event: " + event.Type + "\ndata: " + string(data) + "\n\n"), nil
}

// Package events fans subscription changes out to websocket clients and
// in-process listeners.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType names a subscription change.
type EventType string

const (
	EventSubscribed   EventType = "subscribed"
	EventUnsubscribed EventType = "unsubscribed"
)

// Kinds of entity that hold course subscriptions.
const (
	KindStudent    = "student"
	KindInstructor = "instructor"
)

// SubscriptionEvent is published after a subscribe or unsubscribe has been persisted.
type SubscriptionEvent struct {
	Type       EventType `json:"type"`
	EntityKind string    `json:"entityKind"`
	EntityID   string    `json:"entityId"`
	CourseID   string    `json:"courseId"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher is what services need from the hub.
type Publisher interface {
	Publish(event SubscriptionEvent)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(SubscriptionEvent) {}

// allCourses is the hub key for clients that watch every course.
const allCourses = ""

// Hub maintains the set of active clients and broadcasts events to them
type Hub struct {
	// Registered clients keyed by the course they watch
	clients map[string]map[*Client]bool

	broadcast  chan SubscriptionEvent
	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex

	listenersMu sync.RWMutex
	listeners   []chan SubscriptionEvent

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan SubscriptionEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "events").Logger(),
	}
}

// Run handles registrations and broadcasts until ctx is done. Remaining
// clients are disconnected on exit.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case event := <-h.broadcast:
			h.broadcastEvent(event)
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		}
	}
}

// join hands client to the running hub. It reports false when the hub has
// stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.courseID]; !ok {
		h.clients[client.courseID] = make(map[*Client]bool)
	}
	h.clients[client.courseID][client] = true

	h.logger.Info().
		Str("courseId", client.courseID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked must be called with h.mu held for writing.
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.courseID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.courseID)
	}

	h.logger.Info().
		Str("courseId", client.courseID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// broadcastEvent sends event to listeners, to clients watching its course and
// to clients watching every course.
func (h *Hub) broadcastEvent(event SubscriptionEvent) {
	h.notifyListeners(event)

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("courseId", event.CourseID).Msg("Failed to marshal event for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for _, key := range []string{event.CourseID, allCourses} {
		for client := range h.clients[key] {
			select {
			case client.send <- data:
				sent++
			default:
				// Slow consumer.
				h.removeLocked(client)
			}
		}
	}

	h.logger.Debug().
		Str("courseId", event.CourseID).
		Str("type", string(event.Type)).
		Int("clientCount", sent).
		Msg("Event broadcasted")
}

func (h *Hub) notifyListeners(event SubscriptionEvent) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()

	for _, listener := range h.listeners {
		select {
		case listener <- event:
		default:
			h.logger.Warn().Msg("Skipped slow event listener")
		}
	}
}

// Publish queues event for broadcast. It never blocks; when the queue is full
// the event is dropped.
func (h *Hub) Publish(event SubscriptionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().
			Str("courseId", event.CourseID).
			Str("type", string(event.Type)).
			Msg("Event queue full, dropping event")
	}
}

// ClientsCount returns the number of connected clients watching courseID.
// An empty courseID counts clients watching every course.
func (h *Hub) ClientsCount(courseID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[courseID])
}

// AddListener registers a channel to receive all events
func (h *Hub) AddListener(listener chan SubscriptionEvent) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, listener)
}

// RemoveListener removes a listener from the hub
func (h *Hub) RemoveListener(listener chan SubscriptionEvent) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()

	for i, l := range h.listeners {
		if l == listener {
			h.listeners[i] = h.listeners[len(h.listeners)-1]
			h.listeners = h.listeners[:len(h.listeners)-1]
			return
		}
	}
}

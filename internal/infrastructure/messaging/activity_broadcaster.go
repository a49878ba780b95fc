// Package messaging streams live activity snapshots to connected sysop
// dashboard clients over websockets.
package messaging

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/analytics"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/user"
	"github.com/papapop/papapop-go/pkg/config"
)

// Client represents a single connected sysop dashboard client.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// ActivityPayload is the snapshot sent to the dashboard on each tick.
type ActivityPayload struct {
	ActiveSessions int       `json:"activeSessions"`
	RecentEvents   int       `json:"recentEvents"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// activeSessionWindow is how far back a session's last_seen may be while
// still counting as active.
const activeSessionWindow = 45 * time.Minute

// ActivityBroadcaster manages all connected sysop clients and broadcasts
// activity snapshots.
type ActivityBroadcaster struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *user.SQLSessionRepository
	events     *analytics.SQLEventRepository
	logger     *logging.ChanneledLogger
	mu         sync.RWMutex
}

// NewActivityBroadcaster creates a new broadcaster instance.
func NewActivityBroadcaster(sessions *user.SQLSessionRepository, events *analytics.SQLEventRepository, logger *logging.ChanneledLogger) *ActivityBroadcaster {
	return &ActivityBroadcaster{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sessions:   sessions,
		events:     events,
		logger:     logger,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *ActivityBroadcaster) Run() {
	ticker := time.NewTicker(config.ActivityTick)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
			b.logger.Sysop().Info("Sysop client registered", "clients", b.clientCount())

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			b.mu.Unlock()
			b.logger.Sysop().Info("Sysop client unregistered", "clients", b.clientCount())

		case <-ticker.C:
			b.broadcastActivity()
		}
	}
}

// Register queues a client for registration.
func (b *ActivityBroadcaster) Register(client *Client) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *ActivityBroadcaster) Unregister(client *Client) {
	b.unregister <- client
}

// Snapshot builds the current activity payload. It is also used by the
// polling endpoint so both surfaces report the same numbers.
func (b *ActivityBroadcaster) Snapshot() (*ActivityPayload, error) {
	cutoff := time.Now().Add(-activeSessionWindow)

	active, err := b.sessions.CountActiveSince(cutoff)
	if err != nil {
		return nil, err
	}
	recent, err := b.events.EventsSince(cutoff)
	if err != nil {
		return nil, err
	}

	return &ActivityPayload{
		ActiveSessions: active,
		RecentEvents:   recent,
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

func (b *ActivityBroadcaster) broadcastActivity() {
	if b.clientCount() == 0 {
		return
	}

	payload, err := b.Snapshot()
	if err != nil {
		b.logger.Sysop().Error("Failed to build activity snapshot", "error", err.Error())
		return
	}

	message, err := json.Marshal(payload)
	if err != nil {
		b.logger.Sysop().Error("Failed to marshal activity snapshot", "error", err.Error())
		return
	}

	b.mu.RLock()
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
	b.mu.RUnlock()
}

func (b *ActivityBroadcaster) clientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

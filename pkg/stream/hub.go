// Package stream pushes ingested readings to websocket subscribers.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/sguter90/airsentinel/pkg/anomaly"
	"github.com/sguter90/airsentinel/pkg/models"
)

// ErrHubFull is returned when the broadcast queue cannot take another message
var ErrHubFull = errors.New("stream hub broadcast queue is full")

// Message is the envelope pushed to subscribers
type Message struct {
	Type     string            `json:"type"`
	Payload  models.ReadingOut `json:"payload"`
	Outliers []models.Metric   `json:"outliers,omitempty"`
}

// Hub maintains active websocket clients and broadcasts readings to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a new hub; call Run to start dispatching
func NewHub(ctx context.Context, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	hubCtx, cancel := context.WithCancel(ctx)
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With("component", "stream"),
		ctx:        hubCtx,
		cancel:     cancel,
	}
}

// Run dispatches registrations and broadcasts until the hub is stopped
func (h *Hub) Run() {
	defer h.closeAll()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client connected", "client", client.id)

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropping slow client", "client", client.id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop disconnects every client and ends Run
func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.logger.Debug("client disconnected", "client", client.id)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Notify broadcasts a persisted reading to all clients
func (h *Hub) Notify(_ context.Context, reading models.Reading, flags anomaly.Flags) error {
	data, err := json.Marshal(Message{
		Type:     "reading",
		Payload:  reading.Out(),
		Outliers: flags.Outliers(),
	})
	if err != nil {
		return err
	}

	return h.Broadcast(data)
}

// Broadcast queues a raw message without blocking
func (h *Hub) Broadcast(data []byte) error {
	select {
	case <-h.ctx.Done():
		return h.ctx.Err()
	default:
	}

	select {
	case h.broadcast <- data:
		return nil
	default:
		return ErrHubFull
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Package hub fans a single inbound stream of CFF frames out to many TCP
// subscribers, applying a per-hub backpressure policy when a subscriber's
// outbound queue cannot keep up.
package hub

import (
	"sync"

	"github.com/jkowalski/cff/internal/logging"
	"github.com/jkowalski/cff/internal/metrics"
)

// BackpressurePolicy selects what happens when a subscriber's queue is full.
type BackpressurePolicy int

const (
	// PolicyDrop silently discards the frame for that one slow subscriber.
	PolicyDrop BackpressurePolicy = iota
	// PolicyKick disconnects the subscriber instead of dropping frames
	// indefinitely, so a wedged client doesn't silently miss the whole stream.
	PolicyKick
)

// Frame is the owned, hub-broadcastable representation of a parsed CFF
// frame: a frame counter plus a payload the hub (and nothing upstream) is
// free to retain past the ring buffer's lifetime.
type Frame struct {
	Counter uint16
	Payload []byte
}

// Client represents one subscriber's outbound queue.
type Client struct {
	Out       chan Frame
	Closed    chan struct{}
	closeOnce sync.Once
}

// Close signals the client is closed (idempotent).
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Closed)
	})
}

// Hub fans frames out to registered clients.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	OutBufSize int
	Policy     BackpressurePolicy
}

// New creates a Hub with default settings.
func New() *Hub { return &Hub{clients: make(map[*Client]struct{})} }

// Add registers a client with the hub.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	prev := len(h.clients)
	h.clients[c] = struct{}{}
	cur := len(h.clients)
	h.mu.Unlock()
	metrics.SetHubClients(cur)
	if prev == 0 && cur == 1 {
		logging.L().Info("clients_first_connected")
	}
}

// Remove unregisters a client; safe to call multiple times.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	_, existed := h.clients[c]
	if existed {
		delete(h.clients, c)
	}
	cur := len(h.clients)
	h.mu.Unlock()
	select {
	case <-c.Closed:
	default:
		c.Close()
	}
	metrics.SetHubClients(cur)
	if existed && cur == 0 {
		logging.L().Info("clients_last_disconnected")
	}
}

// Broadcast sends a frame to all connected clients, honoring the
// backpressure policy for any whose queue is full.
func (h *Hub) Broadcast(fr Frame) {
	clients := h.Snapshot()
	metrics.SetBroadcastFanout(len(clients))
	if len(clients) > 0 {
		max, sum := 0, 0
		for _, c := range clients {
			l := len(c.Out)
			if l > max {
				max = l
			}
			sum += l
		}
		metrics.SetQueueDepth(max, sum/len(clients))
	}
	for _, c := range clients {
		select {
		case c.Out <- fr:
		default:
			if h.Policy == PolicyKick {
				metrics.IncHubKick()
				c.Close() // signal writer to exit; server will Remove on disconnect
			} else {
				metrics.IncHubDrop()
			}
		}
	}
}

// Snapshot returns a slice copy of current clients (read-only use).
func (h *Hub) Snapshot() []*Client {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	return clients
}

// Count returns the number of active clients.
func (h *Hub) Count() int { h.mu.RLock(); n := len(h.clients); h.mu.RUnlock(); return n }

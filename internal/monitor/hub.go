package monitor

import (
	"sync"

	"github.com/banshee-data/pursuit/internal/sim"
)

// DefaultHistory is the number of recent snapshots a Hub keeps for charts.
const DefaultHistory = 3600

// Hub fans snapshots out to live subscribers and keeps a bounded history.
// It is a sim.Observer; ObserveTick never blocks the simulation, so a slow
// subscriber loses ticks instead.
type Hub struct {
	mu      sync.Mutex
	clients map[chan sim.Snapshot]struct{}
	history []sim.Snapshot
	limit   int
	dropped uint64
}

// NewHub returns a Hub retaining up to limit snapshots. limit <= 0 uses
// DefaultHistory.
func NewHub(limit int) *Hub {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &Hub{
		clients: make(map[chan sim.Snapshot]struct{}),
		limit:   limit,
	}
}

// ObserveTick implements sim.Observer.
func (h *Hub) ObserveTick(s sim.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.history) >= h.limit {
		copy(h.history, h.history[1:])
		h.history[len(h.history)-1] = s
	} else {
		h.history = append(h.history, s)
	}

	for ch := range h.clients {
		select {
		case ch <- s:
		default:
			h.dropped++
		}
	}
}

// Subscribe registers a subscriber with the given channel buffer. The
// returned cancel func unregisters it and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan sim.Snapshot, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan sim.Snapshot, buffer)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// History returns a copy of the retained snapshots, oldest first.
func (h *Hub) History() []sim.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]sim.Snapshot, len(h.history))
	copy(out, h.history)
	return out
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns the number of deliveries skipped because a subscriber's
// buffer was full.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

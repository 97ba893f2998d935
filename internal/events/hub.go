package events

import "sync"

// Hub fans encoded events out to SSE subscribers. A subscriber whose
// buffer is full misses the event; the publisher never blocks.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
	seq     uint64
	dropped uint64
}

const subscriberBuffer = 16

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

func (h *Hub) Subscribe() chan string {
	ch := make(chan string, subscriberBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe closes ch. Calling it twice is harmless.
func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Publish sends a pre-encoded message as is.
func (h *Hub) Publish(msg string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fanOut(msg)
}

// Emit stamps the next sequence number on a version 1 event and publishes it.
func (h *Hub) Emit(reqID, typ string, data any) {
	if h == nil {
		return
	}
	e := newEvent(reqID, typ, 1, data)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	e.Seq = h.seq
	h.fanOut(e.encode())
}

// fanOut requires h.mu.
func (h *Hub) fanOut(msg string) {
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			h.dropped++
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

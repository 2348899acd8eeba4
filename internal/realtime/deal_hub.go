package realtime

import (
	"sync"

	"dealdesk/internal/models"
)

const (
	EventDealCreated = "deal.created"
	EventDealUpdated = "deal.updated"
	EventDealMoved   = "deal.moved"
	EventDealDeleted = "deal.deleted"
	EventDealsBulk   = "deals.bulk"
)

// DealEvent is one committed deal write as seen by board subscribers.
type DealEvent struct {
	Type    string       `json:"type"`
	DealID  string       `json:"deal_id,omitempty"`
	Version int64        `json:"version,omitempty"`
	Deal    *models.Deal `json:"deal,omitempty"`
	IDs     []string     `json:"ids,omitempty"`
}

type Subscriber struct {
	ch chan DealEvent
}

// Events is closed once the subscriber is unregistered.
func (s *Subscriber) Events() <-chan DealEvent { return s.ch }

type DealHub struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	buffer int
	closed bool
}

func NewDealHub(buffer int) *DealHub {
	if buffer <= 0 {
		buffer = 16
	}
	return &DealHub{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. After Close it returns one whose
// channel is already closed.
func (h *DealHub) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan DealEvent, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

func (h *DealHub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}

// Close unregisters every subscriber and closes its channel, which ends
// the streams reading from them. It is safe to call more than once.
func (h *DealHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.ch)
	}
}

// Broadcast never blocks: a subscriber whose buffer is full misses the event.
// It returns how many subscribers received it.
func (h *DealHub) Broadcast(ev DealEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for s := range h.subs {
		select {
		case s.ch <- ev:
			sent++
		default:
		}
	}
	return sent
}

func (h *DealHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// DealChanged builds the event for a single-deal write.
func DealChanged(kind string, d *models.Deal) DealEvent {
	return DealEvent{Type: kind, DealID: d.ID, Version: d.Version, Deal: d}
}

package app

import (
	"sync"
	"time"

	"gymos/internal/domain"
)

// SessionEventKind names a session state change.
type SessionEventKind string

const (
	SessionSignedIn  SessionEventKind = "signed_in"
	SessionSignedOut SessionEventKind = "signed_out"
	SessionExpired   SessionEventKind = "expired"
)

// SessionEvent is one change of a member's session state.
type SessionEvent struct {
	Kind     SessionEventKind `json:"kind"`
	MemberID domain.MemberID  `json:"memberId"`
	At       time.Time        `json:"at"`
}

// SessionHub fans session events out to subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type SessionHub struct {
	mu   sync.Mutex
	subs map[int]chan SessionEvent
	next int
}

// NewSessionHub creates an empty hub.
func NewSessionHub() *SessionHub {
	return &SessionHub{subs: make(map[int]chan SessionEvent)}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel func unregisters it and closes the channel.
func (h *SessionHub) Subscribe(buffer int) (<-chan SessionEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan SessionEvent, buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber with room for it.
func (h *SessionHub) Publish(e SessionEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

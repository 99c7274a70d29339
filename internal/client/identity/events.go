package identity

import (
	"sync"
)

// Event names a change of the provider's session.
type Event string

const (
	EventInitialSession   Event = "INITIAL_SESSION"
	EventSignedIn         Event = "SIGNED_IN"
	EventSignedOut        Event = "SIGNED_OUT"
	EventTokenRefreshed   Event = "TOKEN_REFRESHED"
	EventUserUpdated      Event = "USER_UPDATED"
	EventPasswordRecovery Event = "PASSWORD_RECOVERY"
)

// Handler receives auth-state changes. session is nil for SIGNED_OUT.
type Handler func(event Event, session *Session)

// Subscription is returned by OnAuthStateChange.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// NewSubscription wraps cancel so it runs at most once.
func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Unsubscribe stops delivery to the handler. Calling it again is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// Broadcaster keeps an ordered handler list and delivers events to it.
// The zero value is ready to use.
type Broadcaster struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []registered
}

type registered struct {
	id uint64
	h  Handler
}

func (b *Broadcaster) Subscribe(h Handler) *Subscription {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, registered{id: id, h: h})
	b.mu.Unlock()

	return NewSubscription(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, r := range b.handlers {
			if r.id == id {
				b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
				return
			}
		}
	})
}

// Emit calls every handler in subscription order on the caller's goroutine.
func (b *Broadcaster) Emit(event Event, session *Session) {
	b.mu.Lock()
	snapshot := make([]Handler, len(b.handlers))
	for i, r := range b.handlers {
		snapshot[i] = r.h
	}
	b.mu.Unlock()

	for _, h := range snapshot {
		h(event, session)
	}
}

// Len returns the number of active handlers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

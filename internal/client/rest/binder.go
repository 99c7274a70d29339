package rest

import (
	"context"
	"sync"
)

// TokenReader is the part of the token store the binder needs.
type TokenReader interface {
	AccessToken(ctx context.Context) (string, error)
}

// Binder keeps the Authorization default header of a fixed set of client
// instances in step with the current session.
type Binder struct {
	store   TokenReader
	clients []*Client

	mu sync.Mutex
}

func NewBinder(store TokenReader, clients ...*Client) *Binder {
	return &Binder{store: store, clients: clients}
}

// SetToken sets "Bearer <token>" on every client, or removes the header from
// every client when token is empty.
func (b *Binder) SetToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.clients {
		if token == "" {
			c.ClearAuthorization()
			continue
		}
		c.SetAuthorization(token)
	}
}

// Rehydrate applies the persisted access token, if any. It reports whether a
// token was applied; when none is stored the headers are left unchanged.
func (b *Binder) Rehydrate(ctx context.Context) (bool, error) {
	token, err := b.store.AccessToken(ctx)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}
	b.SetToken(token)
	return true, nil
}

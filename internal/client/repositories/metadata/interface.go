// Package metadata is the local key/value table backing client-side state
// such as the persisted session tokens.
package metadata

import (
	"context"
)

// Repository is a small key/value store. Get returns (nil, nil) for an
// absent key; Delete and DeleteKeys succeed when keys are absent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeleteKeys(ctx context.Context, keys ...string) error
}

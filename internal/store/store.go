// Package store provides the key-value content store used for generated
// artifacts. Content is addressed by a purpose prefix plus a slug; the store
// itself is dumb string storage with no TTL and no transactions.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key is absent. Handlers map it to
// a not-found response rather than an internal error.
var ErrNotFound = errors.New("key not found")

// Purpose prefixes for content keys.
const (
	PrefixOverview     = "overview:"
	PrefixContent      = "content:"
	PrefixBookOverview = "book-overview:"
	PrefixBookOutline  = "book-outline:"
	PrefixBookFull     = "book-full:"
)

// Store is the content storage contract. Implementations are Redis in
// production and an in-memory map for tests and local development.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// Key joins a purpose prefix and a slug into a storage key.
func Key(prefix, slug string) string {
	return prefix + slug
}

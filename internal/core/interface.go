package core

import (
	"context"
	"errors"

	"github.com/snip-links/snip/internal/store"
)

// ErrServiceClosed is returned once Shutdown has been called.
var ErrServiceClosed = errors.New("redirect service is shut down")

// RedirectService defines the interface for managing redirects.
// This abstraction allows the TUI and CLI to switch between a local embedded
// store and a connection to a running server.
type RedirectService interface {
	// List returns every redirect, newest first.
	List() ([]store.Redirect, error)

	// Get looks up a single redirect.
	Get(key string) (*store.Redirect, error)

	// Create stores a redirect. An empty key is replaced by a random one.
	Create(key, url string) (*store.Redirect, error)

	// Update points an existing key at a new URL.
	Update(key, url string) (*store.Redirect, error)

	// Delete removes a redirect.
	Delete(key string) error

	// Import stores redirects in bulk, skipping existing keys.
	Import(list []store.Redirect) (int, error)

	// RandomKey suggests an unused key.
	RandomKey() (string, error)

	// StreamEvents returns a channel that receives redirect events until ctx
	// is done or the returned cleanup func is called.
	StreamEvents(ctx context.Context) (<-chan any, func(), error)

	// Publish sends a message to every event listener.
	Publish(msg any) error

	// Shutdown handles graceful shutdown of the service
	Shutdown() error
}

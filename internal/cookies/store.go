package cookies

import (
	"context"
	"errors"
)

// Common errors.
var (
	ErrStoreClosed       = errors.New("cookie store is closed")
	ErrMalformedSnapshot = errors.New("malformed cookie snapshot")
)

// Store defines the interface for cookie storage backends. Missing cookies
// are never an error: Find returns nil and the listing calls return empty
// slices.
type Store interface {
	// Find retrieves the cookie stored under exactly domain, path and key.
	Find(ctx context.Context, domain, path, key string) (*Cookie, error)

	// FindAll returns the cookies that apply to a request for domain and
	// path. An empty path selects every path of each candidate domain.
	FindAll(ctx context.Context, domain, path string, allowSpecialUse bool) ([]*Cookie, error)

	// Put stores or replaces a cookie.
	Put(ctx context.Context, cookie *Cookie) error

	// Update replaces oldCookie with newCookie. Only newCookie's location
	// is written; oldCookie is left in place if its key differs.
	Update(ctx context.Context, oldCookie, newCookie *Cookie) error

	// Remove deletes a single cookie.
	Remove(ctx context.Context, domain, path, key string) error

	// RemoveAll deletes every cookie under path for domain, or every cookie
	// for domain when path is empty.
	RemoveAll(ctx context.Context, domain, path string) error

	// RemoveEverything deletes all cookies.
	RemoveEverything(ctx context.Context) error

	// GetAll returns every cookie ordered by CreationIndex ascending.
	GetAll(ctx context.Context) ([]*Cookie, error)

	// Close closes the store.
	Close() error
}

// SnapshotStore persists snapshots somewhere outside the process.
type SnapshotStore interface {
	// Load returns the stored snapshot, or an empty one if nothing has been
	// saved yet.
	Load(ctx context.Context) (Snapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap Snapshot) error
}

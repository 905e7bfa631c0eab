// Package memory implements cookies.Store as a nested in-memory index that
// can be built from and exported to a snapshot.
//
// The store is not safe for concurrent use; the owning jar serializes access.
package memory

import (
	"context"
	"io"
	"log/slog"

	"github.com/artpar/cookiestore/internal/cookies"
	"github.com/artpar/cookiestore/internal/cookies/match"
	"github.com/davecgh/go-spew/spew"
)

// DomainPermuter expands a request domain into the domains that may own
// cookies for it. A nil or empty result means no permutation is available.
type DomainPermuter func(domain string, allowSpecialUse bool) []string

// PathMatcher reports whether a stored cookie path applies to a request path.
type PathMatcher func(requestPath, cookiePath string) bool

// Option is a function that configures the Store.
type Option func(*Store)

// WithDomainPermuter replaces the domain permutation routine.
func WithDomainPermuter(p DomainPermuter) Option {
	return func(s *Store) {
		s.permute = p
	}
}

// WithPathMatcher replaces the path matching routine.
func WithPathMatcher(m PathMatcher) Option {
	return func(s *Store) {
		s.pathMatch = m
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store implements cookies.Store over a cookies.Index.
type Store struct {
	idx       cookies.Index
	permute   DomainPermuter
	pathMatch PathMatcher
	logger    *slog.Logger
}

var _ cookies.Store = (*Store)(nil)

// New creates an empty store.
func New(opts ...Option) *Store {
	return NewFromIndex(make(cookies.Index), opts...)
}

// NewFromSnapshot rehydrates a store from a snapshot.
func NewFromSnapshot(snap cookies.Snapshot, opts ...Option) (*Store, error) {
	idx, err := snap.Index()
	if err != nil {
		return nil, err
	}
	s := NewFromIndex(idx, opts...)
	s.logger.Debug("rehydrated cookie index",
		slog.Int("domains", len(idx)),
		slog.Int("cookies", idx.Len()))
	return s, nil
}

// NewFromIndex creates a store that owns idx. The caller must not keep
// mutating idx except through the store.
func NewFromIndex(idx cookies.Index, opts ...Option) *Store {
	if idx == nil {
		idx = make(cookies.Index)
	}
	s := &Store{
		idx:       idx,
		permute:   match.PermuteDomain,
		pathMatch: match.PathMatch,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Find retrieves the cookie stored under exactly domain, path and key.
func (s *Store) Find(_ context.Context, domain, path, key string) (*cookies.Cookie, error) {
	return s.idx[domain][path][key], nil
}

// FindAll returns the cookies applicable to domain and path. Domains are
// visited in permutation order; no creation-order sort is applied.
func (s *Store) FindAll(_ context.Context, domain, path string, allowSpecialUse bool) ([]*cookies.Cookie, error) {
	results := []*cookies.Cookie{}
	if domain == "" {
		return results, nil
	}

	domains := s.permute(domain, allowSpecialUse)
	if len(domains) == 0 {
		domains = []string{domain}
	}

	for _, d := range domains {
		paths, ok := s.idx[d]
		if !ok {
			continue
		}
		for cookiePath, keys := range paths {
			if path != "" && !s.pathMatch(path, cookiePath) {
				continue
			}
			for _, c := range keys {
				results = append(results, c)
			}
		}
	}
	return results, nil
}

// Put inserts or overwrites the cookie at its domain, path and key.
func (s *Store) Put(_ context.Context, cookie *cookies.Cookie) error {
	paths, ok := s.idx[cookie.Domain]
	if !ok {
		paths = make(map[string]map[string]*cookies.Cookie)
		s.idx[cookie.Domain] = paths
	}
	keys, ok := paths[cookie.Path]
	if !ok {
		keys = make(map[string]*cookies.Cookie)
		paths[cookie.Path] = keys
	}
	keys[cookie.Key] = cookie
	return nil
}

// Update stores newCookie. oldCookie is not consulted, so a differing key
// leaves the old entry in place.
func (s *Store) Update(ctx context.Context, _, newCookie *cookies.Cookie) error {
	return s.Put(ctx, newCookie)
}

// Remove deletes a single cookie, dropping levels left empty.
func (s *Store) Remove(_ context.Context, domain, path, key string) error {
	keys, ok := s.idx[domain][path]
	if !ok {
		return nil
	}
	delete(keys, key)
	if len(keys) == 0 {
		delete(s.idx[domain], path)
	}
	if len(s.idx[domain]) == 0 {
		delete(s.idx, domain)
	}
	return nil
}

// RemoveAll deletes path under domain, or the whole domain when path is empty.
func (s *Store) RemoveAll(_ context.Context, domain, path string) error {
	paths, ok := s.idx[domain]
	if !ok {
		return nil
	}
	if path != "" {
		delete(paths, path)
		if len(paths) == 0 {
			delete(s.idx, domain)
		}
		return nil
	}
	delete(s.idx, domain)
	s.logger.Debug("removed cookie domain", slog.String("domain", domain))
	return nil
}

// RemoveEverything empties the index in place, so exported views see the
// cleared state.
func (s *Store) RemoveEverything(_ context.Context) error {
	clear(s.idx)
	return nil
}

// GetAll returns every cookie ordered by CreationIndex ascending.
func (s *Store) GetAll(_ context.Context) ([]*cookies.Cookie, error) {
	return s.idx.Cookies(), nil
}

// Export returns a shallow copy of the index. The path and key levels are
// shared with the live store.
func (s *Store) Export() cookies.Index {
	out := make(cookies.Index, len(s.idx))
	for domain, paths := range s.idx {
		out[domain] = paths
	}
	return out
}

// Snapshot serializes the whole index.
func (s *Store) Snapshot() (cookies.Snapshot, error) {
	return s.idx.Snapshot()
}

// Len returns the number of stored cookies.
func (s *Store) Len() int {
	return s.idx.Len()
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	MaxDepth:                4,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// String renders the index for diagnostics. The format is not stable.
func (s *Store) String() string {
	return "{ idx: " + dumper.Sdump(s.idx) + "}"
}

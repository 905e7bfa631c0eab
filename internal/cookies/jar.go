package cookies

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/artpar/cookiestore/internal/cookies/match"
)

// JarOption is a function that configures the Jar.
type JarOption func(*Jar)

// WithSpecialUseDomains lets cookies be shared across special-use names
// such as "localhost".
func WithSpecialUseDomains(allow bool) JarOption {
	return func(j *Jar) {
		j.allowSpecialUse = allow
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) JarOption {
	return func(j *Jar) {
		j.now = now
	}
}

// WithJarLogger sets the logger used for rejected cookies.
func WithJarLogger(logger *slog.Logger) JarOption {
	return func(j *Jar) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// Jar implements http.CookieJar on top of a Store.
type Jar struct {
	mu              sync.Mutex
	store           Store
	allowSpecialUse bool
	now             func() time.Time
	logger          *slog.Logger
	nextIndex       int64
}

var _ http.CookieJar = (*Jar)(nil)

// NewJar creates a jar backed by store. New cookies are numbered after the
// highest CreationIndex already in the store.
func NewJar(store Store, opts ...JarOption) (*Jar, error) {
	j := &Jar{
		store:  store,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(j)
	}

	existing, err := store.GetAll(context.Background())
	if err != nil {
		return nil, err
	}
	if n := len(existing); n > 0 {
		j.nextIndex = existing[n-1].CreationIndex
	}
	return j, nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if err := j.SetCookiesContext(context.Background(), u, cookies); err != nil {
		j.logger.Warn("failed to store cookies", slog.String("url", u.String()), slog.Any("error", err))
	}
}

// SetCookiesContext stores the cookies received in a response from u.
func (j *Jar) SetCookiesContext(ctx context.Context, u *url.URL, cookies []*http.Cookie) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil
	}
	host := match.Canonical(u.Hostname())
	if host == "" {
		return nil
	}

	now := j.now()
	for _, hc := range cookies {
		c := FromHTTPCookie(u, hc, now)
		if reason := j.reject(u, host, c); reason != "" {
			j.logger.Debug("rejected cookie",
				slog.String("key", c.Key),
				slog.String("domain", c.Domain),
				slog.String("reason", reason))
			continue
		}

		existing, err := j.store.Find(ctx, c.Domain, c.Path, c.Key)
		if err != nil {
			return err
		}

		if c.IsExpired(now) {
			if existing != nil {
				if err := j.store.Remove(ctx, c.Domain, c.Path, c.Key); err != nil {
					return err
				}
			}
			continue
		}

		if existing != nil {
			c.CreationIndex = existing.CreationIndex
			c.Creation = existing.Creation
			c.ID = existing.ID
			if err := j.store.Update(ctx, existing, c); err != nil {
				return err
			}
			continue
		}

		j.nextIndex++
		c.CreationIndex = j.nextIndex
		if err := j.store.Put(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (j *Jar) reject(u *url.URL, host string, c *Cookie) string {
	if c.Key == "" {
		return "empty name"
	}
	if c.Secure && u.Scheme != "https" {
		return "secure cookie from insecure origin"
	}
	if c.HostOnly {
		return ""
	}
	if !match.DomainMatch(host, c.Domain) {
		return "domain does not match host"
	}
	if match.IsPublicSuffix(c.Domain) {
		if host != c.Domain {
			return "domain is a public suffix"
		}
		// A public suffix may only set a host-only cookie for itself.
		c.HostOnly = true
	}
	return ""
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	cs, err := j.CookiesContext(context.Background(), u)
	if err != nil {
		j.logger.Warn("failed to read cookies", slog.String("url", u.String()), slog.Any("error", err))
		return nil
	}
	out := make([]*http.Cookie, 0, len(cs))
	for _, c := range cs {
		out = append(out, &http.Cookie{Name: c.Key, Value: c.Value})
	}
	return out
}

// CookiesContext returns the stored cookies to send in a request to u,
// longest path first and then oldest first (RFC 6265 section 5.4).
func (j *Jar) CookiesContext(ctx context.Context, u *url.URL) ([]*Cookie, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, nil
	}
	host := match.Canonical(u.Hostname())
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	candidates, err := j.store.FindAll(ctx, host, path, j.allowSpecialUse)
	if err != nil {
		return nil, err
	}

	now := j.now()
	secure := u.Scheme == "https"
	var selected []*Cookie
	for _, c := range candidates {
		if c.IsExpired(now) {
			continue
		}
		if c.HostOnly && c.Domain != host {
			continue
		}
		if !c.HostOnly && !match.DomainMatch(host, c.Domain) {
			continue
		}
		if c.Secure && !secure {
			continue
		}
		c.LastAccessed = now
		selected = append(selected, c)
	}

	slices.SortStableFunc(selected, func(a, b *Cookie) int {
		if len(a.Path) != len(b.Path) {
			return len(b.Path) - len(a.Path)
		}
		switch {
		case a.CreationIndex < b.CreationIndex:
			return -1
		case a.CreationIndex > b.CreationIndex:
			return 1
		}
		return 0
	})
	return selected, nil
}

// Header renders the Cookie request header for u.
func (j *Jar) Header(ctx context.Context, u *url.URL) (string, error) {
	cs, err := j.CookiesContext(ctx, u)
	if err != nil {
		return "", err
	}
	req := &http.Request{Header: make(http.Header)}
	for _, c := range cs {
		req.AddCookie(&http.Cookie{Name: c.Key, Value: c.Value})
	}
	return req.Header.Get("Cookie"), nil
}

// Clear removes all cookies.
func (j *Jar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.store.RemoveEverything(context.Background())
}

// ClearDomain removes all cookies stored for exactly domain.
func (j *Jar) ClearDomain(domain string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.store.RemoveAll(context.Background(), match.Canonical(domain), "")
}

// Cleanup removes expired cookies and returns how many were removed.
func (j *Jar) Cleanup() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	ctx := context.Background()
	all, err := j.store.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	now := j.now()
	removed := 0
	for _, c := range all {
		if !c.IsExpired(now) {
			continue
		}
		if err := j.store.Remove(ctx, c.Domain, c.Path, c.Key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Count returns the number of stored cookies.
func (j *Jar) Count() (int, error) {
	all, err := j.ListAll()
	return len(all), err
}

// ListAll returns all stored cookies, oldest first.
func (j *Jar) ListAll() ([]*Cookie, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.store.GetAll(context.Background())
}

// Store returns the underlying store (for closing).
func (j *Jar) Store() Store {
	return j.store
}

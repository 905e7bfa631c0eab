package cookies

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/artpar/cookiestore/internal/cookies/match"
)

// Cookie is a stored cookie. Domain, Path and Key locate it in a store;
// CreationIndex records insertion order. Everything else is payload the
// store passes through untouched.
type Cookie struct {
	ID            string    `json:"id,omitempty"`
	Domain        string    `json:"domain"`
	Path          string    `json:"path"`
	Key           string    `json:"key"`
	Value         string    `json:"value"`
	Expires       time.Time `json:"expires,omitzero"`
	MaxAge        int       `json:"maxAge,omitempty"`
	Secure        bool      `json:"secure,omitempty"`
	HttpOnly      bool      `json:"httpOnly,omitempty"`
	HostOnly      bool      `json:"hostOnly,omitempty"`
	SameSite      string    `json:"sameSite,omitempty"`
	Extensions    []string  `json:"extensions,omitempty"`
	Creation      time.Time `json:"creation,omitzero"`
	LastAccessed  time.Time `json:"lastAccessed,omitzero"`
	CreationIndex int64     `json:"creationIndex,omitempty"`
}

// Fields is the plain serialized form of a Cookie, as found at the leaves
// of a Snapshot.
type Fields map[string]any

// IsExpired returns true if the cookie has expired at now.
func (c *Cookie) IsExpired(now time.Time) bool {
	if c.Expires.IsZero() {
		return false // Session cookie
	}
	return !now.Before(c.Expires)
}

// IsSession returns true if this is a session cookie (no expiration).
func (c *Cookie) IsSession() bool {
	return c.Expires.IsZero()
}

// Clone returns a deep copy of the cookie.
func (c *Cookie) Clone() *Cookie {
	clone := *c
	if c.Extensions != nil {
		clone.Extensions = append([]string(nil), c.Extensions...)
	}
	return &clone
}

// String renders the cookie roughly as a Set-Cookie header would.
func (c *Cookie) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s", c.Key, c.Value)
	if !c.Expires.IsZero() {
		fmt.Fprintf(&b, "; Expires=%s", c.Expires.UTC().Format(http.TimeFormat))
	}
	if c.Domain != "" && !c.HostOnly {
		fmt.Fprintf(&b, "; Domain=%s", c.Domain)
	}
	if c.Path != "" {
		fmt.Fprintf(&b, "; Path=%s", c.Path)
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	if c.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	if c.SameSite != "" {
		fmt.Fprintf(&b, "; SameSite=%s", c.SameSite)
	}
	return b.String()
}

// Fields serializes the cookie into its plain form.
func (c *Cookie) Fields() (Fields, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize cookie %q: %w", c.Key, err)
	}
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to serialize cookie %q: %w", c.Key, err)
	}
	return f, nil
}

// FromFields reconstructs a Cookie from its plain form. The fields go
// through JSON so that values decoded from YAML or JSON behave alike.
func FromFields(f Fields) (*Cookie, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cookie fields: %w", err)
	}
	var c Cookie
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cookie fields: %w", err)
	}
	return &c, nil
}

// ToHTTPCookie converts to standard http.Cookie.
func (c *Cookie) ToHTTPCookie() *http.Cookie {
	sameSite := http.SameSiteDefaultMode
	switch strings.ToLower(c.SameSite) {
	case "lax":
		sameSite = http.SameSiteLaxMode
	case "strict":
		sameSite = http.SameSiteStrictMode
	case "none":
		sameSite = http.SameSiteNoneMode
	}

	hc := &http.Cookie{
		Name:     c.Key,
		Value:    c.Value,
		Path:     c.Path,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		SameSite: sameSite,
		Expires:  c.Expires,
	}
	if !c.HostOnly {
		hc.Domain = c.Domain
	}
	return hc
}

// FromHTTPCookie creates a Cookie from an http.Cookie received from u.
// It does not assign a CreationIndex; that is the jar's job.
func FromHTTPCookie(u *url.URL, hc *http.Cookie, now time.Time) *Cookie {
	domain := match.Canonical(hc.Domain)
	hostOnly := domain == ""
	if hostOnly {
		domain = match.Canonical(u.Hostname())
	}

	path := hc.Path
	if path == "" || path[0] != '/' {
		path = match.DefaultPath(u.EscapedPath())
	}

	sameSite := ""
	switch hc.SameSite {
	case http.SameSiteLaxMode:
		sameSite = "lax"
	case http.SameSiteStrictMode:
		sameSite = "strict"
	case http.SameSiteNoneMode:
		sameSite = "none"
	}

	// Max-Age wins over Expires
	expires := hc.Expires
	if hc.MaxAge > 0 {
		expires = now.Add(time.Duration(hc.MaxAge) * time.Second)
	} else if hc.MaxAge < 0 {
		expires = time.Unix(0, 0)
	}

	return &Cookie{
		Domain:       domain,
		Path:         path,
		Key:          hc.Name,
		Value:        hc.Value,
		Expires:      expires,
		MaxAge:       hc.MaxAge,
		Secure:       hc.Secure,
		HttpOnly:     hc.HttpOnly,
		HostOnly:     hostOnly,
		SameSite:     sameSite,
		Extensions:   hc.Unparsed,
		Creation:     now,
		LastAccessed: now,
	}
}

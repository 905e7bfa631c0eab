package cookies

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookie_IsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("session cookie never expires", func(t *testing.T) {
		c := &Cookie{}
		assert.False(t, c.IsExpired(now))
		assert.True(t, c.IsSession())
	})

	t.Run("future expiry", func(t *testing.T) {
		c := &Cookie{Expires: now.Add(time.Hour)}
		assert.False(t, c.IsExpired(now))
		assert.False(t, c.IsSession())
	})

	t.Run("past expiry", func(t *testing.T) {
		c := &Cookie{Expires: now.Add(-time.Second)}
		assert.True(t, c.IsExpired(now))
	})

	t.Run("expiry equal to now", func(t *testing.T) {
		c := &Cookie{Expires: now}
		assert.True(t, c.IsExpired(now))
	})
}

func TestCookie_Clone(t *testing.T) {
	c := &Cookie{Key: "a", Extensions: []string{"Priority=High"}}
	clone := c.Clone()
	clone.Extensions[0] = "changed"
	clone.Value = "x"

	assert.Equal(t, "Priority=High", c.Extensions[0])
	assert.Empty(t, c.Value)
}

func TestCookie_String(t *testing.T) {
	c := &Cookie{
		Domain:   "example.com",
		Path:     "/",
		Key:      "session",
		Value:    "abc",
		Secure:   true,
		HttpOnly: true,
		SameSite: "lax",
	}
	assert.Equal(t, "session=abc; Domain=example.com; Path=/; Secure; HttpOnly; SameSite=lax", c.String())

	c.HostOnly = true
	assert.NotContains(t, c.String(), "Domain=")
}

func TestCookie_FieldsRoundTrip(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &Cookie{
		Domain:        "example.com",
		Path:          "/api",
		Key:           "token",
		Value:         "xyz",
		Expires:       created.Add(48 * time.Hour),
		Secure:        true,
		HostOnly:      true,
		SameSite:      "strict",
		Extensions:    []string{"Partitioned"},
		Creation:      created,
		CreationIndex: 42,
	}

	f, err := c.Fields()
	require.NoError(t, err)
	assert.Equal(t, "token", f["key"])
	assert.Equal(t, "/api", f["path"])
	assert.NotContains(t, f, "lastAccessed")

	back, err := FromFields(f)
	require.NoError(t, err)
	assert.Equal(t, c.Key, back.Key)
	assert.Equal(t, c.CreationIndex, back.CreationIndex)
	assert.True(t, c.Expires.Equal(back.Expires))
	assert.True(t, c.Creation.Equal(back.Creation))
	assert.Equal(t, c.Extensions, back.Extensions)
	assert.True(t, back.HostOnly)
}

func TestFromFields_Errors(t *testing.T) {
	_, err := FromFields(Fields{"expires": "not a time"})
	assert.Error(t, err)

	_, err = FromFields(Fields{"secure": make(chan int)})
	assert.Error(t, err)
}

func TestFromHTTPCookie(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	u, _ := url.Parse("https://www.example.com/docs/page")

	t.Run("host-only defaults", func(t *testing.T) {
		c := FromHTTPCookie(u, &http.Cookie{Name: "a", Value: "1"}, now)
		assert.Equal(t, "www.example.com", c.Domain)
		assert.True(t, c.HostOnly)
		assert.Equal(t, "/docs", c.Path)
		assert.Equal(t, now, c.Creation)
		assert.True(t, c.IsSession())
	})

	t.Run("domain attribute strips leading dot", func(t *testing.T) {
		c := FromHTTPCookie(u, &http.Cookie{Name: "a", Domain: ".Example.com", Path: "/"}, now)
		assert.Equal(t, "example.com", c.Domain)
		assert.False(t, c.HostOnly)
		assert.Equal(t, "/", c.Path)
	})

	t.Run("max-age wins over expires", func(t *testing.T) {
		c := FromHTTPCookie(u, &http.Cookie{Name: "a", MaxAge: 60, Expires: now.Add(time.Hour)}, now)
		assert.Equal(t, now.Add(time.Minute), c.Expires)
	})

	t.Run("negative max-age expires immediately", func(t *testing.T) {
		c := FromHTTPCookie(u, &http.Cookie{Name: "a", MaxAge: -1}, now)
		assert.True(t, c.IsExpired(now))
	})

	t.Run("same-site mapping", func(t *testing.T) {
		c := FromHTTPCookie(u, &http.Cookie{Name: "a", SameSite: http.SameSiteStrictMode}, now)
		assert.Equal(t, "strict", c.SameSite)
	})
}

func TestCookie_ToHTTPCookie(t *testing.T) {
	c := &Cookie{Domain: "example.com", Path: "/", Key: "a", Value: "1", SameSite: "none", Secure: true}
	hc := c.ToHTTPCookie()
	assert.Equal(t, "a", hc.Name)
	assert.Equal(t, "example.com", hc.Domain)
	assert.Equal(t, http.SameSiteNoneMode, hc.SameSite)

	c.HostOnly = true
	assert.Empty(t, c.ToHTTPCookie().Domain)
}

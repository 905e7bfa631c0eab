package cookies

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests runs the standard store test suite against any Store implementation.
// Use this to verify that a Store implementation correctly implements the interface.
func RunStoreTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("Find", func(t *testing.T) {
		runFindTests(t, newStore)
	})
	t.Run("FindAll", func(t *testing.T) {
		runFindAllTests(t, newStore)
	})
	t.Run("Update", func(t *testing.T) {
		runUpdateTests(t, newStore)
	})
	t.Run("Remove", func(t *testing.T) {
		runRemoveTests(t, newStore)
	})
	t.Run("GetAll", func(t *testing.T) {
		runGetAllTests(t, newStore)
	})
}

func testCookie(domain, path, key string, creationIndex int64) *Cookie {
	return &Cookie{
		Domain:        domain,
		Path:          path,
		Key:           key,
		Value:         key + "-value",
		CreationIndex: creationIndex,
	}
}

func cookieKeys(cs []*Cookie) []string {
	keys := make([]string, 0, len(cs))
	for _, c := range cs {
		keys = append(keys, c.Key)
	}
	return keys
}

func runFindTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("returns the latest put", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, testCookie("example.com", "/", "a", 1)))
		second := testCookie("example.com", "/", "a", 1)
		second.Value = "second"
		require.NoError(t, store.Put(ctx, second))

		got, err := store.Find(ctx, "example.com", "/", "a")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "second", got.Value)
	})

	t.Run("missing cookie is nil without error", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		got, err := store.Find(context.Background(), "example.com", "/", "missing")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func runFindAllTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("matches ancestor paths", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, testCookie("example.com", "/", "a", 1)))
		require.NoError(t, store.Put(ctx, testCookie("example.com", "/x", "b", 2)))

		got, err := store.FindAll(ctx, "example.com", "/x", false)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, cookieKeys(got))

		got, err = store.FindAll(ctx, "example.com", "/y", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, cookieKeys(got))
	})

	t.Run("parent domains come first", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, testCookie("www.example.com", "/", "child", 1)))
		require.NoError(t, store.Put(ctx, testCookie("example.com", "/", "parent", 2)))
		require.NoError(t, store.Put(ctx, testCookie("elsewhere.com", "/", "other", 3)))

		got, err := store.FindAll(ctx, "www.example.com", "", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"parent", "child"}, cookieKeys(got))
	})

	t.Run("empty domain is empty", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		got, err := store.FindAll(context.Background(), "", "/", false)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func runUpdateTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("different key keeps old entry", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		old := testCookie("example.com", "/", "a", 1)
		require.NoError(t, store.Put(ctx, old))
		require.NoError(t, store.Update(ctx, old, testCookie("example.com", "/", "b", 2)))

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, cookieKeys(all))
	})
}

func runRemoveTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("domain removal leaves other domains", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, testCookie("example.com", "/", "a", 1)))
		require.NoError(t, store.Put(ctx, testCookie("other.com", "/", "b", 2)))
		require.NoError(t, store.RemoveAll(ctx, "example.com", ""))

		got, err := store.FindAll(ctx, "example.com", "/", false)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = store.FindAll(ctx, "other.com", "/", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, cookieKeys(got))
	})

	t.Run("missing entries are a no-op", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		assert.NoError(t, store.Remove(ctx, "nowhere.com", "/", "a"))
		assert.NoError(t, store.RemoveAll(ctx, "nowhere.com", ""))
	})

	t.Run("store usable after removing everything", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, testCookie("example.com", "/", "a", 1)))
		require.NoError(t, store.RemoveEverything(ctx))

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		require.NoError(t, store.Put(ctx, testCookie("example.com", "/", "b", 2)))
		all, err = store.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func runGetAllTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("sorted by creation index", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, testCookie("c.com", "/", "third", 3)))
		require.NoError(t, store.Put(ctx, testCookie("a.com", "/", "first", 1)))
		require.NoError(t, store.Put(ctx, testCookie("b.com", "/", "zero", 0)))
		require.NoError(t, store.Put(ctx, testCookie("b.com", "/x", "second", 2)))

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"zero", "first", "second", "third"}, cookieKeys(all))
	})
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/cookiestore/internal/cookies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_PutAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cookie := &cookies.Cookie{
		Domain:        "example.com",
		Path:          "/",
		Key:           "session",
		Value:         "abc123",
		Secure:        true,
		HttpOnly:      true,
		SameSite:      "strict",
		Expires:       time.Now().Add(24 * time.Hour),
		Extensions:    []string{"Partitioned"},
		CreationIndex: 3,
	}

	// Put cookie
	err := store.Put(ctx, cookie)
	require.NoError(t, err)
	assert.NotEmpty(t, cookie.ID)

	// Find cookie
	got, err := store.Find(ctx, "example.com", "/", "session")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "session", got.Key)
	assert.Equal(t, "abc123", got.Value)
	assert.True(t, got.Secure)
	assert.True(t, got.HttpOnly)
	assert.Equal(t, "strict", got.SameSite)
	assert.Equal(t, []string{"Partitioned"}, got.Extensions)
	assert.Equal(t, int64(3), got.CreationIndex)
	assert.Equal(t, cookie.ID, got.ID)
}

func TestStore_PutUpdates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Put initial cookie
	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "example.com", Path: "/", Key: "test", Value: "initial"}))
	first, err := store.Find(ctx, "example.com", "/", "test")
	require.NoError(t, err)

	// Update with same domain/path/key
	require.NoError(t, store.Update(ctx, first, &cookies.Cookie{Domain: "example.com", Path: "/", Key: "test", Value: "updated"}))

	got, err := store.Find(ctx, "example.com", "/", "test")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Value)
	assert.Equal(t, first.ID, got.ID)

	// Should only have one cookie
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_FindNotFound(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Find(context.Background(), "nonexistent.com", "/", "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_FindAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "example.com", Path: "/", Key: "a", Value: "1", CreationIndex: 1}))
	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "example.com", Path: "/x", Key: "b", Value: "2", CreationIndex: 2}))
	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "www.example.com", Path: "/", Key: "c", Value: "3", CreationIndex: 3}))
	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "other.com", Path: "/", Key: "d", Value: "4", CreationIndex: 4}))

	keys := func(cs []*cookies.Cookie) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Key)
		}
		return out
	}

	got, err := store.FindAll(ctx, "example.com", "/x", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys(got))

	got, err = store.FindAll(ctx, "example.com", "/y", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys(got))

	// Parent domain before subdomain
	got, err = store.FindAll(ctx, "www.example.com", "", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys(got))

	got, err = store.FindAll(ctx, "", "/", false)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Remove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "test.com", Path: "/", Key: "c1", Value: "v1"}))

	require.NoError(t, store.Remove(ctx, "test.com", "/", "c1"))
	require.NoError(t, store.Remove(ctx, "test.com", "/", "never-existed"))

	got, err := store.Find(ctx, "test.com", "/", "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_RemoveAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "a.com", Path: "/", Key: "c1", Value: "v1"}))
	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "a.com", Path: "/api", Key: "c2", Value: "v2"}))
	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "b.com", Path: "/", Key: "c3", Value: "v3"}))

	// Remove one path
	require.NoError(t, store.RemoveAll(ctx, "a.com", "/api"))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Remove domain
	require.NoError(t, store.RemoveAll(ctx, "a.com", ""))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// b.com cookie should remain
	got, err := store.Find(ctx, "b.com", "/", "c3")
	require.NoError(t, err)
	assert.Equal(t, "v3", got.Value)
}

func TestStore_RemoveEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "a.com", Path: "/", Key: "c1", Value: "v1"}))
	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "b.com", Path: "/", Key: "c2", Value: "v2"}))

	require.NoError(t, store.RemoveEverything(ctx))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// Still usable
	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "a.com", Path: "/", Key: "c3", Value: "v3"}))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_GetAllOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "z.com", Path: "/", Key: "third", CreationIndex: 30}))
	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "a.com", Path: "/", Key: "first", CreationIndex: 10}))
	require.NoError(t, store.Put(ctx, &cookies.Cookie{Domain: "m.com", Path: "/", Key: "second", CreationIndex: 20}))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Key)
	assert.Equal(t, "second", all[1].Key)
	assert.Equal(t, "third", all[2].Key)
}

func TestStore_SnapshotAndImport(t *testing.T) {
	ctx := context.Background()
	source := newTestStore(t)

	expires := time.Date(2031, 5, 6, 7, 8, 9, 0, time.UTC)
	require.NoError(t, source.Put(ctx, &cookies.Cookie{Domain: "a.com", Path: "/", Key: "k1", Value: "v1", Expires: expires, CreationIndex: 1}))
	require.NoError(t, source.Put(ctx, &cookies.Cookie{Domain: "a.com", Path: "/p", Key: "k2", Value: "v2", CreationIndex: 2}))

	snap, err := source.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())

	target := newTestStore(t)
	require.NoError(t, target.Import(ctx, snap))

	got, err := target.Find(ctx, "a.com", "/", "k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v1", got.Value)
	assert.True(t, expires.Equal(got.Expires))

	all, err := target.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_ImportMalformed(t *testing.T) {
	store := newTestStore(t)

	err := store.Import(context.Background(), cookies.Snapshot{"a.com": {"/": {"k": nil}}})
	assert.ErrorIs(t, err, cookies.ErrMalformedSnapshot)
}

func TestStore_ClosedStore(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)

	// Close the store
	require.NoError(t, store.Close())
	// Closing twice is fine
	require.NoError(t, store.Close())

	ctx := context.Background()

	// All operations should return ErrStoreClosed
	_, err = store.Find(ctx, "test.com", "/", "test")
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	_, err = store.FindAll(ctx, "test.com", "/", false)
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	err = store.Put(ctx, &cookies.Cookie{Domain: "test.com", Path: "/", Key: "test", Value: "v"})
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	err = store.Remove(ctx, "test.com", "/", "test")
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	err = store.RemoveAll(ctx, "test.com", "")
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	err = store.RemoveEverything(ctx)
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	_, err = store.GetAll(ctx)
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	_, err = store.Count(ctx)
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)
}

func TestHelperFunctions(t *testing.T) {
	assert.Equal(t, 1, boolToInt(true))
	assert.Equal(t, 0, boolToInt(false))

	now := time.Now()
	assert.Equal(t, now, nullTime(now))
	assert.Nil(t, nullTime(time.Time{}))
}

func TestStore_NewWithFilePath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cookies.db")

	store, err := New(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	err = store.Put(ctx, &cookies.Cookie{
		Domain: "test.com",
		Path:   "/",
		Key:    "session",
		Value:  "abc123",
	})
	require.NoError(t, err)

	// Close and reopen to verify persistence
	require.NoError(t, store.Close())

	store2, err := New(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	got, err := store2.Find(ctx, "test.com", "/", "session")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc123", got.Value)
}

func TestStore_Conformance(t *testing.T) {
	cookies.RunStoreTests(t, func() (cookies.Store, func()) {
		store, err := NewInMemory()
		require.NoError(t, err)
		return store, func() { store.Close() }
	})
}

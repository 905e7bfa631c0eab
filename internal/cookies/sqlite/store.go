// Package sqlite implements cookies.Store on SQLite, answering queries with
// the same domain and path matching as the in-memory index.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/artpar/cookiestore/internal/cookies"
	"github.com/artpar/cookiestore/internal/cookies/match"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store implements cookies.Store using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

var _ cookies.Store = (*Store)(nil)

// New creates a new SQLite-based cookie store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cookie database: %w", err)
	}

	return store, nil
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables and indexes.
func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS cookies (
			id TEXT PRIMARY KEY,
			domain TEXT NOT NULL,
			path TEXT NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			secure INTEGER NOT NULL DEFAULT 0,
			http_only INTEGER NOT NULL DEFAULT 0,
			host_only INTEGER NOT NULL DEFAULT 0,
			same_site TEXT,
			max_age INTEGER NOT NULL DEFAULT 0,
			extensions TEXT,
			expires DATETIME,
			creation DATETIME,
			last_accessed DATETIME,
			creation_index INTEGER NOT NULL DEFAULT 0,
			UNIQUE(domain, path, name)
		);

		CREATE INDEX IF NOT EXISTS idx_cookies_domain ON cookies(domain);
		CREATE INDEX IF NOT EXISTS idx_cookies_creation_index ON cookies(creation_index);
	`

	_, err := s.db.Exec(schema)
	return err
}

const columns = `id, domain, path, name, value, secure, http_only, host_only, same_site,
	max_age, extensions, expires, creation, last_accessed, creation_index`

// Find retrieves a cookie by domain, path, and key. It returns nil when no
// such cookie exists.
func (s *Store) Find(ctx context.Context, domain, path, key string) (*cookies.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+columns+`
		FROM cookies
		WHERE domain = ? AND path = ? AND name = ?
	`, domain, path, key)

	c, err := scanCookie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// FindAll returns cookies applicable to domain and path, grouped by
// candidate domain in permutation order.
func (s *Store) FindAll(ctx context.Context, domain, path string, allowSpecialUse bool) ([]*cookies.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	results := []*cookies.Cookie{}
	if domain == "" {
		return results, nil
	}

	domains := match.PermuteDomain(domain, allowSpecialUse)
	if len(domains) == 0 {
		domains = []string{domain}
	}

	for _, d := range domains {
		rows, err := s.db.QueryContext(ctx, `SELECT `+columns+`
			FROM cookies
			WHERE domain = ?
			ORDER BY path, name
		`, d)
		if err != nil {
			return nil, err
		}
		found, err := scanCookies(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}

		for _, c := range found {
			if path != "" && !match.PathMatch(path, c.Path) {
				continue
			}
			results = append(results, c)
		}
	}
	return results, nil
}

// Put stores or replaces a cookie. A replaced row keeps its id.
func (s *Store) Put(ctx context.Context, cookie *cookies.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}
	return s.put(ctx, s.db, cookie)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) put(ctx context.Context, db execer, cookie *cookies.Cookie) error {
	if cookie.ID == "" {
		cookie.ID = uuid.New().String()
	}

	var extensions any
	if len(cookie.Extensions) > 0 {
		data, err := json.Marshal(cookie.Extensions)
		if err != nil {
			return err
		}
		extensions = string(data)
	}

	// Use INSERT OR REPLACE for upsert behavior
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cookies (`+columns+`)
		VALUES (
			COALESCE((SELECT id FROM cookies WHERE domain = ? AND path = ? AND name = ?), ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`,
		cookie.Domain, cookie.Path, cookie.Key, cookie.ID,
		cookie.Domain, cookie.Path, cookie.Key, cookie.Value,
		boolToInt(cookie.Secure), boolToInt(cookie.HttpOnly), boolToInt(cookie.HostOnly),
		cookie.SameSite, cookie.MaxAge, extensions,
		nullTime(cookie.Expires), nullTime(cookie.Creation), nullTime(cookie.LastAccessed),
		cookie.CreationIndex,
	)
	return err
}

// Update stores newCookie; oldCookie is not consulted.
func (s *Store) Update(ctx context.Context, _, newCookie *cookies.Cookie) error {
	return s.Put(ctx, newCookie)
}

// Remove deletes a specific cookie.
func (s *Store) Remove(ctx context.Context, domain, path, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cookies WHERE domain = ? AND path = ? AND name = ?
	`, domain, path, key)
	return err
}

// RemoveAll removes all cookies for a domain, or for one path of it.
func (s *Store) RemoveAll(ctx context.Context, domain, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	var err error
	if path != "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM cookies WHERE domain = ? AND path = ?`, domain, path)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM cookies WHERE domain = ?`, domain)
	}
	return err
}

// RemoveEverything removes all cookies.
func (s *Store) RemoveEverything(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM cookies`)
	return err
}

// GetAll returns every cookie ordered by creation index.
func (s *Store) GetAll(ctx context.Context) ([]*cookies.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM cookies ORDER BY creation_index, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, err := scanCookies(rows)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []*cookies.Cookie{}
	}
	return result, nil
}

// Count returns total number of cookies.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, cookies.ErrStoreClosed
	}

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cookies`).Scan(&count)
	return count, err
}

// Snapshot exports the whole table.
func (s *Store) Snapshot(ctx context.Context) (cookies.Snapshot, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	idx := make(cookies.Index)
	for _, c := range all {
		if idx[c.Domain] == nil {
			idx[c.Domain] = make(map[string]map[string]*cookies.Cookie)
		}
		if idx[c.Domain][c.Path] == nil {
			idx[c.Domain][c.Path] = make(map[string]*cookies.Cookie)
		}
		idx[c.Domain][c.Path][c.Key] = c
	}
	return idx.Snapshot()
}

// Import loads every cookie of snap in a single transaction.
func (s *Store) Import(ctx context.Context, snap cookies.Snapshot) error {
	idx, err := snap.Index()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, c := range idx.Cookies() {
		if err := s.put(ctx, tx, c); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to import cookie %s: %w", c.Key, err)
		}
	}
	return tx.Commit()
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// Helper functions

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCookie(row scannable) (*cookies.Cookie, error) {
	var c cookies.Cookie
	var secure, httpOnly, hostOnly int
	var sameSite, extensions sql.NullString
	var expires, creation, lastAccessed sql.NullTime

	err := row.Scan(
		&c.ID, &c.Domain, &c.Path, &c.Key, &c.Value,
		&secure, &httpOnly, &hostOnly, &sameSite,
		&c.MaxAge, &extensions, &expires, &creation, &lastAccessed,
		&c.CreationIndex,
	)
	if err != nil {
		return nil, err
	}

	c.Secure = secure != 0
	c.HttpOnly = httpOnly != 0
	c.HostOnly = hostOnly != 0
	c.SameSite = sameSite.String
	if extensions.Valid && strings.TrimSpace(extensions.String) != "" {
		if err := json.Unmarshal([]byte(extensions.String), &c.Extensions); err != nil {
			return nil, fmt.Errorf("failed to decode extensions of cookie %s: %w", c.Key, err)
		}
	}
	if expires.Valid {
		c.Expires = expires.Time
	}
	if creation.Valid {
		c.Creation = creation.Time
	}
	if lastAccessed.Valid {
		c.LastAccessed = lastAccessed.Time
	}

	return &c, nil
}

func scanCookies(rows *sql.Rows) ([]*cookies.Cookie, error) {
	var result []*cookies.Cookie
	for rows.Next() {
		c, err := scanCookie(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/artpar/cookiestore/internal/config"
	"github.com/artpar/cookiestore/internal/cookies"
	"github.com/artpar/cookiestore/internal/cookies/memory"
	"github.com/artpar/cookiestore/internal/cookies/sqlite"
	"github.com/artpar/cookiestore/internal/storage/filesystem"
	redisstore "github.com/artpar/cookiestore/internal/storage/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

// session is an opened store plus everything needed to persist it again.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  cookies.Store
	memory *memory.Store // set for the memory backend
	sqlite *sqlite.Store // set for the sqlite backend
	sink   cookies.SnapshotStore
	rdb    *redis.Client
}

func resolveConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = filepath.Join(config.DefaultDir(), "config.yaml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.Snapshot != "" {
		cfg.Snapshot = opts.Snapshot
		// An explicit snapshot file wins over a configured redis sink.
		cfg.Redis.Addr = ""
	}
	if opts.Database != "" {
		cfg.SQLite = opts.Database
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSession(ctx context.Context, opts *RootOptions, logOut io.Writer) (*session, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	s := &session{cfg: cfg, logger: logger}

	if cfg.Backend == config.BackendSQLite {
		store, err := sqlite.New(cfg.SQLite)
		if err != nil {
			return nil, err
		}
		s.sqlite = store
		s.store = store
		logger.Debug("opened sqlite backend", slog.String("path", cfg.SQLite))
		return s, nil
	}

	if cfg.Redis.Addr != "" {
		s.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sink := redisstore.NewSnapshotStore(s.rdb, redisstore.WithKey(cfg.Redis.Key))

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := sink.Ping(pingCtx)
		cancel()
		if err != nil {
			s.rdb.Close()
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		s.sink = sink
		logger.Debug("using redis snapshot", slog.String("addr", cfg.Redis.Addr), slog.String("key", sink.Key()))
	} else {
		s.sink = filesystem.NewSnapshotStore(afero.NewOsFs(), cfg.Snapshot)
		logger.Debug("using snapshot file", slog.String("path", cfg.Snapshot))
	}

	snap, err := s.sink.Load(ctx)
	if err != nil {
		s.close()
		return nil, err
	}

	mem, err := memory.NewFromSnapshot(snap, memory.WithLogger(logger))
	if err != nil {
		s.close()
		return nil, err
	}
	s.memory = mem
	s.store = mem
	return s, nil
}

func (s *session) jar() (*cookies.Jar, error) {
	return cookies.NewJar(s.store,
		cookies.WithSpecialUseDomains(s.cfg.AllowSpecialUseDomains),
		cookies.WithJarLogger(s.logger),
	)
}

// snapshot exports the current contents of either backend.
func (s *session) snapshot(ctx context.Context) (cookies.Snapshot, error) {
	if s.sqlite != nil {
		return s.sqlite.Snapshot(ctx)
	}
	return s.memory.Export().Snapshot()
}

// commit persists changes made through the memory backend. The sqlite
// backend writes through on every call.
func (s *session) commit(ctx context.Context) error {
	if s.memory == nil {
		return nil
	}
	snap, err := s.memory.Snapshot()
	if err != nil {
		return err
	}
	if err := s.sink.Save(ctx, snap); err != nil {
		return err
	}
	s.logger.Debug("saved snapshot", slog.Int("cookies", snap.Len()))
	return nil
}

func (s *session) close() error {
	var err error
	if s.store != nil {
		err = s.store.Close()
	}
	if s.rdb != nil {
		if cerr := s.rdb.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// withSession opens a session, runs fn and closes the session again.
func withSession(ctx context.Context, opts *RootOptions, logOut io.Writer, fn func(*session) error) error {
	s, err := openSession(ctx, opts, logOut)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}

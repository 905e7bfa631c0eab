package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "cookies.json", filepath.Base(cfg.Snapshot))
	assert.Equal(t, "cookies.db", filepath.Base(cfg.SQLite))
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("empty path uses defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, BackendMemory, cfg.Backend)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `backend: sqlite
sqlite: /tmp/jar.db
allow_special_use_domains: true
log_level: debug
redis:
  addr: localhost:6379
  db: 2
  key: jar
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, BackendSQLite, cfg.Backend)
		assert.Equal(t, "/tmp/jar.db", cfg.SQLite)
		assert.True(t, cfg.AllowSpecialUseDomains)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, 2, cfg.Redis.DB)
		assert.Equal(t, "jar", cfg.Redis.Key)
		// Unset fields keep their defaults
		assert.Equal(t, Default().Snapshot, cfg.Snapshot)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0644))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid backend", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("backend: postgres\n"), 0644))

		_, err := Load(path)
		assert.ErrorContains(t, err, "unknown backend")
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Snapshot = ""
	assert.Error(t, cfg.Validate())

	cfg.Redis.Addr = "localhost:6379"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Backend = BackendSQLite
	cfg.SQLite = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults without file or env", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, "MAIN", cfg.DefaultBranch)
		assert.Equal(t, 10*time.Minute, cfg.TermCacheTTL)
	})

	t.Run("yaml file overlays defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
kafka:
  brokers: ["localhost:9092"]
term_cache_ttl: 1m
`), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, time.Minute, cfg.TermCacheTTL)
		assert.Equal(t, "mrcm.audit", cfg.Kafka.Topic)
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600))
		t.Setenv("MRCM_ADDR", ":7070")
		t.Setenv("MRCM_ADMIN_TOKEN", "secret")
		t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Server.Addr)
		assert.Equal(t, "secret", cfg.Server.AdminToken)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Setenv("TERM_CACHE_TTL", "soon")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TERM_CACHE_TTL")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

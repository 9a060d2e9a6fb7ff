package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "ENV", "READ_TIMEOUT", "WRITE_TIMEOUT", "LOG_LEVEL", "CORS_ORIGIN",
		"PUMP_INTERVAL_MS", "QUEUE_SIZE", "JOURNAL_PATH", "PARTS_DIR", "FASTENERS_ENABLED",
	} {
		if value, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { _ = os.Setenv(key, value) })
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9875", cfg.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.PumpInterval())
	assert.Equal(t, 64, cfg.QueueSize)
	assert.Equal(t, "data/db/journal.db", cfg.JournalPath)
	assert.True(t, cfg.FastenersEnabled)
}

func TestLoadLayersFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
pump_interval_ms: 100
parts_dir: /srv/parts
fasteners_enabled: false
journal_path: ""
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7100")
	t.Setenv("QUEUE_SIZE", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7100", cfg.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.PumpInterval())
	assert.Equal(t, 8, cfg.QueueSize)
	assert.Equal(t, "/srv/parts", cfg.PartsDir)
	assert.False(t, cfg.FastenersEnabled)
	assert.Empty(t, cfg.JournalPath)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PUMP_INTERVAL_MS", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PUMP_INTERVAL_MS", "")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "oxycs", cfg.Bot)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.Strict)
	assert.False(t, cfg.Slack.Enabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "tagbot.yaml", `
bot: officehours
strict: true
session_ttl: 90m
redis:
  addr: redis:6379
  lock: true
slack:
  token: from-file
`)
	t.Setenv("TAGBOT_SLACK_TOKEN", "from-env")
	t.Setenv("TAGBOT_REDIS_DB", "2")
	t.Setenv("TAGBOT_STORE", "redis")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "officehours", cfg.Bot)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Lock)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "from-env", cfg.Slack.Token)
	assert.True(t, cfg.Slack.Enabled())
	// Untouched nested defaults survive the merge.
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_EncryptionKeys(t *testing.T) {
	path := writeFile(t, "tagbot.yaml", `
encryption:
  fallback_keys: [old1]
`)
	t.Setenv("TAGBOT_ENCRYPTION_KEY", "active")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "active", cfg.Encryption.Key)
	assert.Equal(t, []string{"old1"}, cfg.Encryption.FallbackKeys)

	t.Setenv("TAGBOT_ENCRYPTION_FALLBACK_KEYS", "a,b")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.Encryption.FallbackKeys)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Unknown Key", "colour: blue\n"},
		{"Unknown Store", "store: etcd\n"},
		{"Postgres Without DSN", "store: postgres\n"},
		{"Bad Level", "log_level: loud\n"},
		{"Bad Format", "log_format: xml\n"},
		{"Bad Duration", "session_ttl: soon\n"},
		{"Malformed YAML", "bot: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", tt.content))
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))

	t.Setenv("TAGBOT_BOT", "")
	os.Unsetenv("TAGBOT_BOT")
	t.Setenv("TAGBOT_LOG_LEVEL", "warn")

	path := writeFile(t, ".env", "TAGBOT_BOT=officehours\nTAGBOT_LOG_LEVEL=debug\n")
	require.NoError(t, LoadEnvFile(path))
	t.Cleanup(func() { os.Unsetenv("TAGBOT_BOT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "officehours", cfg.Bot)
	// Variables already set win over the file.
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestApplyEnv(t *testing.T) {
	raw := map[string]any{"http": map[string]any{"addr": ":1"}, "bot": "x"}
	env := map[string]string{"TAGBOT_HTTP_ADDR": ":2"}
	applyEnv(raw, "", func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, ":2", raw["http"].(map[string]any)["addr"])
	assert.Equal(t, "x", raw["bot"])
}

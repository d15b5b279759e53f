// Package config loads the tagbot configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// TAGBOT_* environment variables (optionally read from a .env file). Nested
// keys map to environment names by joining with underscores, so redis.addr
// becomes TAGBOT_REDIS_ADDR.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tagbot/internal/logging"
	"github.com/aretw0/tagbot/pkg/domain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TAGBOT_"

// Store kinds.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config is the process configuration.
type Config struct {
	Bot         string        `mapstructure:"bot"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
	LexiconPath string        `mapstructure:"lexicon_path"`
	TagsFile    string        `mapstructure:"tags_file"`
	Strict      bool          `mapstructure:"strict"`
	Store       string        `mapstructure:"store"`
	SessionDir  string        `mapstructure:"session_dir"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`

	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Slack    SlackConfig    `mapstructure:"slack"`

	Encryption EncryptionConfig `mapstructure:"encryption"`
}

// RedisConfig configures the Redis store, lock and lexicon source.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	// LexiconKey, when set, loads the flagged-word list from this Redis SET.
	LexiconKey string `mapstructure:"lexicon_key"`
	// Lock serializes conversations across replicas.
	Lock bool `mapstructure:"lock"`
}

// PostgresConfig configures the PostgreSQL store.
type PostgresConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// SlackConfig configures the Slack adapter. An empty token disables it.
type SlackConfig struct {
	Token         string `mapstructure:"token"`
	SigningSecret string `mapstructure:"signing_secret"`
	BotID         string `mapstructure:"bot_id"`
}

// EncryptionConfig seals stored snapshots. An empty key disables it.
// Keys are 32 bytes, hex or base64 encoded.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// Enabled reports whether Slack is configured.
func (s SlackConfig) Enabled() bool {
	return s.Token != ""
}

// Defaults returns the built-in configuration as a raw map.
func Defaults() map[string]any {
	return map[string]any{
		"bot":          "oxycs",
		"log_level":    "info",
		"log_format":   string(logging.FormatText),
		"lexicon_path": "",
		"tags_file":    "",
		"strict":       false,
		"store":        StoreMemory,
		"session_dir":  "",
		"session_ttl":  "24h",
		"redis": map[string]any{
			"addr":        "localhost:6379",
			"password":    "",
			"db":          0,
			"prefix":      "",
			"lexicon_key": "",
			"lock":        false,
		},
		"postgres": map[string]any{
			"dsn":   "",
			"table": "tagbot_sessions",
		},
		"http": map[string]any{
			"addr": ":8080",
		},
		"slack": map[string]any{
			"token":          "",
			"signing_secret": "",
			"bot_id":         "",
		},
		"encryption": map[string]any{
			"key":           "",
			"fallback_keys": []any{},
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path
// (skipped when path is empty) and the environment.
func Load(path string) (*Config, error) {
	raw := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		var file map[string]any
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: config %s: %v", domain.ErrConfiguration, path, err)
		}
		merge(raw, file)
	}

	applyEnv(raw, "", os.LookupEnv)

	cfg, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile exports the variables of a dotenv file without overriding
// variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Validate checks values that cannot be expressed as types.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("%w: store postgres needs postgres.dsn", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown store %q (want memory, file, redis or postgres)", domain.ErrConfiguration, c.Store)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	switch logging.Format(c.LogFormat) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: unknown log format %q", domain.ErrConfiguration, c.LogFormat)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("%w: negative session_ttl", domain.ErrConfiguration)
	}
	return nil
}

func decode(raw map[string]any) (*Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return &cfg, nil
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// applyEnv overrides every known key that has a matching environment variable.
func applyEnv(raw map[string]any, prefix string, lookup func(string) (string, bool)) {
	for k, v := range raw {
		name := prefix + strings.ToUpper(k)
		if sub, ok := v.(map[string]any); ok {
			applyEnv(sub, name+"_", lookup)
			continue
		}
		if val, ok := lookup(EnvPrefix + name); ok {
			raw[k] = val
		}
	}
}

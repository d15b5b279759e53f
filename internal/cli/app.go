package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/tagbot"
	"github.com/aretw0/tagbot/internal/config"
	"github.com/aretw0/tagbot/internal/logging"
	"github.com/aretw0/tagbot/pkg/adapters/file"
	"github.com/aretw0/tagbot/pkg/adapters/memory"
	"github.com/aretw0/tagbot/pkg/adapters/postgres"
	redisadapter "github.com/aretw0/tagbot/pkg/adapters/redis"
	"github.com/aretw0/tagbot/pkg/bots"
	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/lexicon"
	"github.com/aretw0/tagbot/pkg/observability"
	"github.com/aretw0/tagbot/pkg/persistence/middleware"
	"github.com/aretw0/tagbot/pkg/ports"
	"github.com/aretw0/tagbot/pkg/registry"
	"github.com/aretw0/tagbot/pkg/session"
	"github.com/aretw0/tagbot/pkg/tags"
)

// Options tune what Build assembles beyond the configuration.
type Options struct {
	// Metrics registers Prometheus collectors on Registry.
	Metrics  bool
	Registry *prometheus.Registry

	// Strict forces strict validation regardless of the configuration.
	Strict bool

	// Hooks are merged after the logging and metrics hooks.
	Hooks []domain.LifecycleHooks
}

// App is a fully wired bot.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Lexicon *lexicon.Lexicon
	Bot     *tagbot.Bot
	Store   ports.StateStore
	Manager *session.Manager
	Metrics *observability.Metrics

	redis *backend.Client
	db    *sql.DB
}

// NewLogger builds the process logger from the configuration.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(os.Stderr, level, logging.Format(cfg.LogFormat)), nil
}

// Build assembles an App from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	app := &App{Config: cfg, Logger: logger}

	if cfg.Store == config.StoreRedis || cfg.Redis.LexiconKey != "" {
		app.redis = newRedisClient(cfg.Redis)
	}

	lex, err := lexicon.NewCache(app.lexiconSource(ctx)).Get()
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load lexicon: %w", err)
	}
	app.Lexicon = lex

	def, err := Definition(cfg, lex)
	if err != nil {
		app.Close()
		return nil, err
	}

	botOpts := []tagbot.Option{
		tagbot.WithLogger(logger),
		tagbot.WithLifecycleHooks(observability.LoggingHooks(logger)),
	}
	if opts.Metrics {
		reg := opts.Registry
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		m, err := observability.NewMetrics(reg, def.Name)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Metrics = m
		botOpts = append(botOpts, tagbot.WithLifecycleHooks(m.Hooks()))
	}
	for _, h := range opts.Hooks {
		botOpts = append(botOpts, tagbot.WithLifecycleHooks(h))
	}
	if cfg.Strict || opts.Strict {
		botOpts = append(botOpts, tagbot.WithStrictValidation())
	}

	bot, err := tagbot.New(def, botOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Bot = bot

	store, err := app.newStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	var mgrOpts []session.Option
	mgrOpts = append(mgrOpts, session.WithLogger(logger))
	if cfg.Redis.Lock && app.redis != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(redisadapter.NewLocker(app.redis, app.redisPrefix())))
	}
	app.Manager = session.NewManager(bot, app.Store, mgrOpts...)

	return app, nil
}

// Definition builds the configured bot definition with its lexicon and
// optional phrase table override.
func Definition(cfg *config.Config, lex *lexicon.Lexicon) (*registry.Definition, error) {
	var table *tags.Table
	if cfg.TagsFile != "" {
		t, err := tags.LoadFile(cfg.TagsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load tags: %w", err)
		}
		table = t
	}
	return bots.Build(cfg.Bot, bots.Deps{Words: lex, Tags: table})
}

// Responder returns the manager, wrapped with metrics when enabled.
func (a *App) Responder() ports.Responder {
	if a.Metrics != nil {
		return a.Metrics.Observe(a.Manager)
	}
	return a.Manager
}

// Close releases the Redis and PostgreSQL connections, if any.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) lexiconSource(ctx context.Context) lexicon.Source {
	if a.Config.Redis.LexiconKey != "" {
		return redisadapter.LexiconSource(ctx, a.redis, a.Config.Redis.LexiconKey)
	}
	return lexicon.FileSource(a.Config.LexiconPath)
}

func (a *App) redisPrefix() string {
	if a.Config.Redis.Prefix != "" {
		return a.Config.Redis.Prefix
	}
	return redisadapter.DefaultPrefix
}

func (a *App) newStore(ctx context.Context) (ports.StateStore, error) {
	var store ports.StateStore
	switch a.Config.Store {
	case config.StoreFile:
		store = file.NewStore(a.Config.SessionDir)
	case config.StoreRedis:
		store = redisadapter.NewFromClient(a.redis,
			redisadapter.WithPrefix(a.redisPrefix()),
			redisadapter.WithTTL(a.Config.SessionTTL),
		)
	case config.StorePostgres:
		db, err := postgres.Open(ctx, a.Config.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		pg, err := postgres.New(db,
			postgres.WithTable(a.Config.Postgres.Table),
			postgres.WithTTL(a.Config.SessionTTL),
		)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		store = pg
	default:
		store = memory.NewStore()
	}

	enc := a.Config.Encryption
	if enc.Key == "" {
		return store, nil
	}
	active, err := middleware.ParseKey(enc.Key)
	if err != nil {
		return nil, err
	}
	var fallback [][]byte
	for _, s := range enc.FallbackKeys {
		k, err := middleware.ParseKey(s)
		if err != nil {
			return nil, err
		}
		fallback = append(fallback, k)
	}
	seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, seal), nil
}

// OpenStore returns the configured store on its own, for commands that
// only inspect sessions. The returned close func must be called.
func OpenStore(ctx context.Context, cfg *config.Config) (ports.StateStore, func() error, error) {
	app := &App{Config: cfg}
	if cfg.Store == config.StoreRedis {
		app.redis = newRedisClient(cfg.Redis)
	}
	store, err := app.newStore(ctx)
	if err != nil {
		app.Close()
		return nil, nil, err
	}
	return store, app.Close, nil
}

func newRedisClient(cfg config.RedisConfig) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

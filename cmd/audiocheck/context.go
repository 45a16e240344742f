package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"audiocheck/internal/audio"
	"audiocheck/internal/config"
	"audiocheck/internal/deps"
	"audiocheck/internal/job"
	"audiocheck/internal/logging"
	"audiocheck/internal/media/ffmpeg"
	"audiocheck/internal/metadata"
	"audiocheck/internal/notifications"
	"audiocheck/internal/scheduler"
	"audiocheck/internal/services"
	"audiocheck/internal/settings"
	"audiocheck/internal/store"
	"audiocheck/internal/validator"
)

// runtimeHooks replaces the ffmpeg-backed collaborators, for tests.
type runtimeHooks struct {
	decoder  audio.Decoder
	metadata metadata.Reader
	notifier notifications.Service
}

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	hooks        runtimeHooks

	configOnce sync.Once
	config     *config.Config
	configErr  error

	mu     sync.Mutex
	logger *slog.Logger
	store  *store.Store
}

func newCommandContext(configFlag, logLevelFlag *string, hooks runtimeHooks) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		hooks:        hooks,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) notifier() notifications.Service {
	if c.hooks.notifier != nil {
		return c.hooks.notifier
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return notifications.NewService(&config.Config{})
	}
	return notifications.NewService(cfg)
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// loggerValue builds the process logger on first use. Commands that never log
// do not create the log file.
func (c *commandContext) loggerValue() (*slog.Logger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.logger != nil {
		return c.logger, nil
	}
	logger, err := logging.NewFromConfig(c.configValue())
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	c.logger = logger
	return logger, nil
}

func (c *commandContext) storeValue() (*store.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	c.store = st
	return st, nil
}

func (c *commandContext) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

// commandCtx tags ctx with a fresh request id so every log line of one
// invocation correlates.
func commandCtx(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return services.WithRequestID(ctx, uuid.NewString())
}

// registry builds the validator registry backed by the persistent enable
// state.
func (c *commandContext) registry() (*validator.Registry, *settings.Settings, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.loggerValue()
	if err != nil {
		return nil, nil, err
	}
	st, err := c.storeValue()
	if err != nil {
		return nil, nil, err
	}
	s, err := settings.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	reader := c.hooks.metadata
	if reader == nil {
		reader = metadata.NewFileReader(deps.ResolveFFprobe(cfg.Decoder.FFmpeg, cfg.Decoder.FFprobe), logger)
	}
	reg, err := validator.NewRegistry(validator.Builtins(), validator.Options{
		Settings: s,
		State:    st,
		Metadata: reader,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return reg, s, nil
}

// engine is everything needed to analyse files.
type engine struct {
	pool    *scheduler.Pool
	manager *job.Manager
	logger  *slog.Logger
}

func (c *commandContext) newRuntime(sink job.Sink) (*engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerValue()
	if err != nil {
		return nil, err
	}
	st, err := c.storeValue()
	if err != nil {
		return nil, err
	}
	reg, s, err := c.registry()
	if err != nil {
		return nil, err
	}
	decoder := c.hooks.decoder
	if decoder == nil {
		decoder = ffmpeg.New(cfg.Decoder.FFmpeg, deps.ResolveFFprobe(cfg.Decoder.FFmpeg, cfg.Decoder.FFprobe), logger)
	}
	pool := scheduler.New(scheduler.Options{
		Workers:     cfg.Scheduler.Workers,
		IdleTimeout: cfg.IdleTimeout(),
		Logger:      logger,
	})
	manager, err := job.NewManager(job.OptionsFromConfig(cfg, job.Options{
		Pool:     pool,
		Registry: reg,
		Decoder:  decoder,
		Settings: s,
		Sink:     sink,
		History:  st,
		Logger:   logger,
	}))
	if err != nil {
		return nil, err
	}
	return &engine{pool: pool, manager: manager, logger: logger}, nil
}

// shutdown disposes every job and drains the pool.
func (r *engine) shutdown() {
	r.manager.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.pool.Shutdown(ctx); err != nil {
		logging.WarnWithContext(r.logger, "worker pool did not drain", "pool_shutdown", logging.Error(err))
	}
}

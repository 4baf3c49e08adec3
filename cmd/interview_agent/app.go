package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/interview-kit/internal/batch"
	"github.com/jonathan/interview-kit/internal/config"
	"github.com/jonathan/interview-kit/internal/db"
	"github.com/jonathan/interview-kit/internal/llm"
	"github.com/jonathan/interview-kit/internal/logging"
	"github.com/jonathan/interview-kit/internal/platform"
	"github.com/jonathan/interview-kit/internal/regenerate"
	"github.com/jonathan/interview-kit/internal/syncer"
	"github.com/jonathan/interview-kit/internal/synclock"
)

// app holds the shared dependencies of a command. close releases them.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *db.DB
	closers []func()
}

// newApp loads configuration, builds the logger and connects to the database.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, db: database}
	a.closers = append(a.closers, database.Close, func() { _ = logger.Sync() })
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// syncService wires the platform client, the sync lock and the batched applier.
func (a *app) syncService(ctx context.Context) (*syncer.Service, error) {
	if a.cfg.Platform.BaseURL == "" {
		return nil, fmt.Errorf("PLATFORM_BASE_URL is required")
	}
	client, err := platform.NewClient(platform.Config{
		BaseURL: a.cfg.Platform.BaseURL,
		Token:   a.cfg.Platform.Token,
		Timeout: a.cfg.Platform.Timeout,
	}, a.logger.Named("platform"))
	if err != nil {
		return nil, err
	}

	var locker synclock.Locker
	redisClient, err := synclock.NewRedisClient(ctx, synclock.RedisConfig{
		Host:     a.cfg.Redis.Host,
		Port:     a.cfg.Redis.Port,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		locker = synclock.NewRedisLocker(redisClient, a.cfg.Redis.LockTTL, a.logger.Named("synclock"))
	} else {
		a.logger.Info("Redis not configured, sync lock is process-local")
	}

	return syncer.NewService(a.db, client, locker, batch.Options{
		ChunkSize:   a.cfg.Sync.ChunkSize,
		Concurrency: a.cfg.Sync.Concurrency,
	}, a.logger.Named("syncer")), nil
}

// regenerationService wires the configured question generator.
func (a *app) regenerationService(ctx context.Context) (*regenerate.Service, error) {
	if a.cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY environment variable is required")
	}
	strategy, err := regenerate.ParseStrategy(a.cfg.Regeneration.Strategy)
	if err != nil {
		return nil, err
	}
	generator, err := llm.NewClient(ctx, a.cfg.LLMSettings(), a.cfg.LLM.APIKey, a.logger.Named("llm"))
	if err != nil {
		return nil, fmt.Errorf("failed to create question generator: %w", err)
	}
	a.closers = append(a.closers, func() { _ = generator.Close() })

	return regenerate.NewService(a.db, generator, regenerate.Options{
		Strategy:    strategy,
		Tier:        llm.ModelTier(a.cfg.Regeneration.Tier),
		Concurrency: a.cfg.Regeneration.Concurrency,
	}, a.logger.Named("regenerate")), nil
}

package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/jengzang/periodic-risk-go/internal/analysis"
	"github.com/jengzang/periodic-risk-go/internal/api"
	"github.com/jengzang/periodic-risk-go/internal/cache"
	"github.com/jengzang/periodic-risk-go/internal/config"
	"github.com/jengzang/periodic-risk-go/internal/database"
	"github.com/jengzang/periodic-risk-go/internal/metrics"
	"github.com/jengzang/periodic-risk-go/internal/repository"
	"github.com/jengzang/periodic-risk-go/internal/service"
	"github.com/jengzang/periodic-risk-go/internal/training"
)

// app wires the database, cache and services for every command
type app struct {
	cfg      *config.Config
	db       *sqlx.DB
	metrics  *metrics.Registry
	cache    cache.ProfileCache
	redis    *cache.RedisCache
	trainer  *training.Trainer
	services api.Services
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		return nil, err
	}
	db := database.GetDB()

	applied, err := database.NewMigrationManager(db).RunMigrations()
	if err != nil {
		database.Close()
		return nil, err
	}
	if applied > 0 {
		log.Info().Int("count", applied).Msg("migrations applied")
	}

	a := &app{
		cfg:     cfg,
		db:      db,
		metrics: metrics.NewRegistry(),
		cache:   cache.NopCache{},
	}

	if cfg.CacheEnabled() {
		rc := cache.NewRedisCache(cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.Redis.TTL)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, profile cache will retry through its breaker")
		}
		cancel()

		a.redis = rc
		a.cache = rc
	}

	a.trainer = training.NewTrainer(cfg.TrainerConfig(),
		training.WithObserver(a.metrics),
		training.WithLogger(log.Logger.With().Str("component", "trainer").Logger()),
	)

	profiles := service.NewProfileService(repository.NewRiskProfileRepository(db), a.cache, a.metrics, log.Logger)
	a.services = api.Services{
		Events:   service.NewEventService(repository.NewEventRepository(db)),
		Profiles: profiles,
		Scoring:  service.NewScoringService(profiles, training.NewScorer(cfg.ScoringConfig()), a.metrics),
		Circular: service.NewCircularService(cfg.Training.Bandwidth),
		Tasks: service.NewTrainingTaskService(repository.NewTrainingTaskRepository(db), analysis.Deps{
			DB:      db,
			Trainer: a.trainer,
			Cache:   a.cache,
			Logger:  log.Logger,
		}),
	}

	return a, nil
}

func (a *app) Close() {
	a.services.Tasks.Shutdown()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if err := database.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
}

// Package app wires configuration into a ready pipeline for the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"nextvideo/internal/cache"
	"nextvideo/internal/config"
	"nextvideo/internal/db"
	"nextvideo/internal/genai"
	"nextvideo/internal/pipeline"
	"nextvideo/internal/youtube"
)

type App struct {
	Config  config.Config
	Log     zerolog.Logger
	Service *pipeline.Service
	Chain   *genai.Chain

	// Pool is nil without DATABASE_URL; Redis is nil unless the cache uses it.
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Cache      cache.Store
	RedisCache *cache.RedisStore
	PGCache    *db.CacheStore
}

func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		if err := db.ApplySchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("schema: %w", err)
		}
		a.Pool = pool
	} else {
		log.Warn().Msg("db: no DATABASE_URL, history and free-tier gate disabled")
	}

	switch cfg.CacheBackend {
	case "redis":
		rdb, err := newRedisClient(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.Redis = rdb
		a.RedisCache = &cache.RedisStore{Client: rdb}
		a.Cache = a.RedisCache
	case "postgres":
		if a.Pool == nil {
			return nil, fmt.Errorf("cache: postgres backend needs DATABASE_URL")
		}
		a.PGCache = &db.CacheStore{Pool: a.Pool}
		a.Cache = a.PGCache
	default:
		a.Cache = cache.NewMemoryStore()
	}
	log.Info().Str("backend", cfg.CacheBackend).Msg("cache: ready")

	var gens []genai.Generator
	if cfg.GeminiAPIKey != "" {
		gemini := genai.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GenerationTimeout)
		gemini.MaxOutputTokens = cfg.GeminiMaxOutputTokens
		gens = append(gens, gemini)
	}
	if cfg.DeepSeekAPIKey != "" {
		gens = append(gens, genai.NewDeepSeek(cfg.DeepSeekAPIKey, cfg.DeepSeekModel, cfg.DeepSeekBaseURL, cfg.GenerationTimeout))
	}
	a.Chain = genai.NewChain(log, gens...)
	if a.Chain.Len() == 0 {
		log.Warn().Msg("genai: no GEMINI_API_KEY or DEEPSEEK_API_KEY, generation will fail")
	}

	yt := youtube.New(cfg.YouTubeAPIKey, cfg.RequestTimeout)
	deps := pipeline.Deps{
		Resolver:  yt,
		Catalog:   yt,
		Search:    yt,
		Generator: a.Chain,
		Cache:     a.Cache,
		Logger:    log,
	}
	if a.Pool != nil {
		store := &db.Store{Pool: a.Pool}
		deps.Usage = store
		deps.Entitlements = store
		deps.History = store
	}
	a.Service = pipeline.New(deps, PipelineConfig(cfg))
	return a, nil
}

// PipelineConfig maps environment settings onto the pipeline.
func PipelineConfig(cfg config.Config) pipeline.Config {
	pc := pipeline.DefaultConfig()
	pc.Threshold = cfg.OutlierThreshold
	pc.FreeLimit = cfg.FreeTierLimit
	pc.MaxPeers = cfg.MaxPeers
	pc.PeerSearchResults = cfg.PeerSearchResults
	pc.CatalogSize = cfg.CatalogSize
	pc.MaxOutliers = cfg.MaxOutliers
	pc.PeerWorkers = cfg.PeerWorkers
	pc.CallTimeout = cfg.RequestTimeout
	return pc
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}

func newRedisClient(redisURL, redisPassword string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if redisPassword != "" {
		opt.Password = redisPassword
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

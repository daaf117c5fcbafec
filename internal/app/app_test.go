package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"nextvideo/internal/cache"
	"nextvideo/internal/config"
)

func baseConfig() config.Config {
	return config.Config{
		YouTubeAPIKey:     "yt",
		CacheBackend:      "memory",
		RequestTimeout:    5 * time.Second,
		GenerationTimeout: 10 * time.Second,
		OutlierThreshold:  2.5,
		FreeTierLimit:     1,
		MaxPeers:          4,
		PeerSearchResults: 10,
		CatalogSize:       15,
		MaxOutliers:       12,
		PeerWorkers:       2,
	}
}

func TestPipelineConfig(t *testing.T) {
	pc := PipelineConfig(baseConfig())
	if pc.Threshold != 2.5 || pc.FreeLimit != 1 || pc.MaxPeers != 4 || pc.PeerSearchResults != 10 ||
		pc.CatalogSize != 15 || pc.MaxOutliers != 12 || pc.PeerWorkers != 2 || pc.CallTimeout != 5*time.Second {
		t.Errorf("got %+v", pc)
	}
	if pc.HistoryLimit != 20 {
		t.Errorf("history limit = %d, want default 20", pc.HistoryLimit)
	}
}

func TestBuildMemory(t *testing.T) {
	cfg := baseConfig()
	cfg.GeminiAPIKey = "g"
	cfg.DeepSeekAPIKey = "d"

	a, err := Build(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	if _, ok := a.Cache.(*cache.MemoryStore); !ok {
		t.Errorf("cache = %T, want memory", a.Cache)
	}
	if a.Pool != nil || a.Redis != nil {
		t.Error("no database or redis should be opened")
	}
	if a.Chain.Len() != 2 {
		t.Errorf("chain providers = %d, want 2", a.Chain.Len())
	}
	if a.Service == nil {
		t.Error("service not built")
	}
}

func TestBuildRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.CacheBackend = "redis"
	cfg.RedisURL = "redis://" + mr.Addr()

	a, err := Build(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()
	if a.RedisCache == nil || a.Cache != cache.Store(a.RedisCache) {
		t.Errorf("cache = %T, want redis", a.Cache)
	}
	if a.Chain.Len() != 0 {
		t.Errorf("chain providers = %d, want 0", a.Chain.Len())
	}
}

func TestBuildPostgresCacheNeedsDatabase(t *testing.T) {
	cfg := baseConfig()
	cfg.CacheBackend = "postgres"
	if _, err := Build(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Error("expected error without DATABASE_URL")
	}
}

func TestNewRedisClientBadURL(t *testing.T) {
	if _, err := newRedisClient("not a url", ""); err == nil {
		t.Error("expected parse error")
	}
}

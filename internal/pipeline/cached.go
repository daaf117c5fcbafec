package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"nextvideo/internal/cache"
	"nextvideo/internal/metrics"
	"nextvideo/internal/model"
)

// cached serves key from store when present, otherwise runs fetch and stores
// its result unless keep rejects it. Cache failures are logged and never fail
// the call.
func cached[T any](ctx context.Context, store cache.Store, log zerolog.Logger, kind cache.Kind, key string, keep func(T) bool, fetch func(context.Context) (T, error)) (T, error) {
	if store == nil {
		return fetch(ctx)
	}

	var v T
	ok, err := cache.GetJSON(ctx, store, key, kind, &v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: read failed")
	}
	if ok {
		metrics.CacheHits.WithLabelValues(string(kind)).Inc()
		return v, nil
	}
	metrics.CacheMisses.WithLabelValues(string(kind)).Inc()

	v, err = fetch(ctx)
	if err != nil {
		return v, err
	}
	if keep == nil || keep(v) {
		if err := cache.SetJSON(ctx, store, key, kind, v); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache: write failed")
		}
	}
	return v, nil
}

func nonEmpty[E any](v []E) bool {
	return len(v) > 0
}

// cachedCatalog fronts a CatalogFetcher with the videos cache.
type cachedCatalog struct {
	next  CatalogFetcher
	store cache.Store
	log   zerolog.Logger
}

func (c cachedCatalog) FetchRecentVideos(ctx context.Context, channelID string, maxCount int) ([]model.VideoRecord, error) {
	return cached(ctx, c.store, c.log, cache.KindVideos, cache.VideosKey(channelID), nonEmpty[model.VideoRecord],
		func(ctx context.Context) ([]model.VideoRecord, error) {
			return c.next.FetchRecentVideos(ctx, channelID, maxCount)
		})
}

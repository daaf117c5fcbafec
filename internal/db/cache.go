package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nextvideo/internal/cache"
)

// CacheStore keeps cache entries in the nextvideo_cache table.
type CacheStore struct {
	Pool *pgxpool.Pool
	Now  func() time.Time
}

func (s *CacheStore) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Get deletes the row when it finds it expired.
func (s *CacheStore) Get(ctx context.Context, key string, _ cache.Kind) ([]byte, bool, error) {
	var (
		data      string
		expiresAt time.Time
	)
	err := s.Pool.QueryRow(ctx, `
		SELECT data::text, expires_at
		FROM nextvideo_cache
		WHERE cache_key = $1
	`, key).Scan(&data, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache %s: %w", key, err)
	}
	if expiresAt.Before(s.now()) {
		if _, err := s.Pool.Exec(ctx, `DELETE FROM nextvideo_cache WHERE cache_key = $1`, key); err != nil {
			return nil, false, fmt.Errorf("delete expired cache %s: %w", key, err)
		}
		return nil, false, nil
	}
	return []byte(data), true, nil
}

func (s *CacheStore) Set(ctx context.Context, key string, kind cache.Kind, value []byte) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO nextvideo_cache (cache_key, type, data, expires_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (cache_key)
		DO UPDATE SET
			type = EXCLUDED.type,
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at
	`, key, string(kind), string(value), s.now().Add(cache.TTL(kind)))
	if err != nil {
		return fmt.Errorf("upsert cache %s: %w", key, err)
	}
	return nil
}

// PruneExpired removes every expired row and reports how many went.
func (s *CacheStore) PruneExpired(ctx context.Context) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM nextvideo_cache WHERE expires_at < $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Reset removes every cached row.
func (s *CacheStore) Reset(ctx context.Context) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM nextvideo_cache`)
	if err != nil {
		return 0, fmt.Errorf("reset cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

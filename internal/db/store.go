package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"nextvideo/internal/model"
)

// Store exposes the generation queries as the pipeline's history, usage and
// entitlement collaborators.
type Store struct {
	Pool *pgxpool.Pool
}

func (s *Store) SaveGeneration(ctx context.Context, g model.Generation) (string, error) {
	return SaveGeneration(ctx, s.Pool, g)
}

func (s *Store) ListGenerations(ctx context.Context, owner model.Owner, limit int) ([]model.Generation, error) {
	return ListGenerations(ctx, s.Pool, owner, limit)
}

func (s *Store) GetGeneration(ctx context.Context, id string) (model.Generation, error) {
	return GetGeneration(ctx, s.Pool, id)
}

func (s *Store) CountGenerations(ctx context.Context, owner model.Owner) (int, error) {
	return CountGenerations(ctx, s.Pool, owner)
}

func (s *Store) MigrateSession(ctx context.Context, sessionID, userID string) (int64, error) {
	return MigrateSession(ctx, s.Pool, sessionID, userID)
}

func (s *Store) IsEntitled(ctx context.Context, owner model.Owner) (bool, error) {
	return IsEntitled(ctx, s.Pool, owner.UserID)
}

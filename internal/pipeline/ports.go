package pipeline

import (
	"context"

	"nextvideo/internal/model"
)

type Resolver interface {
	ResolveChannel(ctx context.Context, query string) (model.ChannelProfile, error)
}

// CatalogFetcher may return an empty slice for a channel with no uploads.
type CatalogFetcher interface {
	FetchRecentVideos(ctx context.Context, channelID string, maxCount int) ([]model.VideoRecord, error)
}

type UsageCounter interface {
	CountGenerations(ctx context.Context, owner model.Owner) (int, error)
}

type Entitlements interface {
	IsEntitled(ctx context.Context, owner model.Owner) (bool, error)
}

type HistoryStore interface {
	SaveGeneration(ctx context.Context, g model.Generation) (string, error)
	ListGenerations(ctx context.Context, owner model.Owner, limit int) ([]model.Generation, error)
	GetGeneration(ctx context.Context, id string) (model.Generation, error)
	MigrateSession(ctx context.Context, sessionID, userID string) (int64, error)
}

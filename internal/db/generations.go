package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nextvideo/internal/apperr"
	"nextvideo/internal/model"
)

// ErrNotFound is returned when a generation id has no row.
var ErrNotFound error = apperr.NotFound("history", "generation not found")

const generationColumns = `id::text, COALESCE(user_id, ''), COALESCE(session_id, ''), channel::text, niche::text, peers::text, outliers::text, ideas::text, created_at`

// SaveGeneration inserts g and returns its id. A blank id is generated.
func SaveGeneration(ctx context.Context, pool *pgxpool.Pool, g model.Generation) (string, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	channel, err := json.Marshal(g.Channel)
	if err != nil {
		return "", fmt.Errorf("marshal channel: %w", err)
	}
	niche, err := marshalList(g.Niche)
	if err != nil {
		return "", fmt.Errorf("marshal niche: %w", err)
	}
	peers, err := marshalList(g.Peers)
	if err != nil {
		return "", fmt.Errorf("marshal peers: %w", err)
	}
	outliers, err := marshalList(g.Outliers)
	if err != nil {
		return "", fmt.Errorf("marshal outliers: %w", err)
	}
	ideas, err := marshalList(g.Ideas)
	if err != nil {
		return "", fmt.Errorf("marshal ideas: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO nextvideo_generations (
			id,
			user_id,
			session_id,
			channel_id,
			channel,
			niche,
			peers,
			outliers,
			ideas,
			created_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
		)
	`, g.ID, nullable(g.Owner.UserID), nullable(g.Owner.SessionID), g.Channel.ChannelID,
		string(channel), niche, peers, outliers, ideas, g.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert generation (channel=%s): %w", g.Channel.ChannelID, err)
	}
	return g.ID, nil
}

// ListGenerations returns the owner's most recent generations, newest first.
// Session-only history excludes rows already attached to a user.
func ListGenerations(ctx context.Context, pool *pgxpool.Pool, owner model.Owner, limit int) ([]model.Generation, error) {
	if limit <= 0 {
		limit = 20
	}
	var (
		rows pgx.Rows
		err  error
	)
	switch {
	case owner.UserID != "":
		rows, err = pool.Query(ctx, `
			SELECT `+generationColumns+`
			FROM nextvideo_generations
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, owner.UserID, limit)
	case owner.SessionID != "":
		rows, err = pool.Query(ctx, `
			SELECT `+generationColumns+`
			FROM nextvideo_generations
			WHERE session_id = $1 AND user_id IS NULL
			ORDER BY created_at DESC
			LIMIT $2
		`, owner.SessionID, limit)
	default:
		return []model.Generation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	out := []model.Generation{}
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate generations: %w", rows.Err())
	}
	return out, nil
}

func GetGeneration(ctx context.Context, pool *pgxpool.Pool, id string) (model.Generation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Generation{}, ErrNotFound
	}
	row := pool.QueryRow(ctx, `
		SELECT `+generationColumns+`
		FROM nextvideo_generations
		WHERE id = $1
	`, id)
	g, err := scanGeneration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Generation{}, ErrNotFound
	}
	return g, err
}

// CountGenerations counts the generations billed to owner. An owner with
// neither id has none.
func CountGenerations(ctx context.Context, pool *pgxpool.Pool, owner model.Owner) (int, error) {
	var (
		n   int
		err error
	)
	switch {
	case owner.UserID != "":
		err = pool.QueryRow(ctx, `SELECT count(*) FROM nextvideo_generations WHERE user_id = $1`, owner.UserID).Scan(&n)
	case owner.SessionID != "":
		err = pool.QueryRow(ctx, `SELECT count(*) FROM nextvideo_generations WHERE session_id = $1 AND user_id IS NULL`, owner.SessionID).Scan(&n)
	default:
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count generations: %w", err)
	}
	return n, nil
}

// MigrateSession attaches a session's anonymous generations to userID.
func MigrateSession(ctx context.Context, pool *pgxpool.Pool, sessionID, userID string) (int64, error) {
	tag, err := pool.Exec(ctx, `
		UPDATE nextvideo_generations
		SET user_id = $1
		WHERE session_id = $2 AND user_id IS NULL
	`, userID, sessionID)
	if err != nil {
		return 0, fmt.Errorf("migrate session %s: %w", sessionID, err)
	}
	return tag.RowsAffected(), nil
}

// IsEntitled reports whether userID holds an active pro subscription.
func IsEntitled(ctx context.Context, pool *pgxpool.Pool, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var ok bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE user_id = $1 AND plan = 'pro' AND status = 'active'
		)
	`, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("query subscription (user=%s): %w", userID, err)
	}
	return ok, nil
}

func scanGeneration(row pgx.Row) (model.Generation, error) {
	var (
		g                                      model.Generation
		channel, niche, peers, outliers, ideas string
	)
	if err := row.Scan(&g.ID, &g.Owner.UserID, &g.Owner.SessionID, &channel, &niche, &peers, &outliers, &ideas, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return g, err
		}
		return g, fmt.Errorf("scan generation: %w", err)
	}
	for _, f := range []struct {
		raw string
		dst any
	}{
		{channel, &g.Channel},
		{niche, &g.Niche},
		{peers, &g.Peers},
		{outliers, &g.Outliers},
		{ideas, &g.Ideas},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return g, fmt.Errorf("decode generation %s: %w", g.ID, err)
		}
	}
	return g, nil
}

// marshalList encodes a nil slice as [] so the jsonb columns never hold null.
func marshalList[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

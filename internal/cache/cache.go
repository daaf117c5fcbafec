// Package cache stores derived pipeline artifacts with a per-kind TTL.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"nextvideo/internal/model"
)

type Kind string

const (
	KindChannel Kind = "channel"
	KindVideos  Kind = "videos"
	KindPeers   Kind = "peers"
)

// TTL is how long an artifact of kind stays fresh.
func TTL(kind Kind) time.Duration {
	switch kind {
	case KindPeers:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Store is a key/value cache. Get reports absent for missing and expired
// entries alike; Set overwrites.
type Store interface {
	Get(ctx context.Context, key string, kind Kind) ([]byte, bool, error)
	Set(ctx context.Context, key string, kind Kind, value []byte) error
}

// GetJSON decodes a cached value into out. A value that no longer decodes
// counts as absent.
func GetJSON(ctx context.Context, s Store, key string, kind Kind, out any) (bool, error) {
	data, ok, err := s.Get(ctx, key, kind)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, kind Kind, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value %s: %w", key, err)
	}
	return s.Set(ctx, key, kind, b)
}

func ChannelKey(query string) string {
	return "channel:" + strings.ToLower(strings.TrimSpace(query))
}

func VideosKey(channelID string) string {
	return "videos:" + channelID
}

// PeersKey is independent of keyword order and case.
func PeersKey(niche []string, band model.PeerBand) string {
	terms := make([]string, 0, len(niche))
	for _, n := range niche {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			terms = append(terms, n)
		}
	}
	sort.Strings(terms)
	return fmt.Sprintf("peers:%s:%d-%d", strings.Join(terms, ","), band.Min, band.Max)
}

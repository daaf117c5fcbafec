package peers

import (
	"context"
	"strings"

	"nextvideo/internal/apperr"
	"nextvideo/internal/model"
)

// MinPeerVideos is the smallest catalog worth running outlier detection on.
const MinPeerVideos = 3

// ChannelSearcher finds channels matching free-text keywords.
type ChannelSearcher interface {
	SearchChannels(ctx context.Context, keywords []string, maxResults int) ([]model.ChannelProfile, error)
}

// Discover searches for channels in the niche and keeps those inside band
// with enough uploads to measure. Excluding the source channel and capping how
// many peers get analysed is left to the caller.
func Discover(ctx context.Context, s ChannelSearcher, keywords []string, band model.PeerBand, limit int) ([]model.ChannelProfile, error) {
	terms := cleanKeywords(keywords)
	if len(terms) == 0 {
		return nil, apperr.Invalid("discover-peers", "niche keywords are required")
	}
	candidates, err := s.SearchChannels(ctx, terms, limit)
	if err != nil {
		return nil, apperr.Unavailable("discover-peers", err)
	}
	return FilterCandidates(candidates, band), nil
}

// FilterCandidates keeps channels whose subscriber count is inside band and
// whose video count is at least MinPeerVideos. Order is preserved.
func FilterCandidates(candidates []model.ChannelProfile, band model.PeerBand) []model.ChannelProfile {
	out := make([]model.ChannelProfile, 0, len(candidates))
	for _, ch := range candidates {
		if !band.Contains(ch.SubscriberCount) || ch.VideoCount < MinPeerVideos {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// ExcludeChannel drops channelID from peers, also dropping repeated ids.
func ExcludeChannel(peers []model.ChannelProfile, channelID string) []model.ChannelProfile {
	seen := make(map[string]struct{}, len(peers))
	out := make([]model.ChannelProfile, 0, len(peers))
	for _, p := range peers {
		if p.ChannelID == channelID {
			continue
		}
		if _, ok := seen[p.ChannelID]; ok {
			continue
		}
		seen[p.ChannelID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func cleanKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

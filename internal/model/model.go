package model

import "time"

// ChannelProfile is a snapshot of a channel taken once per analysis.
type ChannelProfile struct {
	ChannelID       string  `json:"channel_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Thumbnail       string  `json:"thumbnail"`
	SubscriberCount int64   `json:"subscriber_count"`
	VideoCount      int64   `json:"video_count"`
	CustomURL       *string `json:"custom_url,omitempty"`
}

// VideoRecord is one catalog entry as returned by the catalog fetcher.
type VideoRecord struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	PublishedAt  time.Time `json:"published_at"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    *int64    `json:"like_count,omitempty"`
	CommentCount *int64    `json:"comment_count,omitempty"`
	Thumbnail    string    `json:"thumbnail"`
	Duration     *string   `json:"duration,omitempty"`
}

// OutlierVideo is an eligible video whose views beat its channel's median
// by at least the configured threshold.
type OutlierVideo struct {
	VideoRecord
	Multiplier   float64 `json:"multiplier"`
	ChannelID    string  `json:"channel_id"`
	ChannelTitle string  `json:"channel_title"`
}

// PeerBand is an inclusive subscriber range.
type PeerBand struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

func (b PeerBand) Contains(subs int64) bool {
	return subs >= b.Min && subs <= b.Max
}

type EvidenceVideo struct {
	VideoID      string  `json:"video_id"`
	Title        string  `json:"title"`
	ChannelID    string  `json:"channel_id"`
	ChannelTitle string  `json:"channel_title"`
	ViewCount    int64   `json:"view_count"`
	Multiplier   float64 `json:"multiplier"`
	Thumbnail    string  `json:"thumbnail"`
}

// EvidenceFrom projects an outlier onto the fields an idea card needs.
func EvidenceFrom(v OutlierVideo) EvidenceVideo {
	return EvidenceVideo{
		VideoID:      v.VideoID,
		Title:        v.Title,
		ChannelID:    v.ChannelID,
		ChannelTitle: v.ChannelTitle,
		ViewCount:    v.ViewCount,
		Multiplier:   v.Multiplier,
		Thumbnail:    v.Thumbnail,
	}
}

type VideoIdea struct {
	Title    string          `json:"title"`
	Insight  string          `json:"insight"`
	Evidence []EvidenceVideo `json:"evidence"`
}

// PeerSummary is a peer channel plus what its catalog yielded.
type PeerSummary struct {
	ChannelProfile
	SampledVideos int `json:"sampled_videos"`
	OutlierCount  int `json:"outlier_count"`
}

// Owner identifies who a pipeline run is billed to. UserID wins over SessionID.
type Owner struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func (o Owner) IsZero() bool {
	return o.UserID == "" && o.SessionID == ""
}

// Generation is the persisted record of one completed idea generation.
type Generation struct {
	ID        string         `json:"id"`
	Owner     Owner          `json:"owner"`
	Channel   ChannelProfile `json:"channel"`
	Niche     []string       `json:"niche"`
	Peers     []PeerSummary  `json:"peers"`
	Outliers  []OutlierVideo `json:"outliers"`
	Ideas     []VideoIdea    `json:"ideas"`
	CreatedAt time.Time      `json:"created_at"`
}

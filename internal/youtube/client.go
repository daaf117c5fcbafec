package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nextvideo/internal/apperr"
	"nextvideo/internal/model"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	// search.list caps maxResults at 50; more than 25 candidates rarely helps.
	maxSearchResults = 25
	maxBatch         = 50
)

var errChannelNotFound = errors.New("channel not found")

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func New(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: defaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type thumbnails struct {
	Maxres  thumb `json:"maxres"`
	High    thumb `json:"high"`
	Medium  thumb `json:"medium"`
	Default thumb `json:"default"`
}

type thumb struct {
	URL string `json:"url"`
}

type channelItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		CustomURL   string     `json:"customUrl"`
		Thumbnails  thumbnails `json:"thumbnails"`
	} `json:"snippet"`
	Statistics struct {
		SubscriberCount *string `json:"subscriberCount"`
		VideoCount      *string `json:"videoCount"`
	} `json:"statistics"`
}

type channelsResponse struct {
	Items []channelItem `json:"items"`
}

// ResolveChannel finds the channel a user typed: a channel URL, an @handle,
// a UC… id, or a name. Names are tried as a handle first, then searched.
func (c *Client) ResolveChannel(ctx context.Context, query string) (model.ChannelProfile, error) {
	ref := ParseChannelQuery(query)
	var (
		ch  model.ChannelProfile
		err error
	)
	switch ref.Kind {
	case RefEmpty:
		return model.ChannelProfile{}, apperr.Invalid("resolve-channel", "please provide a channel URL, handle, or name")
	case RefID:
		ch, err = c.fetchChannel(ctx, "id", ref.Value)
	case RefHandle:
		ch, err = c.fetchChannel(ctx, "forHandle", ref.Value)
	default:
		ch, err = c.fetchChannel(ctx, "forHandle", ref.Value)
		if errors.Is(err, errChannelNotFound) {
			ch, err = c.searchForChannel(ctx, ref.Value)
		}
	}
	if errors.Is(err, errChannelNotFound) {
		return model.ChannelProfile{}, apperr.NotFound("resolve-channel", fmt.Sprintf("no channel matches %q, try a different input", strings.TrimSpace(query)))
	}
	if err != nil {
		return model.ChannelProfile{}, apperr.Unavailable("resolve-channel", err)
	}
	return ch, nil
}

func (c *Client) fetchChannel(ctx context.Context, param, value string) (model.ChannelProfile, error) {
	u, err := c.endpoint("channels", url.Values{
		"part": {"snippet,statistics"},
		param:  {value},
	})
	if err != nil {
		return model.ChannelProfile{}, err
	}
	var resp channelsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return model.ChannelProfile{}, err
	}
	if len(resp.Items) == 0 {
		return model.ChannelProfile{}, errChannelNotFound
	}
	return mapChannel(resp.Items[0]), nil
}

func (c *Client) searchForChannel(ctx context.Context, query string) (model.ChannelProfile, error) {
	ids, err := c.searchChannelIDs(ctx, query, 1)
	if err != nil {
		return model.ChannelProfile{}, err
	}
	if len(ids) == 0 {
		return model.ChannelProfile{}, errChannelNotFound
	}
	return c.fetchChannel(ctx, "id", ids[0])
}

func (c *Client) searchChannelIDs(ctx context.Context, query string, maxResults int) ([]string, error) {
	u, err := c.endpoint("search", url.Values{
		"part":       {"snippet"},
		"type":       {"channel"},
		"q":          {query},
		"maxResults": {strconv.Itoa(maxResults)},
	})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Items []struct {
			ID struct {
				ChannelID string `json:"channelId"`
			} `json:"id"`
			Snippet struct {
				ChannelID string `json:"channelId"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		id := it.Snippet.ChannelID
		if id == "" {
			id = it.ID.ChannelID
		}
		if id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

// SearchChannels runs a channel search for the joined keywords and returns
// full profiles for the hits, in search order.
func (c *Client) SearchChannels(ctx context.Context, keywords []string, maxResults int) ([]model.ChannelProfile, error) {
	if maxResults <= 0 || maxResults > maxSearchResults {
		maxResults = maxSearchResults
	}
	ids, err := c.searchChannelIDs(ctx, strings.Join(keywords, " "), maxResults)
	if err != nil {
		return nil, fmt.Errorf("search channels: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	byID, err := c.FetchChannels(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.ChannelProfile, 0, len(ids))
	for _, id := range ids {
		if ch, ok := byID[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

// FetchChannels fetches profiles for up to 50 channels in one call.
func (c *Client) FetchChannels(ctx context.Context, channelIDs []string) (map[string]model.ChannelProfile, error) {
	if len(channelIDs) == 0 {
		return map[string]model.ChannelProfile{}, nil
	}
	if len(channelIDs) > maxBatch {
		return nil, fmt.Errorf("FetchChannels expects <=%d channel IDs, got %d", maxBatch, len(channelIDs))
	}
	u, err := c.endpoint("channels", url.Values{
		"part": {"snippet,statistics"},
		"id":   {strings.Join(channelIDs, ",")},
	})
	if err != nil {
		return nil, err
	}
	var resp channelsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("fetch channels: %w", err)
	}
	out := make(map[string]model.ChannelProfile, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID == "" {
			continue
		}
		out[item.ID] = mapChannel(item)
	}
	return out, nil
}

// FetchRecentVideos returns up to maxCount of the channel's latest uploads
// with statistics. A channel without an uploads playlist has no videos.
func (c *Client) FetchRecentVideos(ctx context.Context, channelID string, maxCount int) ([]model.VideoRecord, error) {
	if maxCount <= 0 || maxCount > maxBatch {
		maxCount = maxBatch
	}
	playlistID := UploadsPlaylistID(channelID)
	if playlistID == "" {
		return nil, nil
	}

	u, err := c.endpoint("playlistItems", url.Values{
		"part":       {"contentDetails"},
		"playlistId": {playlistID},
		"maxResults": {strconv.Itoa(maxCount)},
	})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Items []struct {
			ContentDetails struct {
				VideoID string `json:"videoId"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, u, &resp); err != nil {
		if isPlaylistNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("playlist items (channel=%s): %w", channelID, err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ContentDetails.VideoID != "" {
			ids = append(ids, it.ContentDetails.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	videos, err := c.FetchVideos(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("videos (channel=%s): %w", channelID, err)
	}
	return videos, nil
}

// FetchVideos fetches snippet, statistics and duration for up to 50 videos.
func (c *Client) FetchVideos(ctx context.Context, videoIDs []string) ([]model.VideoRecord, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}
	// videos.list accepts up to 50 ids.
	if len(videoIDs) > maxBatch {
		videoIDs = videoIDs[:maxBatch]
	}

	u, err := c.endpoint("videos", url.Values{
		"part": {"snippet,statistics,contentDetails"},
		"id":   {strings.Join(videoIDs, ",")},
	})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title       string     `json:"title"`
				PublishedAt string     `json:"publishedAt"`
				Thumbnails  thumbnails `json:"thumbnails"`
			} `json:"snippet"`
			Statistics struct {
				ViewCount    *string `json:"viewCount"`
				LikeCount    *string `json:"likeCount"`
				CommentCount *string `json:"commentCount"`
			} `json:"statistics"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	out := make([]model.VideoRecord, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID == "" {
			continue
		}
		v := model.VideoRecord{
			VideoID:      it.ID,
			Title:        it.Snippet.Title,
			Thumbnail:    pickThumb(it.Snippet.Thumbnails, false),
			LikeCount:    parseInt64Ptr(it.Statistics.LikeCount),
			CommentCount: parseInt64Ptr(it.Statistics.CommentCount),
		}
		if views := parseInt64Ptr(it.Statistics.ViewCount); views != nil {
			v.ViewCount = *views
		}
		if ts := parseTimePtr(it.Snippet.PublishedAt); ts != nil {
			v.PublishedAt = *ts
		}
		if d := it.ContentDetails.Duration; d != "" {
			v.Duration = &d
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Client) endpoint(resource string, q url.Values) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/") + "/" + resource)
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}
	q.Set("key", c.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	if c.APIKey == "" {
		return fmt.Errorf("missing YOUTUBE_API_KEY")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("youtube api http %d: %s", res.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func mapChannel(item channelItem) model.ChannelProfile {
	ch := model.ChannelProfile{
		ChannelID:   item.ID,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		Thumbnail:   pickThumb(item.Snippet.Thumbnails, true),
	}
	if v := parseInt64Ptr(item.Statistics.SubscriberCount); v != nil {
		ch.SubscriberCount = *v
	}
	if v := parseInt64Ptr(item.Statistics.VideoCount); v != nil {
		ch.VideoCount = *v
	}
	if item.Snippet.CustomURL != "" {
		s := item.Snippet.CustomURL
		ch.CustomURL = &s
	}
	return ch
}

// UploadsPlaylistID derives a channel's uploads playlist: "UC…" becomes "UU…".
func UploadsPlaylistID(channelID string) string {
	if len(channelID) < 3 || !strings.HasPrefix(channelID, "UC") {
		return ""
	}
	return "UU" + channelID[2:]
}

func isPlaylistNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "playlistnotfound") || strings.Contains(msg, "playlistid") && strings.Contains(msg, "404")
}

func parseInt64Ptr(s *string) *int64 {
	if s == nil || *s == "" {
		return nil
	}
	v, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseTimePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	tt := t.UTC()
	return &tt
}

// pickThumb prefers the largest rendition. Channel avatars are small, so
// small skips maxres/high.
func pickThumb(t thumbnails, small bool) string {
	if !small {
		if t.Maxres.URL != "" {
			return t.Maxres.URL
		}
		if t.High.URL != "" {
			return t.High.URL
		}
	}
	if t.Medium.URL != "" {
		return t.Medium.URL
	}
	return t.Default.URL
}

// RefKind says how a channel query should be looked up.
type RefKind int

const (
	RefEmpty RefKind = iota
	RefID
	RefHandle
	RefName
)

type ChannelRef struct {
	Kind  RefKind
	Value string
}

var channelURLRe = regexp.MustCompile(`(?i)youtube\.com/(?:@([\w.-]+)|channel/(UC[\w-]+)|c/([\w.-]+)|user/([\w.-]+))`)

// ParseChannelQuery classifies user input. Handles are returned without "@".
func ParseChannelQuery(input string) ChannelRef {
	s := strings.TrimSpace(input)
	if s == "" {
		return ChannelRef{Kind: RefEmpty}
	}
	if m := channelURLRe.FindStringSubmatch(s); m != nil {
		switch {
		case m[1] != "":
			return ChannelRef{Kind: RefHandle, Value: m[1]}
		case m[2] != "":
			s = m[2]
		case m[3] != "":
			s = m[3]
		default:
			s = m[4]
		}
	}
	if strings.HasPrefix(s, "UC") && len(s) == 24 {
		return ChannelRef{Kind: RefID, Value: s}
	}
	if strings.HasPrefix(s, "@") {
		return ChannelRef{Kind: RefHandle, Value: strings.TrimPrefix(s, "@")}
	}
	return ChannelRef{Kind: RefName, Value: s}
}

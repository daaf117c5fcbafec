package youtube

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nextvideo/internal/apperr"
)

const testID = "UCabcdefghijklmnopqrstuv"

func TestParseChannelQuery(t *testing.T) {
	tests := []struct {
		in   string
		kind RefKind
		val  string
	}{
		{"", RefEmpty, ""},
		{"   ", RefEmpty, ""},
		{"https://www.youtube.com/@MrBeast", RefHandle, "MrBeast"},
		{"youtube.com/@some.name-1/videos", RefHandle, "some.name-1"},
		{"https://youtube.com/channel/" + testID, RefID, testID},
		{"https://www.youtube.com/c/Veritasium", RefName, "Veritasium"},
		{"https://www.youtube.com/user/vsauce", RefName, "vsauce"},
		{"@handle", RefHandle, "handle"},
		{testID, RefID, testID},
		{"UCshort", RefName, "UCshort"},
		{"  cooking with dad ", RefName, "cooking with dad"},
	}
	for _, tt := range tests {
		got := ParseChannelQuery(tt.in)
		if got.Kind != tt.kind || got.Value != tt.val {
			t.Errorf("ParseChannelQuery(%q) = %+v, want {%v %q}", tt.in, got, tt.kind, tt.val)
		}
	}
}

func TestUploadsPlaylistID(t *testing.T) {
	if got := UploadsPlaylistID(testID); got != "UU"+testID[2:] {
		t.Errorf("got %q", got)
	}
	for _, bad := range []string{"", "UC", "HCabc"} {
		if got := UploadsPlaylistID(bad); got != "" {
			t.Errorf("UploadsPlaylistID(%q) = %q, want empty", bad, got)
		}
	}
}

const channelJSON = `{"items":[{"id":"` + testID + `","snippet":{"title":"Grill Dad","description":"bbq","customUrl":"@grilldad","thumbnails":{"high":{"url":"hi"},"medium":{"url":"med"}}},"statistics":{"subscriberCount":"7500","videoCount":"42"}}]}`

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New("key", time.Second)
	c.BaseURL = srv.URL
	return c
}

func TestResolveChannelByHandle(t *testing.T) {
	var gotHandle string
	mux := http.NewServeMux()
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		gotHandle = r.URL.Query().Get("forHandle")
		_, _ = io.WriteString(w, channelJSON)
	})
	c := newTestClient(t, mux)

	ch, err := c.ResolveChannel(context.Background(), "https://youtube.com/@grilldad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotHandle != "grilldad" {
		t.Errorf("forHandle = %q", gotHandle)
	}
	if ch.ChannelID != testID || ch.Title != "Grill Dad" || ch.SubscriberCount != 7500 || ch.VideoCount != 42 {
		t.Errorf("got %+v", ch)
	}
	if ch.Thumbnail != "med" {
		t.Errorf("avatar = %q, want medium rendition", ch.Thumbnail)
	}
	if ch.CustomURL == nil || *ch.CustomURL != "@grilldad" {
		t.Errorf("custom url = %v", ch.CustomURL)
	}
}

func TestResolveChannelNameFallsBackToSearch(t *testing.T) {
	var searched string
	mux := http.NewServeMux()
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("forHandle") != "" {
			_, _ = io.WriteString(w, `{"items":[]}`)
			return
		}
		if r.URL.Query().Get("id") != testID {
			t.Errorf("unexpected id lookup %q", r.URL.Query().Get("id"))
		}
		_, _ = io.WriteString(w, channelJSON)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		searched = r.URL.Query().Get("q")
		if r.URL.Query().Get("type") != "channel" {
			t.Errorf("type = %q", r.URL.Query().Get("type"))
		}
		_, _ = io.WriteString(w, `{"items":[{"id":{"channelId":"`+testID+`"},"snippet":{"channelId":"`+testID+`"}}]}`)
	})
	c := newTestClient(t, mux)

	ch, err := c.ResolveChannel(context.Background(), "grill dad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if searched != "grill dad" || ch.ChannelID != testID {
		t.Errorf("searched %q, got %+v", searched, ch)
	}
}

func TestResolveChannelErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[]}`)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[]}`)
	})
	c := newTestClient(t, mux)

	if _, err := c.ResolveChannel(context.Background(), "nobody"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown name: got %v", err)
	}
	if _, err := c.ResolveChannel(context.Background(), " "); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Errorf("empty input: got %v", err)
	}

	down := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quotaExceeded"}}`, http.StatusForbidden)
	}))
	if _, err := down.ResolveChannel(context.Background(), "@x"); !apperr.Is(err, apperr.KindUnavailable) {
		t.Errorf("api failure: got %v", err)
	}
}

func TestSearchChannels(t *testing.T) {
	var gotMax, gotQ string
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("maxResults")
		gotQ = r.URL.Query().Get("q")
		_, _ = io.WriteString(w, `{"items":[{"id":{"channelId":"B"}},{"id":{"channelId":"A"}},{"id":{"channelId":"gone"}}]}`)
	})
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "B,A,gone" {
			t.Errorf("batch ids = %q", r.URL.Query().Get("id"))
		}
		_, _ = io.WriteString(w, `{"items":[
			{"id":"A","snippet":{"title":"a"},"statistics":{"subscriberCount":"10","videoCount":"5"}},
			{"id":"B","snippet":{"title":"b"},"statistics":{"subscriberCount":"20","videoCount":"6"}}
		]}`)
	})
	c := newTestClient(t, mux)

	got, err := c.SearchChannels(context.Background(), []string{"bbq", "grilling"}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMax != "25" || gotQ != "bbq grilling" {
		t.Errorf("maxResults = %q, q = %q", gotMax, gotQ)
	}
	if len(got) != 2 || got[0].ChannelID != "B" || got[1].ChannelID != "A" {
		t.Errorf("got %+v, want B then A", got)
	}
	if got[0].SubscriberCount != 20 || got[0].VideoCount != 6 {
		t.Errorf("stats not mapped: %+v", got[0])
	}
}

func TestFetchRecentVideos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("playlistId"); got != "UU"+testID[2:] {
			t.Errorf("playlistId = %q", got)
		}
		if got := r.URL.Query().Get("maxResults"); got != "30" {
			t.Errorf("maxResults = %q", got)
		}
		_, _ = io.WriteString(w, `{"items":[{"contentDetails":{"videoId":"v1"}},{"contentDetails":{"videoId":"v2"}}]}`)
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("part"); got != "snippet,statistics,contentDetails" {
			t.Errorf("part = %q", got)
		}
		_, _ = io.WriteString(w, `{"items":[
			{"id":"v1","snippet":{"title":"One","publishedAt":"2026-05-01T10:00:00Z","thumbnails":{"maxres":{"url":"max"}}},"statistics":{"viewCount":"1200","likeCount":"30"},"contentDetails":{"duration":"PT12M"}},
			{"id":"v2","snippet":{"title":"Two","publishedAt":"bad"},"statistics":{},"contentDetails":{}}
		]}`)
	})
	c := newTestClient(t, mux)

	got, err := c.FetchRecentVideos(context.Background(), testID, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d videos, want 2", len(got))
	}
	v := got[0]
	if v.VideoID != "v1" || v.ViewCount != 1200 || v.Thumbnail != "max" || v.Duration == nil || *v.Duration != "PT12M" {
		t.Errorf("got %+v", v)
	}
	if v.LikeCount == nil || *v.LikeCount != 30 || v.CommentCount != nil {
		t.Errorf("engagement = %v / %v", v.LikeCount, v.CommentCount)
	}
	if !v.PublishedAt.Equal(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("published = %s", v.PublishedAt)
	}
	if got[1].ViewCount != 0 || got[1].Duration != nil || !got[1].PublishedAt.IsZero() {
		t.Errorf("missing fields not zero: %+v", got[1])
	}
}

func TestFetchRecentVideosMissingPlaylist(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"errors":[{"reason":"playlistNotFound"}]}}`, http.StatusNotFound)
	}))
	got, err := c.FetchRecentVideos(context.Background(), testID, 10)
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v; want empty, nil", got, err)
	}

	got, err = c.FetchRecentVideos(context.Background(), "not-a-channel", 10)
	if err != nil || len(got) != 0 {
		t.Errorf("bad id: got %v, %v; want empty, nil", got, err)
	}
}

func TestMissingAPIKey(t *testing.T) {
	c := New("", time.Second)
	if _, err := c.FetchVideos(context.Background(), []string{"v"}); err == nil {
		t.Error("expected error without api key")
	}
}

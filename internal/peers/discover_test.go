package peers

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"nextvideo/internal/apperr"
	"nextvideo/internal/model"
)

type fakeSearcher struct {
	got      []string
	gotLimit int
	out      []model.ChannelProfile
	err      error
}

func (f *fakeSearcher) SearchChannels(_ context.Context, keywords []string, maxResults int) ([]model.ChannelProfile, error) {
	f.got = keywords
	f.gotLimit = maxResults
	return f.out, f.err
}

func ch(id string, subs, videos int64) model.ChannelProfile {
	return model.ChannelProfile{ChannelID: id, Title: id, SubscriberCount: subs, VideoCount: videos}
}

func ids(list []model.ChannelProfile) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.ChannelID
	}
	return out
}

func TestFilterCandidates(t *testing.T) {
	band := model.PeerBand{Min: 10_000, Max: 50_000}
	in := []model.ChannelProfile{
		ch("low", 9_999, 40),
		ch("min", 10_000, 40),
		ch("mid", 20_000, 3),
		ch("few", 20_000, 2),
		ch("max", 50_000, 10),
		ch("high", 50_001, 10),
	}
	got := ids(FilterCandidates(in, band))
	want := []string{"min", "mid", "max"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiscover(t *testing.T) {
	band := model.PeerBand{Min: 1_000, Max: 10_000}
	s := &fakeSearcher{out: []model.ChannelProfile{ch("a", 5_000, 10), ch("b", 500, 10)}}

	got, err := Discover(context.Background(), s, []string{" cooking ", "", "baking"}, band, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(s.got, []string{"cooking", "baking"}) {
		t.Errorf("search terms = %v", s.got)
	}
	if s.gotLimit != 20 {
		t.Errorf("limit = %d, want 20", s.gotLimit)
	}
	if !reflect.DeepEqual(ids(got), []string{"a"}) {
		t.Errorf("got %v, want [a]", ids(got))
	}
}

func TestDiscoverErrors(t *testing.T) {
	band := model.PeerBand{Min: 1, Max: 2}

	_, err := Discover(context.Background(), &fakeSearcher{}, []string{" ", ""}, band, 10)
	if !apperr.Is(err, apperr.KindInvalidInput) {
		t.Errorf("empty keywords: got %v, want invalid input", err)
	}

	boom := errors.New("quota exhausted")
	_, err = Discover(context.Background(), &fakeSearcher{err: boom}, []string{"x"}, band, 10)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Errorf("search failure: got kind %v, want unavailable", apperr.KindOf(err))
	}
	if !errors.Is(err, boom) {
		t.Errorf("search failure should wrap cause, got %v", err)
	}
}

func TestExcludeChannel(t *testing.T) {
	in := []model.ChannelProfile{ch("self", 1, 5), ch("a", 1, 5), ch("b", 1, 5), ch("a", 1, 5), ch("self", 1, 5)}
	got := ids(ExcludeChannel(in, "self"))
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("got %v, want [a b]", got)
	}
}

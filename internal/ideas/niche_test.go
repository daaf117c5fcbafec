package ideas

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"nextvideo/internal/apperr"
	"nextvideo/internal/model"
)

func TestParseNiche(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain array", `["cooking", "baking", "desserts"]`, []string{"cooking", "baking", "desserts"}},
		{"fenced", "```json\n[\"a\", \"b\"]\n```", []string{"a", "b"}},
		{"prose around array", `Keywords: ["a", "b"] hope this helps`, []string{"a", "b"}},
		{"dedup and trim", `[" Cooking ", "cooking", "", "grill"]`, []string{"Cooking", "grill"}},
		{"capped", `["1","2","3","4","5","6","7"]`, []string{"1", "2", "3", "4", "5"}},
		{"quoted fallback", `keywords are "diy" and "woodworking", enjoy`, []string{"diy", "woodworking"}},
		{"non-string array falls to quotes", `[1, 2, 3]`, []string{"Fallback"}},
		{"nothing usable", `no idea`, []string{"Fallback"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseNiche(tt.text, "Fallback"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractNiche(t *testing.T) {
	ch := model.ChannelProfile{Title: "Grill Dad", Description: strings.Repeat("x", 600)}
	gen := &fakeGen{text: `["bbq"]`}
	titles := make([]string, 20)
	for i := range titles {
		titles[i] = "title-" + string(rune('a'+i))
	}

	got, err := ExtractNiche(context.Background(), gen, ch, titles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"bbq"}) {
		t.Errorf("got %v", got)
	}
	if strings.Contains(gen.prompt, strings.Repeat("x", 501)) {
		t.Error("description not truncated")
	}
	if !strings.Contains(gen.prompt, "title-o") || strings.Contains(gen.prompt, "title-p") {
		t.Error("prompt should list exactly the first 15 titles")
	}

	got, err = ExtractNiche(context.Background(), &fakeGen{text: "sorry"}, ch, nil)
	if err != nil || !reflect.DeepEqual(got, []string{"Grill Dad"}) {
		t.Errorf("unparseable: got %v, %v", got, err)
	}

	_, err = ExtractNiche(context.Background(), &fakeGen{err: errors.New("down")}, ch, nil)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Errorf("generator failure: got %v", err)
	}
}

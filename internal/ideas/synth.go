// Package ideas turns ranked outlier videos into video ideas that cite them.
package ideas

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"nextvideo/internal/apperr"
	"nextvideo/internal/genai"
	"nextvideo/internal/model"
)

const (
	DefaultWorkingSet   = 20
	IdeaCount           = 5
	MaxEvidence         = 3
	recentTitlesInBrief = 10
)

var printer = message.NewPrinter(language.English)

// Synthesizer prompts a generator for ideas and pins every citation to a real
// outlier from the working set.
type Synthesizer struct {
	Gen        genai.Generator
	WorkingSet int
	Now        func() time.Time
}

func NewSynthesizer(gen genai.Generator) *Synthesizer {
	return &Synthesizer{Gen: gen, WorkingSet: DefaultWorkingSet, Now: time.Now}
}

// Synthesize returns up to IdeaCount ideas. Output that cannot be parsed
// yields an empty slice and a nil error; a generator that could not answer
// yields an error and parsing is skipped.
func (s *Synthesizer) Synthesize(ctx context.Context, channel model.ChannelProfile, niche []string, outliers []model.OutlierVideo, recentTitles []string) ([]model.VideoIdea, error) {
	working := s.workingSet(outliers)
	if len(working) == 0 {
		return nil, apperr.Invalid("generate-ideas", "no outlier videos to build ideas from")
	}
	text, err := s.Gen.Generate(ctx, BuildPrompt(channel, niche, working, recentTitles, s.now()))
	if err != nil {
		return nil, apperr.Unavailable("generate-ideas", err)
	}
	return ParseIdeas(text, working), nil
}

func (s *Synthesizer) workingSet(outliers []model.OutlierVideo) []model.OutlierVideo {
	n := s.WorkingSet
	if n <= 0 {
		n = DefaultWorkingSet
	}
	if len(outliers) > n {
		return outliers[:n]
	}
	return outliers
}

func (s *Synthesizer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// BuildPrompt lists the working set with the bracket indices the model must
// cite.
func BuildPrompt(channel model.ChannelProfile, niche []string, working []model.OutlierVideo, recentTitles []string, now time.Time) string {
	var b strings.Builder
	printer.Fprintf(&b, "You are a YouTube strategist. A creator in the %q niche wants video ideas based on what's working for channels one step ahead of them.\n\n", strings.Join(niche, ", "))
	printer.Fprintf(&b, "Their channel: %s (%d subscribers)\n", channel.Title, channel.SubscriberCount)
	if len(recentTitles) > 0 {
		b.WriteString("Their recent videos (do not repeat these):\n")
		for i, t := range recentTitles {
			if i >= recentTitlesInBrief {
				break
			}
			b.WriteString("- ")
			b.WriteString(t)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nThese are outlier videos (videos that got 3x+ their channel's median views) from similar but slightly larger channels. Each has a number in brackets:\n\n")
	for i, v := range working {
		fmt.Fprintf(&b, "[%d] ", i)
		printer.Fprintf(&b, "%q by %s (%d views, %.1fx their median)\n", v.Title, v.ChannelTitle, v.ViewCount, v.Multiplier)
	}

	year := now.Year()
	fmt.Fprintf(&b, "\nGenerate exactly %d video ideas for this creator. Each idea should:\n", IdeaCount)
	b.WriteString("1. Be inspired by what's working (the outlier patterns) but adapted for their audience size and style\n")
	b.WriteString("2. Have a compelling, specific title (not generic)\n")
	fmt.Fprintf(&b, "3. If the title mentions a year, use %d or later, never an earlier year\n", year)
	b.WriteString("4. Include a 1-2 sentence insight explaining WHY this topic works and how to approach it\n")
	fmt.Fprintf(&b, "5. Reference 1-%d evidence videos using their bracket numbers. Videos cited by one idea MUST come from different channels. Spread the evidence across the full list instead of reusing the same videos.\n\n", MaxEvidence)
	b.WriteString("Return ONLY valid JSON in this exact format:\n")
	b.WriteString("[\n  {\n    \"title\": \"Video title idea\",\n    \"insight\": \"Why this works and how to approach it\",\n    \"evidence\": [0, 3, 7]\n  }\n]\n\n")
	b.WriteString("The \"evidence\" array must contain the bracket numbers (integers) of the outlier videos that inspired each idea.")
	return b.String()
}

type rawIdea struct {
	Title    json.RawMessage   `json:"title"`
	Insight  json.RawMessage   `json:"insight"`
	Evidence []json.RawMessage `json:"evidence"`
}

// ParseIdeas reconciles model output against working. Citations outside the
// working set are dropped, one citation per channel is kept per idea (first
// listed wins), and at most MaxEvidence survive. An idea left with nothing is
// given the first outlier no earlier idea cited, else any outlier by position.
// Items that are not objects with a non-empty string title are skipped.
// Returns an empty slice when text holds no JSON array of ideas.
func ParseIdeas(text string, working []model.OutlierVideo) []model.VideoIdea {
	items, ok := decodeObjects(text)
	if !ok || len(working) == 0 {
		return []model.VideoIdea{}
	}

	used := make(map[int]bool, len(working))
	out := make([]model.VideoIdea, 0, IdeaCount)
	for _, raw := range items {
		if len(out) == IdeaCount {
			break
		}
		var ri rawIdea
		if !isObject(raw) || json.Unmarshal(raw, &ri) != nil {
			continue
		}
		title, ok := asString(ri.Title)
		title = strings.TrimSpace(title)
		if !ok || title == "" {
			continue
		}

		cited := citedIndices(ri.Evidence, working)
		if len(cited) == 0 {
			cited = []int{backfill(len(out), working, used)}
		}

		idea := model.VideoIdea{
			Title:    title,
			Insight:  stringField(ri.Insight),
			Evidence: make([]model.EvidenceVideo, 0, len(cited)),
		}
		for _, idx := range cited {
			used[idx] = true
			idea.Evidence = append(idea.Evidence, model.EvidenceFrom(working[idx]))
		}
		out = append(out, idea)
	}
	return out
}

func citedIndices(evidence []json.RawMessage, working []model.OutlierVideo) []int {
	channels := make(map[string]bool, MaxEvidence)
	var out []int
	for _, raw := range evidence {
		idx, ok := asIndex(raw)
		if !ok || idx < 0 || idx >= len(working) {
			continue
		}
		ch := working[idx].ChannelID
		if channels[ch] {
			continue
		}
		channels[ch] = true
		out = append(out, idx)
		if len(out) == MaxEvidence {
			break
		}
	}
	return out
}

// backfill picks a substitute citation for an idea that cites nothing: the
// first outlier no earlier idea used, else one chosen by idea position.
func backfill(ideaIdx int, working []model.OutlierVideo, used map[int]bool) int {
	for i := range working {
		if !used[i] {
			return i
		}
	}
	return ideaIdx % len(working)
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if s, ok := asString(raw); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

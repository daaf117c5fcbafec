package ideas

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"nextvideo/internal/apperr"
	"nextvideo/internal/genai"
	"nextvideo/internal/model"
)

const (
	MaxNicheKeywords  = 5
	nicheTitleSample  = 15
	descriptionPrefix = 500
)

var quotedRe = regexp.MustCompile(`"([^"]+)"`)

// ExtractNiche asks gen for the topic keywords describing channel. Output the
// parser cannot read degrades to quoted strings found in the text, then to the
// channel's own title. Only a failing generator is an error.
func ExtractNiche(ctx context.Context, gen genai.Generator, channel model.ChannelProfile, recentTitles []string) ([]string, error) {
	text, err := gen.Generate(ctx, nichePrompt(channel, recentTitles))
	if err != nil {
		return nil, apperr.Unavailable("extract-niche", err)
	}
	return ParseNiche(text, channel.Title), nil
}

// ParseNiche reads a keyword list out of model output.
func ParseNiche(text, fallback string) []string {
	if items, ok := decodeArray(text); ok {
		var out []string
		for _, raw := range items {
			if s, ok := asString(raw); ok {
				out = appendKeyword(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	var out []string
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		out = appendKeyword(out, m[1])
	}
	if len(out) > 0 {
		return out
	}
	return []string{fallback}
}

func appendKeyword(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || len(out) >= MaxNicheKeywords {
		return out
	}
	for _, existing := range out {
		if strings.EqualFold(existing, s) {
			return out
		}
	}
	return append(out, s)
}

func nichePrompt(channel model.ChannelProfile, recentTitles []string) string {
	desc := strings.TrimSpace(channel.Description)
	if r := []rune(desc); len(r) > descriptionPrefix {
		desc = string(r[:descriptionPrefix])
	}
	if desc == "" {
		desc = "N/A"
	}

	var b strings.Builder
	b.WriteString("Analyze this YouTube channel and extract 3-5 niche keywords that describe what topics they cover. ")
	b.WriteString("These keywords will be used to search for similar channels.\n\n")
	fmt.Fprintf(&b, "Channel: %s\n", channel.Title)
	fmt.Fprintf(&b, "Description: %s\n", desc)
	b.WriteString("Recent video titles:\n")
	for i, t := range recentTitles {
		if i >= nicheTitleSample {
			break
		}
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	b.WriteString("\nReturn ONLY a JSON array of 3-5 keyword strings. Example: [\"productivity\", \"time management\", \"self improvement\"]\n")
	b.WriteString("No explanation, just the JSON array.")
	return b.String()
}

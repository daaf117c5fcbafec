package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
)

// Gemini calls generateContent. MaxOutputTokens counts thinking tokens on
// 2.5 models; zero leaves the reply uncapped.
type Gemini struct {
	APIKey          string
	Model           string
	Endpoint        string
	Temperature     float64
	MaxOutputTokens int
	HTTPClient      *http.Client
}

func NewGemini(apiKey, model string, timeout time.Duration) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{
		APIKey:      apiKey,
		Model:       model,
		Endpoint:    defaultGeminiEndpoint,
		Temperature: 0.7,
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("missing GEMINI_API_KEY")
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(g.Endpoint, "/"), url.PathEscape(g.Model), url.QueryEscape(g.APIKey))
	payload := map[string]any{
		"contents": []map[string]any{
			{
				"role": "user",
				"parts": []map[string]any{
					{"text": prompt},
				},
			},
		},
	}
	genConfig := map[string]any{"temperature": g.Temperature}
	if g.MaxOutputTokens > 0 {
		genConfig["maxOutputTokens"] = g.MaxOutputTokens
	}
	payload["generationConfig"] = genConfig
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		if isTimeoutErr(err) {
			return "", fmt.Errorf("gemini request timeout")
		}
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini http %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("gemini response missing content")
	}

	var b strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini: %w", errEmpty)
	}
	return text, nil
}

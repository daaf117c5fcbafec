package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultDeepSeekModel   = "deepseek-chat"
	DefaultDeepSeekBaseURL = "https://api.deepseek.com"
)

// DeepSeek talks to an OpenAI-compatible chat completions endpoint.
type DeepSeek struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	HTTPClient  *http.Client
}

func NewDeepSeek(apiKey, model, baseURL string, timeout time.Duration) *DeepSeek {
	if model == "" {
		model = DefaultDeepSeekModel
	}
	if baseURL == "" {
		baseURL = DefaultDeepSeekBaseURL
	}
	return &DeepSeek{
		APIKey:      apiKey,
		Model:       model,
		BaseURL:     baseURL,
		Temperature: 0.7,
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

func (d *DeepSeek) Name() string { return "deepseek" }

func (d *DeepSeek) Generate(ctx context.Context, prompt string) (string, error) {
	if d.APIKey == "" {
		return "", fmt.Errorf("missing DEEPSEEK_API_KEY")
	}
	payload := map[string]any{
		"model": d.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": d.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(d.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.APIKey)

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		if isTimeoutErr(err) {
			return "", fmt.Errorf("deepseek request timeout")
		}
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("deepseek http %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode deepseek response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("deepseek response missing choices")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("deepseek: %w", errEmpty)
	}
	return text, nil
}

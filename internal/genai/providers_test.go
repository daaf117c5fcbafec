package genai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			gotPrompt = body.Contents[0].Parts[0].Text
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"[\"a\","},{"text":" \"b\"]"}]}}]}`)
	}))
	defer srv.Close()

	g := NewGemini("k123", "", time.Second)
	g.Endpoint = srv.URL
	got, err := g.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `["a", "b"]` {
		t.Errorf("got %q", got)
	}
	if gotPath != "/models/"+DefaultGeminiModel+":generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "k123" || gotPrompt != "hello" {
		t.Errorf("key = %q, prompt = %q", gotKey, gotPrompt)
	}
}

func TestGeminiOutputCap(t *testing.T) {
	var gotConfig map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GenerationConfig map[string]any `json:"generationConfig"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotConfig = body.GenerationConfig
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer srv.Close()

	g := NewGemini("k", "", time.Second)
	g.Endpoint = srv.URL
	if _, err := g.Generate(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := gotConfig["maxOutputTokens"]; ok {
		t.Errorf("default request capped output: %v", gotConfig)
	}
	if gotConfig["temperature"] != 0.7 {
		t.Errorf("temperature = %v, want 0.7", gotConfig["temperature"])
	}

	g.MaxOutputTokens = 8192
	if _, err := g.Generate(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotConfig["maxOutputTokens"] != float64(8192) {
		t.Errorf("maxOutputTokens = %v, want 8192", gotConfig["maxOutputTokens"])
	}
}

func TestGeminiFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusServiceUnavailable, `{"error":"overloaded"}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"empty text", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`},
		{"bad json", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			g := NewGemini("k", "m", time.Second)
			g.Endpoint = srv.URL
			if _, err := g.Generate(context.Background(), "x"); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := NewGemini("", "", time.Second).Generate(context.Background(), "x"); err == nil {
		t.Error("missing key should fail")
	}
}

func TestDeepSeekGenerate(t *testing.T) {
	var gotAuth, gotModel, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":" ideas "}}]}`)
	}))
	defer srv.Close()

	d := NewDeepSeek("sk-1", "", srv.URL+"/", time.Second)
	got, err := d.Generate(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ideas" {
		t.Errorf("got %q", got)
	}
	if gotAuth != "Bearer sk-1" || gotModel != DefaultDeepSeekModel || gotPath != "/chat/completions" {
		t.Errorf("auth = %q, model = %q, path = %q", gotAuth, gotModel, gotPath)
	}
}

func TestDeepSeekFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	if _, err := NewDeepSeek("k", "", srv.URL, time.Second).Generate(context.Background(), "x"); err == nil {
		t.Error("no choices should fail")
	}
	if _, err := NewDeepSeek("", "", srv.URL, time.Second).Generate(context.Background(), "x"); err == nil {
		t.Error("missing key should fail")
	}
}

func TestTimeoutIsReported(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	d := NewDeepSeek("k", "", srv.URL, 50*time.Millisecond)
	_, err := d.Generate(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("got %v, want timeout", err)
	}
}

func TestIsTimeoutErr(t *testing.T) {
	if isTimeoutErr(nil) {
		t.Error("nil is not a timeout")
	}
	if !isTimeoutErr(context.DeadlineExceeded) {
		t.Error("deadline exceeded is a timeout")
	}
	if isTimeoutErr(errors.New("connection refused")) {
		t.Error("refused is not a timeout")
	}
}

// Package genai wraps the text-generation providers behind one Generate call.
package genai

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Generator turns a prompt into text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

var errEmpty = errors.New("empty response")

func isTimeoutErr(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "client.timeout") || strings.Contains(msg, "timeout")
}

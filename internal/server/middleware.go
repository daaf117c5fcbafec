package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"nextvideo/internal/metrics"
)

// NewRequestLogger logs each request as one structured line.
func NewRequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		evt := log.Info()
		if status >= 500 {
			evt = log.Error()
		} else if status >= 400 {
			evt = log.Warn()
		}

		evt.
			Str("method", c.Method()).
			Str("path", sanitizeEndpoint(c.Path())).
			Int("status", status).
			Dur("duration_ms", duration).
			Int("bytes_sent", len(c.Response().Body())).
			Msg("request")

		return err
	}
}

// MetricsMiddleware records request duration and in-flight count.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// fiber hands out strings backed by the request buffer; copy before
		// the handler runs.
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(time.Since(start).Seconds())
		metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint collapses share ids so they neither reach logs nor blow up
// label cardinality.
func sanitizeEndpoint(path string) string {
	if strings.HasPrefix(path, "/api/share/") {
		return "/api/share/:id"
	}
	return path
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}

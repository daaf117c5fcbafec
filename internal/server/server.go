// Package server exposes the idea pipeline over HTTP.
package server

import (
	"context"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/rs/zerolog"

	"nextvideo/internal/model"
	"nextvideo/internal/pipeline"
)

// Pipeline is the part of pipeline.Service the handlers call.
type Pipeline interface {
	Analyze(ctx context.Context, query string) (pipeline.Analysis, error)
	FindPeers(ctx context.Context, req pipeline.PeerRequest) (pipeline.PeerResult, error)
	GenerateIdeas(ctx context.Context, req pipeline.IdeaRequest) (model.Generation, error)
	History(ctx context.Context, owner model.Owner) ([]model.Generation, error)
	Share(ctx context.Context, id string) (model.Generation, error)
	MigrateSession(ctx context.Context, sessionID, userID string) (int64, error)
}

type Handlers struct {
	svc Pipeline
	log zerolog.Logger
}

func NewHandlers(svc Pipeline, log zerolog.Logger) *Handlers {
	return &Handlers{svc: svc, log: log}
}

// New builds the fiber app with its middleware stack and routes. health may
// be nil.
func New(h *Handlers, health *HealthHandler, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "nextvideo API",
		ServerHeader: "nextvideo",
	})

	app.Use(recoverer.New())
	app.Use(NewRequestLogger(log))
	app.Use(MetricsMiddleware())

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if health != nil {
		app.Get("/health/ready", health.Ready)
	}
	app.Get("/metrics", MetricsHandler())

	api := app.Group("/api")
	api.Post("/analyze-channel", h.AnalyzeChannel)
	api.Post("/find-peers", h.FindPeers)
	api.Post("/generate-ideas", h.GenerateIdeas)
	api.Get("/history", h.History)
	api.Post("/history/migrate", h.MigrateHistory)
	api.Get("/share/:id", h.Share)

	return app
}

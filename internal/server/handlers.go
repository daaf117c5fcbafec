package server

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"nextvideo/internal/model"
	"nextvideo/internal/pipeline"
)

const (
	headerUserID    = "X-User-ID"
	headerSessionID = "X-Session-ID"
)

type analyzeRequest struct {
	ChannelURL string `json:"channel_url"`
}

type findPeersRequest struct {
	ChannelID       string   `json:"channel_id"`
	SubscriberCount int64    `json:"subscriber_count"`
	Niche           []string `json:"niche"`
	SessionID       string   `json:"session_id"`
}

type generateIdeasRequest struct {
	Channel      model.ChannelProfile `json:"channel"`
	Niche        []string             `json:"niche"`
	Peers        []model.PeerSummary  `json:"peers"`
	Outliers     []model.OutlierVideo `json:"outliers"`
	RecentTitles []string             `json:"recent_titles"`
	SessionID    string               `json:"session_id"`
}

type migrateRequest struct {
	SessionID string `json:"session_id"`
}

// owner identifies the caller. Authentication happens upstream; the user id
// arrives in a header and the anonymous session id in a header or the body.
func owner(c fiber.Ctx, bodySession string) model.Owner {
	o := model.Owner{
		UserID:    strings.TrimSpace(c.Get(headerUserID)),
		SessionID: strings.TrimSpace(c.Get(headerSessionID)),
	}
	if o.SessionID == "" {
		o.SessionID = strings.TrimSpace(bodySession)
	}
	return o
}

// AnalyzeChannel handles POST /api/analyze-channel
func (h *Handlers) AnalyzeChannel(c fiber.Ctx) error {
	var req analyzeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if strings.TrimSpace(req.ChannelURL) == "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "Please provide a channel URL, handle, or name")
	}

	a, err := h.svc.Analyze(c.Context(), req.ChannelURL)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(a)
}

// FindPeers handles POST /api/find-peers
func (h *Handlers) FindPeers(c fiber.Ctx) error {
	var req findPeersRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.ChannelID == "" || len(req.Niche) == 0 {
		return ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "channel_id and niche are required")
	}

	res, err := h.svc.FindPeers(c.Context(), pipeline.PeerRequest{
		Owner:           owner(c, req.SessionID),
		ChannelID:       req.ChannelID,
		SubscriberCount: req.SubscriberCount,
		Niche:           req.Niche,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(res)
}

// GenerateIdeas handles POST /api/generate-ideas
func (h *Handlers) GenerateIdeas(c fiber.Ctx) error {
	var req generateIdeasRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.Channel.ChannelID == "" || len(req.Niche) == 0 || len(req.Outliers) == 0 {
		return ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "channel, niche and outliers are required")
	}

	g, err := h.svc.GenerateIdeas(c.Context(), pipeline.IdeaRequest{
		Owner:        owner(c, req.SessionID),
		Channel:      req.Channel,
		Niche:        req.Niche,
		Peers:        req.Peers,
		Outliers:     req.Outliers,
		RecentTitles: req.RecentTitles,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"ideas":         g.Ideas,
		"generation_id": g.ID,
	})
}

// History handles GET /api/history
func (h *Handlers) History(c fiber.Ctx) error {
	o := owner(c, c.Query("session_id"))
	list, err := h.svc.History(c.Context(), o)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"generations": list})
}

// MigrateHistory handles POST /api/history/migrate
func (h *Handlers) MigrateHistory(c fiber.Ctx) error {
	var req migrateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	o := owner(c, req.SessionID)
	if o.UserID == "" || o.SessionID == "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "signed-in user and session_id are required")
	}

	n, err := h.svc.MigrateSession(c.Context(), o.SessionID, o.UserID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"migrated": n})
}

// Share handles GET /api/share/:id
func (h *Handlers) Share(c fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "generation id is required")
	}
	g, err := h.svc.Share(c.Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(g)
}

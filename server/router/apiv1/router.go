// Package apiv1 exposes the conversational engine over a thin HTTP layer.
package apiv1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lithammer/shortuuid/v4"

	"github.com/mellowtone/tunescout/internal/errors"
	"github.com/mellowtone/tunescout/server/chat"
	"github.com/mellowtone/tunescout/server/download"
)

// Handler serves the v1 conversational API.
type Handler struct {
	svc     *chat.Service
	limiter *rateLimiter
	logger  *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(svc *chat.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:     svc,
		limiter: newRateLimiter(),
		logger:  logger,
	}
}

// Register mounts the v1 routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	g := e.Group("/api/v1")
	g.Use(h.rateLimit)
	g.POST("/chat", h.handleChat)
	g.POST("/download", h.handleDownload)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type downloadRequest struct {
	SessionID string `json:"session_id"`
}

type downloadResponse struct {
	SessionID string            `json:"session_id"`
	Downloads []download.Result `json:"downloads"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *Handler) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "message is required"})
	}
	if req.SessionID == "" {
		req.SessionID = shortuuid.New()
	}

	reply, err := h.svc.Ask(c.Request().Context(), req.Message, req.SessionID)
	if err != nil {
		return h.turnError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"session_id": req.SessionID,
		"reply":      reply.Text,
		"downloads":  reply.Downloads,
	})
}

func (h *Handler) handleDownload(c echo.Context) error {
	var req downloadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "session_id is required"})
	}

	results := h.svc.DownloadStored(c.Request().Context(), req.SessionID)
	return c.JSON(http.StatusOK, downloadResponse{
		SessionID: req.SessionID,
		Downloads: results,
	})
}

// turnError maps engine failures to HTTP statuses. Retrieval and index
// failures are the only error-class responses; everything else the
// orchestrator already degrades into plain-text replies.
func (h *Handler) turnError(c echo.Context, err error) error {
	code := errors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidQuery:
		status = http.StatusBadRequest
	case errors.ErrCodeRetrievalUnavailable, errors.ErrCodeLLMUnavailable:
		status = http.StatusBadGateway
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}

	h.logger.Error("chat turn failed", "error", err, "code", string(code))
	return c.JSON(status, errorResponse{Error: err.Error(), Code: string(code)})
}

func (h *Handler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.limiter.Allow(c.RealIP()) {
			return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		}
		return next(c)
	}
}

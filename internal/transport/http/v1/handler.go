// Package v1 provides the public HTTP API for the orchestration
// service.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
	"github.com/KraftonexStudios/hackwave-sub001/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the public routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Session API
	e.POST("/v1/sessions", h.CreateSession)
	e.GET("/v1/sessions/:session_id", h.GetSession)
	e.POST("/v1/sessions/:session_id/cancel", h.CancelSession)
	e.GET("/v1/sessions/:session_id/rounds", h.ListRounds)
	e.POST("/v1/sessions/:session_id/rounds", h.StartRound)
	e.POST("/v1/sessions/:session_id/rounds/stream", h.StreamRound)

	// Round API
	e.GET("/v1/rounds/:round_id", h.GetRound)
	e.GET("/v1/rounds/:round_id/events", h.GetRoundEvents)
	e.GET("/v1/rounds/:round_id/events/stream", h.StreamRoundEvents)
	e.POST("/v1/rounds/:round_id/feedback", h.SubmitFeedback)
	e.POST("/v1/rounds/:round_id/finalize", h.FinalizeRound)
	e.POST("/v1/validations/:result_id/select", h.SelectValidationResult)

	// Agent registry API
	e.POST("/v1/agents", h.RegisterAgent)
	e.GET("/v1/agents", h.ListAgents)
	e.GET("/v1/agents/:agent_id", h.GetAgent)

	// Generation provider API
	e.GET("/v1/models", h.ListModels)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// requestUser resolves the acting user from the X-User-ID header.
// Single-tenant deployments omit the header and share the default user.
func requestUser(c echo.Context) string {
	if id := c.Request().Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "default"
}

// errorResponse maps service errors onto transport status codes.
func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrCapacityExceeded):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRoundConflict),
		errors.Is(err, domain.ErrSessionNotActive),
		errors.Is(err, domain.ErrRoundNotOpen):
		status = http.StatusConflict
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/KraftonexStudios/hackwave-sub001/internal/service"
)

// CreateSessionRequest is the request to open a session.
type CreateSessionRequest struct {
	Query     string   `json:"query"`
	AgentIDs  []string `json:"agent_ids,omitempty"`
	MaxRounds int      `json:"max_rounds,omitempty"`
}

// CreateSession opens a new session.
// POST /v1/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	session, err := h.service.CreateSession(ctx, &service.CreateSessionRequest{
		UserID:    requestUser(c),
		Query:     req.Query,
		AgentIDs:  req.AgentIDs,
		MaxRounds: req.MaxRounds,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, session)
}

// GetSession fetches a session owned by the caller.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := h.service.GetSession(ctx, c.Param("session_id"), requestUser(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, session)
}

// CancelSession cancels a session. Cancelling twice is a no-op.
// POST /v1/sessions/:session_id/cancel
func (h *Handler) CancelSession(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := h.service.CancelSession(ctx, c.Param("session_id"), requestUser(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, session)
}

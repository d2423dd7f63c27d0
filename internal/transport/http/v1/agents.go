package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/KraftonexStudios/hackwave-sub001/internal/service"
)

// RegisterAgent registers a new agent.
// POST /v1/agents
func (h *Handler) RegisterAgent(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.RegisterAgentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	agent, err := h.service.RegisterAgent(ctx, &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, agent)
}

// ListAgents lists all registered agents.
// GET /v1/agents
func (h *Handler) ListAgents(c echo.Context) error {
	ctx := c.Request().Context()

	agents, err := h.service.ListAgents(ctx)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"agents": agents,
	})
}

// GetAgent gets a specific agent by ID.
// GET /v1/agents/:agent_id
func (h *Handler) GetAgent(c echo.Context) error {
	ctx := c.Request().Context()

	agent, err := h.service.GetAgent(ctx, c.Param("agent_id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, agent)
}

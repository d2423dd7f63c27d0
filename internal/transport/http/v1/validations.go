package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SelectValidationRequest sets the curation flag of a validation
// result. Omitting the field selects the result.
type SelectValidationRequest struct {
	Selected *bool `json:"selected"`
}

// SelectValidationResult marks a validation result as selected by the
// session owner, or clears the mark.
// POST /v1/validations/:result_id/select
func (h *Handler) SelectValidationResult(c echo.Context) error {
	ctx := c.Request().Context()

	var req SelectValidationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	selected := true
	if req.Selected != nil {
		selected = *req.Selected
	}

	result, err := h.service.SelectValidationResult(ctx, c.Param("result_id"), requestUser(c), selected)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

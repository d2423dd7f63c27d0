package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
	"github.com/KraftonexStudios/hackwave-sub001/internal/service"
)

// StartRound starts the next round and runs it detached. The caller
// follows progress over the events stream or the session feed.
// POST /v1/sessions/:session_id/rounds
func (h *Handler) StartRound(c echo.Context) error {
	ctx := c.Request().Context()

	round, err := h.service.StartRound(ctx, c.Param("session_id"), requestUser(c), service.StartRoundOptions{})
	if err != nil {
		return errorResponse(c, err)
	}
	h.service.RunDetached(round)

	return c.JSON(http.StatusAccepted, round)
}

// ListRounds lists the rounds of a session in order.
// GET /v1/sessions/:session_id/rounds
func (h *Handler) ListRounds(c echo.Context) error {
	ctx := c.Request().Context()

	rounds, err := h.service.ListSessionRounds(ctx, c.Param("session_id"), requestUser(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"rounds": rounds,
	})
}

// GetRound returns a round with its responses, validation results and
// feedback.
// GET /v1/rounds/:round_id
func (h *Handler) GetRound(c echo.Context) error {
	ctx := c.Request().Context()

	detail, err := h.service.GetRoundDetail(ctx, c.Param("round_id"), requestUser(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, detail)
}

// GetRoundEvents returns a page of the round's event journal.
// GET /v1/rounds/:round_id/events
func (h *Handler) GetRoundEvents(c echo.Context) error {
	ctx := c.Request().Context()

	afterSeq := int64(0)
	if v := c.QueryParam("after_seq"); v != "" {
		if val, err := strconv.ParseInt(v, 10, 64); err == nil {
			afterSeq = val
		}
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			limit = val
		}
	}

	events, err := h.service.ListRoundEvents(ctx, c.Param("round_id"), requestUser(c), afterSeq, limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// FeedbackRequest is a batch of reviewer verdicts for a round.
type FeedbackRequest struct {
	Items []FeedbackItemRequest `json:"items"`
}

// FeedbackItemRequest is one verdict, optionally targeting a response.
type FeedbackItemRequest struct {
	ResponseID string `json:"response_id,omitempty"`
	Verdict    string `json:"verdict"`
	Comment    string `json:"comment,omitempty"`
	Priority   int    `json:"priority,omitempty"`
}

// SubmitFeedback records reviewer verdicts for a round awaiting
// feedback.
// POST /v1/rounds/:round_id/feedback
func (h *Handler) SubmitFeedback(c echo.Context) error {
	ctx := c.Request().Context()

	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	items := make([]service.FeedbackItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.FeedbackItem{
			ResponseID: item.ResponseID,
			Verdict:    domain.FeedbackVerdict(item.Verdict),
			Comment:    item.Comment,
			Priority:   item.Priority,
		}
	}

	round, err := h.service.SubmitFeedback(ctx, c.Param("round_id"), requestUser(c), items)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, round)
}

// FinalizeRequest carries the caller's continuation intent.
type FinalizeRequest struct {
	Continue bool `json:"continue"`
}

// FinalizeRound closes a round and either continues the session with a
// new round or concludes it.
// POST /v1/rounds/:round_id/finalize
func (h *Handler) FinalizeRound(c echo.Context) error {
	ctx := c.Request().Context()

	var req FinalizeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	result, err := h.service.FinalizeRound(ctx, c.Param("round_id"), requestUser(c), req.Continue)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

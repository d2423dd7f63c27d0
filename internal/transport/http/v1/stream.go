package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
	"github.com/KraftonexStudios/hackwave-sub001/internal/service"
	"github.com/KraftonexStudios/hackwave-sub001/internal/stream"
)

// eventPollInterval is how often the journal follower polls for new
// events.
const eventPollInterval = 250 * time.Millisecond

// sseSink streams run events to one HTTP response as server-sent
// events. The emitter serializes writes, so the sink needs no lock.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

var _ stream.Sink = (*sseSink)(nil)

func (s *sseSink) Write(ctx context.Context, event *stream.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// writeSSEHeaders commits the response as an event stream.
func writeSSEHeaders(c echo.Context) {
	h := c.Response().Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	// Disable proxy buffering so events reach the client as they happen.
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
}

// StreamRound starts the next round and runs it on this request,
// streaming its events as SSE. Disconnecting cancels the run.
// POST /v1/sessions/:session_id/rounds/stream
func (h *Handler) StreamRound(c echo.Context) error {
	ctx := c.Request().Context()

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
	}

	round, err := h.service.StartRound(ctx, c.Param("session_id"), requestUser(c), service.StartRoundOptions{})
	if err != nil {
		return errorResponse(c, err)
	}

	writeSSEHeaders(c)

	em := h.service.NewRunEmitter(round, &sseSink{w: c.Response().Writer, flusher: flusher})
	// A run failure has already been streamed and journaled as an error
	// event, so the response stays a clean SSE stream either way.
	h.service.ExecuteRound(ctx, round, em)
	return nil
}

// journalEnvelope mirrors the live wire envelope when replaying
// journaled events.
type journalEnvelope struct {
	Seq     int64            `json:"seq"`
	Ts      int64            `json:"ts"`
	Type    domain.EventType `json:"type"`
	Payload json.RawMessage  `json:"payload,omitempty"`
}

// StreamRoundEvents replays the round's journal as SSE and follows it
// until the run reaches its terminal event. Observers of a detached
// run catch up and then see new events as they are journaled.
// GET /v1/rounds/:round_id/events/stream
func (h *Handler) StreamRoundEvents(c echo.Context) error {
	ctx := c.Request().Context()
	roundID := c.Param("round_id")
	user := requestUser(c)

	// Resolve access before committing to the stream.
	round, err := h.service.GetRound(ctx, roundID, user)
	if err != nil {
		return errorResponse(c, err)
	}

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
	}

	afterSeq := int64(0)
	if v := c.QueryParam("after_seq"); v != "" {
		if val, err := strconv.ParseInt(v, 10, 64); err == nil {
			afterSeq = val
		}
	}

	writeSSEHeaders(c)

	ticker := time.NewTicker(eventPollInterval)
	defer ticker.Stop()

	// The run settles the round status before journaling its terminal
	// event, so after seeing a settled round we drain once more before
	// giving up on the journal.
	settled := false
	for {
		events, err := h.service.ListRoundEvents(ctx, roundID, user, afterSeq, 0)
		if err != nil {
			return nil
		}

		for _, evt := range events {
			data, err := json.Marshal(journalEnvelope{Seq: evt.Seq, Ts: evt.Ts, Type: evt.Type, Payload: evt.Payload})
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(c.Response().Writer, "event: %s\ndata: %s\n\n", evt.Type, data); err != nil {
				return nil
			}
			flusher.Flush()
			afterSeq = evt.Seq

			if evt.Type.Terminal() {
				return nil
			}
		}

		if len(events) == 0 {
			if settled {
				return nil
			}
			round, err = h.service.GetRound(ctx, roundID, user)
			if err != nil {
				return nil
			}
			settled = round.Status != domain.RoundStatusActive && round.Status != domain.RoundStatusProcessing
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

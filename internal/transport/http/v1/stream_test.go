package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
	"github.com/KraftonexStudios/hackwave-sub001/internal/service"
)

func TestStreamRoundInline(t *testing.T) {
	e := echo.New()
	h, svc, st := newTestHandler(t)
	session := createTestSession(t, svc, "default")

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+session.SessionID+"/rounds/stream", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/sessions/:session_id/rounds/stream")
	c.SetParamNames("session_id")
	c.SetParamValues(session.SessionID)

	require.NoError(t, h.StreamRound(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)

	body := rec.Body.String()
	assert.Contains(t, body, "event: node_added")
	assert.Contains(t, body, "event: agent_processing")
	assert.Contains(t, body, "event: validation_result")
	assert.Contains(t, body, "event: complete")

	// The last frame is the terminal event.
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	assert.True(t, strings.HasPrefix(frames[len(frames)-1], "event: complete"))

	rounds, err := st.ListRounds(context.Background(), session.SessionID)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, domain.RoundStatusAwaitingFeedback, rounds[0].Status)
}

func TestStreamRoundStartErrors(t *testing.T) {
	e := echo.New()
	h, svc, _ := newTestHandler(t)
	session := createTestSession(t, svc, "default")
	_, err := svc.StartRound(context.Background(), session.SessionID, "default", service.StartRoundOptions{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+session.SessionID+"/rounds/stream", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/sessions/:session_id/rounds/stream")
	c.SetParamNames("session_id")
	c.SetParamValues(session.SessionID)

	require.NoError(t, h.StreamRound(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, rec.Header().Get("Content-Type"), "text/event-stream")
}

func TestStreamRoundEventsReplay(t *testing.T) {
	e := echo.New()
	h, svc, st := newTestHandler(t)
	session := createTestSession(t, svc, "default")
	round := runRoundToAwaiting(t, svc, session)

	journal, err := st.ListRoundEvents(context.Background(), round.RoundID, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, journal)

	req := httptest.NewRequest(http.MethodGet, "/v1/rounds/"+round.RoundID+"/events/stream", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/rounds/:round_id/events/stream")
	c.SetParamNames("round_id")
	c.SetParamValues(round.RoundID)

	require.NoError(t, h.StreamRoundEvents(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Equal(t, len(journal), strings.Count(body, "event: "))

	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	assert.True(t, strings.HasPrefix(frames[len(frames)-1], "event: complete"))
}

func TestStreamRoundEventsResume(t *testing.T) {
	e := echo.New()
	h, svc, st := newTestHandler(t)
	session := createTestSession(t, svc, "default")
	round := runRoundToAwaiting(t, svc, session)

	journal, err := st.ListRoundEvents(context.Background(), round.RoundID, 0, 0)
	require.NoError(t, err)
	watermark := journal[len(journal)-3].Seq

	target := "/v1/rounds/" + round.RoundID + "/events/stream?after_seq=" + strconv.FormatInt(watermark, 10)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/rounds/:round_id/events/stream")
	c.SetParamNames("round_id")
	c.SetParamValues(round.RoundID)

	require.NoError(t, h.StreamRoundEvents(c))
	assert.Equal(t, 2, strings.Count(rec.Body.String(), "event: "))
}

func TestStreamRoundEventsAccessDenied(t *testing.T) {
	e := echo.New()
	h, svc, _ := newTestHandler(t)
	session := createTestSession(t, svc, "alice")
	round := runRoundToAwaiting(t, svc, session)

	req := httptest.NewRequest(http.MethodGet, "/v1/rounds/"+round.RoundID+"/events/stream", nil)
	req.Header.Set("X-User-ID", "mallory")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/rounds/:round_id/events/stream")
	c.SetParamNames("round_id")
	c.SetParamValues(round.RoundID)

	require.NoError(t, h.StreamRoundEvents(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStreamRoundEventsSettledEmptyJournal(t *testing.T) {
	e := echo.New()
	h, svc, st := newTestHandler(t)
	session := createTestSession(t, svc, "default")

	// A settled round with no journal: the follower gives up instead of
	// polling forever.
	round := &domain.Round{
		RoundID:     "rnd_empty",
		SessionID:   session.SessionID,
		RoundNumber: 1,
		Status:      domain.RoundStatusActive,
		Task:        session.Query,
		StartedAt:   time.Now(),
	}
	require.NoError(t, st.CreateRound(context.Background(), round))
	require.NoError(t, st.UpdateRoundCompleted(context.Background(), round.RoundID, domain.RoundStatusError, "runner vanished"))

	req := httptest.NewRequest(http.MethodGet, "/v1/rounds/"+round.RoundID+"/events/stream", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/rounds/:round_id/events/stream")
	c.SetParamNames("round_id")
	c.SetParamValues(round.RoundID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.StreamRoundEvents(c)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("follower did not stop on a settled round without events")
	}
	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event: "))
}

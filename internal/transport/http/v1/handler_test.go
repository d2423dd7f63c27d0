package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/KraftonexStudios/hackwave-sub001/internal/adapter/llm"
	"github.com/KraftonexStudios/hackwave-sub001/internal/config"
	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
	"github.com/KraftonexStudios/hackwave-sub001/internal/parser"
	"github.com/KraftonexStudios/hackwave-sub001/internal/service"
	"github.com/KraftonexStudios/hackwave-sub001/internal/store"
)

func newTestHandler(t *testing.T) (*Handler, *service.Service, *store.SQLiteStore) {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		DefaultMaxRounds: 5,
		GenerateTimeout:  2 * time.Second,
		RoundTimeout:     10 * time.Second,
		StreamPacing:     0,
	}
	gen := llm.NewMockClient()
	invoker := service.NewInvoker(gen, parser.NewHeuristicParser(), cfg.GenerateTimeout)
	svc := service.New(st, invoker, service.NewSynthesizer(gen, cfg.GenerateTimeout), nil, nil, cfg)
	return NewHandler(svc), svc, st
}

func createTestSession(t *testing.T, svc *service.Service, userID string) *domain.Session {
	t.Helper()
	session, err := svc.CreateSession(context.Background(), &service.CreateSessionRequest{
		UserID: userID,
		Query:  "Should the city pedestrianize its downtown core?",
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return session
}

// runRoundToAwaiting starts a round and executes it inline so the
// handler under test sees a settled round.
func runRoundToAwaiting(t *testing.T, svc *service.Service, session *domain.Session) *domain.Round {
	t.Helper()
	ctx := context.Background()
	round, err := svc.StartRound(ctx, session.SessionID, session.UserID, service.StartRoundOptions{})
	if err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}
	if err := svc.ExecuteRound(ctx, round, svc.NewRunEmitter(round)); err != nil {
		t.Fatalf("ExecuteRound failed: %v", err)
	}
	return round
}

// waitForRoundSettled polls until the detached run leaves the
// in-flight statuses. Tests that fire detached runs must wait before
// their store is closed by cleanup.
func waitForRoundSettled(t *testing.T, st *store.SQLiteStore, roundID string) *domain.Round {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		round, err := st.GetRound(context.Background(), roundID)
		if err != nil {
			t.Fatalf("GetRound failed: %v", err)
		}
		if round != nil && round.Status != domain.RoundStatusActive && round.Status != domain.RoundStatusProcessing {
			return round
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("round %s did not settle in time", roundID)
	return nil
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestListModels(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListModels(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body llm.ModelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Object != "list" || len(body.Data) == 0 {
		t.Fatalf("unexpected models response: %+v", body)
	}
}

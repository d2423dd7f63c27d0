package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
)

func TestRegisterAgentValidation(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/agents", bytes.NewBufferString(`{"role":"critic"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.RegisterAgent(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterAgentSuccess(t *testing.T) {
	e := echo.New()
	h, _, st := newTestHandler(t)

	body := `{"name":"Skeptic","role":"Critic","instructions":"Be relentless."}`
	req := httptest.NewRequest(http.MethodPost, "/v1/agents", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.RegisterAgent(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var agent domain.Agent
	if err := json.Unmarshal(rec.Body.Bytes(), &agent); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !strings.HasPrefix(agent.AgentID, "agt_") {
		t.Fatalf("unexpected agent id: %s", agent.AgentID)
	}
	if agent.Role != domain.AgentRoleCritic {
		t.Fatalf("expected normalized role critic, got %s", agent.Role)
	}

	got, err := st.GetAgent(context.Background(), agent.AgentID)
	if err != nil {
		t.Fatalf("GetAgent failed: %v", err)
	}
	if got == nil || got.Instructions != "Be relentless." {
		t.Fatalf("unexpected agent: %+v", got)
	}
}

func TestListAgents(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/agents", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListAgents(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Agents []domain.Agent `json:"agents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Agents) != 3 {
		t.Fatalf("expected the 3 seeded agents, got %d", len(body.Agents))
	}
}

func TestGetAgentNotFound(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/agents/agt_ghost", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("agent_id")
	c.SetParamValues("agt_ghost")

	if err := h.GetAgent(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetAgentSuccess(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/agents/agt_analyst", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("agent_id")
	c.SetParamValues("agt_analyst")

	if err := h.GetAgent(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var agent domain.Agent
	if err := json.Unmarshal(rec.Body.Bytes(), &agent); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if agent.Role != domain.AgentRoleAnalyst {
		t.Fatalf("unexpected role: %s", agent.Role)
	}
}

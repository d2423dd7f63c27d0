package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KraftonexStudios/hackwave-sub001/internal/adapter/llm"
	"github.com/KraftonexStudios/hackwave-sub001/internal/config"
	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
	"github.com/KraftonexStudios/hackwave-sub001/internal/parser"
	"github.com/KraftonexStudios/hackwave-sub001/internal/store"
	"github.com/KraftonexStudios/hackwave-sub001/internal/stream"
)

func testConfig() *config.Config {
	return &config.Config{
		DefaultMaxRounds: 5,
		GenerateTimeout:  2 * time.Second,
		RoundTimeout:     10 * time.Second,
		StreamPacing:     0,
	}
}

func newTestService(t *testing.T, gen llm.TextGenerator, cfg *config.Config) *Service {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if cfg == nil {
		cfg = testConfig()
	}
	invoker := NewInvoker(gen, parser.NewHeuristicParser(), cfg.GenerateTimeout)
	return New(st, invoker, NewSynthesizer(gen, cfg.GenerateTimeout), nil, nil, cfg)
}

// genRule matches a substring of the lowercased system prompt and
// yields either text or an error. Rules are checked in order.
type genRule struct {
	when string
	text string
	err  error
}

// scriptedGenerator plays back genRules and records every call.
type scriptedGenerator struct {
	mu     sync.Mutex
	calls  []string
	rules  []genRule
	onCall func(n int)
}

func (g *scriptedGenerator) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req.System)
	n := len(g.calls)
	onCall := g.onCall
	g.mu.Unlock()

	if onCall != nil {
		onCall(n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	system := strings.ToLower(req.System)
	for _, rule := range g.rules {
		if !strings.Contains(system, rule.when) {
			continue
		}
		if rule.err != nil {
			return nil, rule.err
		}
		return &llm.GenerateResult{Text: rule.text, Model: "scripted"}, nil
	}
	return &llm.GenerateResult{
		Text:  "I agree this is a strong and compelling approach. I am 80% confident because the fundamentals are sound.",
		Model: "scripted",
	}, nil
}

func (g *scriptedGenerator) ListModels(ctx context.Context) ([]llm.Model, error) {
	return nil, nil
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type stubValidator struct {
	outcome *ValidationOutcome
	err     error
}

func (v *stubValidator) Validate(ctx context.Context, round *domain.Round, responses []*domain.AgentResponse) (*ValidationOutcome, error) {
	if v.err != nil {
		return nil, v.err
	}
	if v.outcome != nil {
		return v.outcome, nil
	}
	return fallbackOutcome(responses), nil
}

func mustCreateSession(t *testing.T, svc *Service, userID string, maxRounds int) *domain.Session {
	t.Helper()
	session, err := svc.CreateSession(context.Background(), &CreateSessionRequest{
		UserID:    userID,
		Query:     "Should the city pedestrianize its downtown core?",
		MaxRounds: maxRounds,
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return session
}

// runRound starts and executes one round, capturing its event stream.
func runRound(t *testing.T, svc *Service, session *domain.Session) (*domain.Round, *stream.CaptureSink) {
	t.Helper()
	ctx := context.Background()

	round, err := svc.StartRound(ctx, session.SessionID, session.UserID, StartRoundOptions{})
	if err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}
	capture := stream.NewCaptureSink()
	if err := svc.ExecuteRound(ctx, round, svc.NewRunEmitter(round, capture)); err != nil {
		t.Fatalf("ExecuteRound failed: %v", err)
	}
	return round, capture
}

func eventTypes(events []*stream.Event) []domain.EventType {
	types := make([]domain.EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

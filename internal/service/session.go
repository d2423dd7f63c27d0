package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
	"github.com/KraftonexStudios/hackwave-sub001/policy"
)

// CreateSessionRequest carries the inputs for opening a session.
type CreateSessionRequest struct {
	UserID    string   `json:"user_id"`
	Query     string   `json:"query"`
	AgentIDs  []string `json:"agent_ids,omitempty"`
	MaxRounds int      `json:"max_rounds,omitempty"`
}

// CreateSession opens an ACTIVE session bound to the requesting user.
// When no agents are named the whole registry is assigned, in
// registration order.
func (s *Service) CreateSession(ctx context.Context, req *CreateSessionRequest) (*domain.Session, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}

	maxRounds := req.MaxRounds
	if maxRounds == 0 {
		maxRounds = s.config.DefaultMaxRounds
	}
	if maxRounds < 1 {
		return nil, fmt.Errorf("%w: max_rounds must be at least 1", domain.ErrInvalidInput)
	}

	agentIDs := req.AgentIDs
	if len(agentIDs) == 0 {
		registered, err := s.store.ListAgents(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list agents: %w", err)
		}
		for _, agent := range registered {
			agentIDs = append(agentIDs, agent.AgentID)
		}
	} else {
		for _, agentID := range agentIDs {
			agent, err := s.store.GetAgent(ctx, agentID)
			if err != nil {
				return nil, fmt.Errorf("failed to get agent: %w", err)
			}
			if agent == nil {
				return nil, fmt.Errorf("%w: agent %s", domain.ErrNotFound, agentID)
			}
		}
	}

	now := time.Now()
	session := &domain.Session{
		SessionID:    newID("ses"),
		UserID:       userID,
		Query:        query,
		Status:       domain.SessionStatusActive,
		MaxRounds:    maxRounds,
		CurrentRound: 0,
		AgentIDs:     agentIDs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := s.store.AssignAgents(ctx, session.SessionID, agentIDs); err != nil {
		return nil, fmt.Errorf("failed to assign agents: %w", err)
	}

	slog.Info("session created",
		"session_id", session.SessionID,
		"user_id", userID,
		"agents", len(agentIDs),
		"max_rounds", maxRounds)
	return session, nil
}

// GetSession loads a session, enforcing ownership when userID is set.
func (s *Service) GetSession(ctx context.Context, sessionID, userID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}
	if userID != "" && session.UserID != userID {
		return nil, fmt.Errorf("%w: session %s", domain.ErrAccessDenied, sessionID)
	}
	return session, nil
}

// CancelSession moves a session to CANCELLED. Cancelling a session
// that is already terminal is a no-op.
func (s *Service) CancelSession(ctx context.Context, sessionID, userID string) (*domain.Session, error) {
	session, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return session, nil
	}

	if err := s.store.UpdateSessionStatus(ctx, sessionID, domain.SessionStatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel session: %w", err)
	}
	session.Status = domain.SessionStatusCancelled
	slog.Info("session cancelled", "session_id", sessionID)
	return session, nil
}

// StartRoundOptions carries optional inputs for opening a round.
type StartRoundOptions struct {
	Enrichment string `json:"enrichment,omitempty"`
}

// StartRound opens the next round of a session. It rejects inactive
// sessions, sessions at their round capacity and sessions that already
// have a round in flight. The returned round is ACTIVE; running it is
// the caller's choice of ExecuteRound or RunDetached.
func (s *Service) StartRound(ctx context.Context, sessionID, userID string, opts StartRoundOptions) (*domain.Round, error) {
	session, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusActive {
		return nil, fmt.Errorf("%w: session %s is %s", domain.ErrSessionNotActive, sessionID, session.Status)
	}
	if session.CurrentRound >= session.MaxRounds {
		return nil, fmt.Errorf("%w: session %s used %d of %d rounds",
			domain.ErrCapacityExceeded, sessionID, session.CurrentRound, session.MaxRounds)
	}

	active, err := s.store.GetActiveRound(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active round: %w", err)
	}
	if active != nil {
		return nil, fmt.Errorf("%w: round %s is %s", domain.ErrRoundConflict, active.RoundID, active.Status)
	}

	round := &domain.Round{
		RoundID:     newID("rnd"),
		SessionID:   session.SessionID,
		RoundNumber: session.CurrentRound + 1,
		Status:      domain.RoundStatusActive,
		Task:        roundTask(session, session.CurrentRound+1),
		Enrichment:  strings.TrimSpace(opts.Enrichment),
		StartedAt:   time.Now(),
	}
	if err := s.store.CreateRound(ctx, round); err != nil {
		// The UNIQUE(session_id, round_number) constraint backstops
		// concurrent starts that both passed the active-round check.
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: round %d already exists", domain.ErrRoundConflict, round.RoundNumber)
		}
		return nil, fmt.Errorf("failed to create round: %w", err)
	}
	if err := s.store.UpdateSessionRound(ctx, session.SessionID, round.RoundNumber); err != nil {
		return nil, fmt.Errorf("failed to advance session round: %w", err)
	}

	slog.Info("round started",
		"round_id", round.RoundID,
		"session_id", session.SessionID,
		"round_number", round.RoundNumber)
	return round, nil
}

// FinalizeResult reports the outcome of finalizing a round.
type FinalizeResult struct {
	SessionStatus domain.SessionStatus `json:"session_status"`
	Round         *domain.Round        `json:"round"`
	NextRound     *domain.Round        `json:"next_round,omitempty"`
}

// FinalizeRound closes a round and decides continuation. A new round
// starts only when the validation recommendation, the caller's intent
// and the session's round head-room all line up; otherwise the session
// concludes. Finalizing an already terminal round changes nothing.
func (s *Service) FinalizeRound(ctx context.Context, roundID, userID string, continueRequested bool) (*FinalizeResult, error) {
	round, session, err := s.getRoundWithSession(ctx, roundID, userID)
	if err != nil {
		return nil, err
	}
	if round.Status == domain.RoundStatusCompleted {
		return &FinalizeResult{SessionStatus: session.Status, Round: round}, nil
	}
	if round.Status == domain.RoundStatusError {
		// An errored round carries no recommendation, so the only
		// decision left is to conclude. The round keeps its ERROR
		// status.
		if !session.Status.Terminal() {
			if err := s.store.UpdateSessionStatus(ctx, session.SessionID, domain.SessionStatusCompleted); err != nil {
				return nil, fmt.Errorf("failed to conclude session: %w", err)
			}
			session.Status = domain.SessionStatusCompleted
			slog.Info("session concluded after round error", "session_id", session.SessionID, "round_id", roundID)
		}
		return &FinalizeResult{SessionStatus: session.Status, Round: round}, nil
	}
	switch round.Status {
	case domain.RoundStatusAwaitingFeedback, domain.RoundStatusFeedbackReceived:
	default:
		return nil, fmt.Errorf("%w: round %s is %s", domain.ErrRoundNotOpen, roundID, round.Status)
	}

	feedbackCount, err := s.store.CountRoundFeedback(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}

	input := policy.Input{
		RecommendContinue: round.RecommendContinue != nil && *round.RecommendContinue,
		ContinueRequested: continueRequested,
		CurrentRound:      session.CurrentRound,
		MaxRounds:         session.MaxRounds,
		FeedbackCount:     feedbackCount,
		RequireFeedback:   s.config.RequireFeedback,
	}
	decision := s.decideContinuation(ctx, input)

	if err := s.store.UpdateRoundCompleted(ctx, roundID, domain.RoundStatusCompleted, ""); err != nil {
		return nil, fmt.Errorf("failed to complete round: %w", err)
	}
	round.Status = domain.RoundStatusCompleted

	if decision != policy.DecisionContinue {
		if err := s.store.UpdateSessionStatus(ctx, session.SessionID, domain.SessionStatusCompleted); err != nil {
			return nil, fmt.Errorf("failed to conclude session: %w", err)
		}
		slog.Info("session concluded",
			"session_id", session.SessionID,
			"rounds", session.CurrentRound,
			"decision", decision)
		return &FinalizeResult{SessionStatus: domain.SessionStatusCompleted, Round: round}, nil
	}

	next, err := s.StartRound(ctx, session.SessionID, userID, StartRoundOptions{
		Enrichment: s.continuationEnrichment(ctx, round),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start next round: %w", err)
	}
	s.RunDetached(next)

	slog.Info("session continuing",
		"session_id", session.SessionID,
		"next_round_id", next.RoundID,
		"round_number", next.RoundNumber)
	return &FinalizeResult{SessionStatus: session.Status, Round: round, NextRound: next}, nil
}

func (s *Service) decideContinuation(ctx context.Context, input policy.Input) string {
	if s.policy != nil {
		decision, err := s.policy.Evaluate(ctx, input)
		if err == nil {
			return decision
		}
		slog.Warn("policy evaluation failed, using built-in decision", "error", err)
	}
	return policy.Decide(input)
}

// continuationEnrichment summarizes the closed round's validation
// findings so the next round can address them.
func (s *Service) continuationEnrichment(ctx context.Context, round *domain.Round) string {
	results, err := s.store.ListRoundValidationResults(ctx, round.RoundID)
	if err != nil {
		slog.Warn("failed to load validation results for enrichment", "round_id", round.RoundID, "error", err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Validation findings from the previous round:\n")
	for _, res := range results {
		verdict := "held up"
		if !res.IsValid {
			verdict = "did not hold up"
		}
		fmt.Fprintf(&b, "- %s %s (confidence %d)\n", res.Claim, verdict, res.Confidence)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) getRoundWithSession(ctx context.Context, roundID, userID string) (*domain.Round, *domain.Session, error) {
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, nil, fmt.Errorf("%w: round %s", domain.ErrNotFound, roundID)
	}
	session, err := s.store.GetSession(ctx, round.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, round.SessionID)
	}
	if userID != "" && session.UserID != userID {
		return nil, nil, fmt.Errorf("%w: round %s", domain.ErrAccessDenied, roundID)
	}
	return round, session, nil
}

// roundTask derives the task distributed to the panel. Later rounds
// restate the query with a refinement framing.
func roundTask(session *domain.Session, roundNumber int) string {
	if roundNumber == 1 {
		return session.Query
	}
	return fmt.Sprintf("%s\n\nThis is round %d of the discussion. Refine your position in light of the earlier rounds and address the open disagreements.",
		session.Query, roundNumber)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
)

// FeedbackItem is one reviewer verdict, optionally targeting a single
// response.
type FeedbackItem struct {
	ResponseID string                 `json:"response_id,omitempty"`
	Verdict    domain.FeedbackVerdict `json:"verdict"`
	Comment    string                 `json:"comment,omitempty"`
	Priority   int                    `json:"priority,omitempty"`
}

// SubmitFeedback records reviewer verdicts for a round awaiting
// feedback and applies targeted verdicts to the named responses. The
// round moves to FEEDBACK_RECEIVED on the first submission; later
// submissions accumulate.
func (s *Service) SubmitFeedback(ctx context.Context, roundID, userID string, items []FeedbackItem) (*domain.Round, error) {
	round, _, err := s.getRoundWithSession(ctx, roundID, userID)
	if err != nil {
		return nil, err
	}
	switch round.Status {
	case domain.RoundStatusAwaitingFeedback, domain.RoundStatusFeedbackReceived:
	default:
		return nil, fmt.Errorf("%w: round %s is %s", domain.ErrRoundNotOpen, roundID, round.Status)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one feedback item is required", domain.ErrInvalidInput)
	}

	responses, err := s.store.ListRoundResponses(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	known := make(map[string]bool, len(responses))
	for _, resp := range responses {
		known[resp.ResponseID] = true
	}

	// Validate every item before writing anything.
	for _, item := range items {
		if _, ok := item.Verdict.ResponseStatus(); !ok {
			return nil, fmt.Errorf("%w: unknown verdict %q", domain.ErrInvalidInput, item.Verdict)
		}
		if item.ResponseID != "" && !known[item.ResponseID] {
			return nil, fmt.Errorf("%w: response %s is not part of round %s", domain.ErrNotFound, item.ResponseID, roundID)
		}
	}

	now := time.Now()
	for _, item := range items {
		fb := &domain.Feedback{
			FeedbackID: newID("fbk"),
			RoundID:    roundID,
			ResponseID: item.ResponseID,
			Verdict:    item.Verdict,
			Comment:    item.Comment,
			Priority:   item.Priority,
			CreatedAt:  now,
		}
		if err := s.store.CreateFeedback(ctx, fb); err != nil {
			return nil, fmt.Errorf("failed to record feedback: %w", err)
		}
		if item.ResponseID != "" {
			status, _ := item.Verdict.ResponseStatus()
			if err := s.store.UpdateResponseStatus(ctx, item.ResponseID, status); err != nil {
				return nil, fmt.Errorf("failed to apply verdict: %w", err)
			}
		}
	}

	if round.Status == domain.RoundStatusAwaitingFeedback {
		if err := s.store.UpdateRoundStatus(ctx, roundID, domain.RoundStatusFeedbackReceived); err != nil {
			return nil, fmt.Errorf("failed to mark feedback received: %w", err)
		}
		round.Status = domain.RoundStatusFeedbackReceived
	}

	slog.Info("feedback recorded", "round_id", roundID, "items", len(items))
	return round, nil
}

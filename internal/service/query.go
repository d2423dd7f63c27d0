package service

import (
	"context"
	"fmt"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
)

// RoundDetail aggregates everything recorded for one round.
type RoundDetail struct {
	Round       *domain.Round             `json:"round"`
	Responses   []domain.AgentResponse    `json:"responses"`
	Validations []domain.ValidationResult `json:"validations"`
	Feedback    []domain.Feedback         `json:"feedback"`
}

// GetRound loads one round, enforcing session ownership.
func (s *Service) GetRound(ctx context.Context, roundID, userID string) (*domain.Round, error) {
	round, _, err := s.getRoundWithSession(ctx, roundID, userID)
	if err != nil {
		return nil, err
	}
	return round, nil
}

// GetRoundDetail loads a round with its responses, validation results
// and feedback.
func (s *Service) GetRoundDetail(ctx context.Context, roundID, userID string) (*RoundDetail, error) {
	round, _, err := s.getRoundWithSession(ctx, roundID, userID)
	if err != nil {
		return nil, err
	}

	responses, err := s.store.ListRoundResponses(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	validations, err := s.store.ListRoundValidationResults(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list validation results: %w", err)
	}
	feedback, err := s.store.ListRoundFeedback(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}

	return &RoundDetail{
		Round:       round,
		Responses:   responses,
		Validations: validations,
		Feedback:    feedback,
	}, nil
}

// ListSessionRounds returns a session's rounds in round order.
func (s *Service) ListSessionRounds(ctx context.Context, sessionID, userID string) ([]domain.Round, error) {
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	rounds, err := s.store.ListRounds(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return rounds, nil
}

// ListRoundEvents returns journal events after afterSeq, oldest first.
func (s *Service) ListRoundEvents(ctx context.Context, roundID, userID string, afterSeq int64, limit int) ([]domain.RoundEvent, error) {
	if _, _, err := s.getRoundWithSession(ctx, roundID, userID); err != nil {
		return nil, err
	}
	events, err := s.store.ListRoundEvents(ctx, roundID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// SelectValidationResult marks or unmarks one validation result as
// selected for the session's final summary.
func (s *Service) SelectValidationResult(ctx context.Context, resultID, userID string, selected bool) (*domain.ValidationResult, error) {
	result, err := s.store.GetValidationResult(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to get validation result: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: validation result %s", domain.ErrNotFound, resultID)
	}
	if _, _, err := s.getRoundWithSession(ctx, result.RoundID, userID); err != nil {
		return nil, err
	}

	if err := s.store.UpdateValidationSelected(ctx, resultID, selected); err != nil {
		return nil, fmt.Errorf("failed to update selection: %w", err)
	}
	result.Selected = selected
	return result, nil
}

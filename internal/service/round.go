package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
	"github.com/KraftonexStudios/hackwave-sub001/internal/stream"
)

// Error codes carried on terminal error events.
const (
	ErrCodeDistribution = "distribution_failed"
	ErrCodeValidation   = "validation_failed"
	ErrCodeCancelled    = "cancelled"
	ErrCodeInternal     = "internal"
)

// NewRunEmitter builds the emitter for one round run: the event
// journal always, the session feed when a broadcaster is wired, plus
// any caller-supplied sinks such as an SSE connection.
func (s *Service) NewRunEmitter(round *domain.Round, extra ...stream.Sink) *stream.Emitter {
	sinks := []stream.Sink{stream.NewStoreSink(s.store)}
	if s.feed != nil {
		sinks = append(sinks, stream.NewBroadcastSink(round.SessionID, s.feed))
	}
	sinks = append(sinks, extra...)
	return stream.NewEmitter(round.RoundID, sinks...)
}

// RunDetached executes the round on a background context bounded by
// the configured round timeout.
func (s *Service) RunDetached(round *domain.Round) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.RoundTimeout)
		defer cancel()

		if err := s.ExecuteRound(ctx, round, s.NewRunEmitter(round)); err != nil {
			slog.Error("detached round failed", "round_id", round.RoundID, "error", err)
		}
	}()
}

// ExecuteRound drives one round from task distribution through agent
// invocation and validation to AWAITING_FEEDBACK. Any failure it
// cannot absorb lands the round in ERROR with a terminal error event;
// the round never wedges in PROCESSING.
func (s *Service) ExecuteRound(ctx context.Context, round *domain.Round, em *stream.Emitter) (err error) {
	log := slog.With("round_id", round.RoundID, "session_id", round.SessionID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("round execution panicked", "panic", r)
			s.failRound(ctx, round, em, ErrCodeInternal, fmt.Sprintf("internal fault: %v", r))
			err = fmt.Errorf("round execution panicked: %v", r)
		}
	}()

	if err := s.store.UpdateRoundStatus(ctx, round.RoundID, domain.RoundStatusProcessing); err != nil {
		s.failRound(ctx, round, em, ErrCodeInternal, "could not mark round processing")
		return fmt.Errorf("failed to mark round processing: %w", err)
	}
	round.Status = domain.RoundStatusProcessing

	em.Emit(ctx, domain.NodeAddedPayload{
		RoundID: round.RoundID,
		NodeID:  domain.NodeIDQuery,
		Kind:    domain.NodeKindQuery,
		Label:   round.Task,
	})

	agents, err := s.store.GetSessionAgents(ctx, round.SessionID)
	if err != nil {
		s.failRound(ctx, round, em, ErrCodeDistribution, "agent lookup failed")
		return fmt.Errorf("failed to load session agents: %w", err)
	}
	if len(agents) == 0 {
		s.failRound(ctx, round, em, ErrCodeDistribution, "no agents assigned to session")
		return fmt.Errorf("%w: session %s", domain.ErrNoAgents, round.SessionID)
	}

	responses, err := s.invokePanel(ctx, round, agents, em)
	if err != nil {
		code := ErrCodeInternal
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			code = ErrCodeCancelled
		}
		s.failRound(ctx, round, em, code, err.Error())
		return err
	}

	em.Emit(ctx, domain.NodeAddedPayload{
		RoundID: round.RoundID,
		NodeID:  domain.NodeIDValidation,
		Kind:    domain.NodeKindValidation,
		Label:   "Validation",
	})
	em.Emit(ctx, domain.ValidationStartPayload{
		RoundID:       round.RoundID,
		ResponseCount: len(responses),
	})

	outcome, verr := s.validator.Validate(ctx, round, responses)
	if verr != nil {
		s.failRound(ctx, round, em, ErrCodeValidation, "validation failed on primary and fallback paths")
		return fmt.Errorf("%w: %w", domain.ErrValidationFailed, verr)
	}

	now := time.Now()
	for i, res := range outcome.Results {
		res.ResultID = newID("val")
		res.RoundID = round.RoundID
		res.CreatedAt = now
		if err := s.store.CreateValidationResult(ctx, res, i); err != nil {
			s.failRound(ctx, round, em, ErrCodeInternal, "could not persist validation results")
			return fmt.Errorf("failed to persist validation result: %w", err)
		}
	}
	if err := s.store.SetRoundRecommendation(ctx, round.RoundID, outcome.RecommendContinue); err != nil {
		s.failRound(ctx, round, em, ErrCodeInternal, "could not record continuation recommendation")
		return fmt.Errorf("failed to record recommendation: %w", err)
	}
	if err := s.store.MarkRoundResponsesValidated(ctx, round.RoundID); err != nil {
		s.failRound(ctx, round, em, ErrCodeInternal, "could not mark responses validated")
		return fmt.Errorf("failed to mark responses validated: %w", err)
	}
	round.RecommendContinue = &outcome.RecommendContinue

	em.Emit(ctx, domain.ValidationResultPayload{
		RoundID:           round.RoundID,
		Results:           outcome.Results,
		RecommendContinue: outcome.RecommendContinue,
		Fallback:          outcome.UsedFallback,
	})
	em.Emit(ctx, domain.NodeUpdatedPayload{
		RoundID: round.RoundID,
		NodeID:  domain.NodeIDValidation,
		Status:  "complete",
	})

	if err := s.store.UpdateRoundStatus(ctx, round.RoundID, domain.RoundStatusAwaitingFeedback); err != nil {
		s.failRound(ctx, round, em, ErrCodeInternal, "could not mark round awaiting feedback")
		return fmt.Errorf("failed to mark round awaiting feedback: %w", err)
	}
	round.Status = domain.RoundStatusAwaitingFeedback

	em.Emit(ctx, domain.CompletePayload{
		RoundID:     round.RoundID,
		RoundNumber: round.RoundNumber,
		Status:      round.Status,
	})

	log.Info("round awaiting feedback",
		"responses", len(responses),
		"results", len(outcome.Results),
		"recommend_continue", outcome.RecommendContinue,
		"fallback", outcome.UsedFallback)
	return nil
}

// invokePanel runs every assigned agent and persists their responses
// in assignment order. Individual agent failures are absorbed as ERROR
// responses; only cancellation and persistence failures abort the
// panel.
func (s *Service) invokePanel(ctx context.Context, round *domain.Round, agents []domain.Agent, em *stream.Emitter) ([]*domain.AgentResponse, error) {
	if s.config.ParallelAgents {
		return s.invokeParallel(ctx, round, agents, em)
	}

	responses := make([]*domain.AgentResponse, 0, len(agents))
	for i := range agents {
		if err := s.pace(ctx); err != nil {
			return nil, fmt.Errorf("round cancelled: %w", err)
		}
		resp := s.invoker.Invoke(ctx, round, &agents[i], i, len(agents), em)
		if err := s.store.CreateAgentResponse(ctx, resp, i); err != nil {
			return nil, fmt.Errorf("failed to persist agent response: %w", err)
		}
		responses = append(responses, resp)
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("round cancelled: %w", err)
		}
	}
	return responses, nil
}

// invokeParallel fans the panel out concurrently. Each agent emits
// into a private buffer that is replayed in assignment order once all
// agents return, so observers see the same ordering as a sequential
// run.
func (s *Service) invokeParallel(ctx context.Context, round *domain.Round, agents []domain.Agent, em *stream.Emitter) ([]*domain.AgentResponse, error) {
	responses := make([]*domain.AgentResponse, len(agents))
	buffers := make([]*stream.Buffer, len(agents))

	g, gctx := errgroup.WithContext(ctx)
	for i := range agents {
		buffers[i] = stream.NewBuffer()
		g.Go(func() error {
			responses[i] = s.invoker.Invoke(gctx, round, &agents[i], i, len(agents), buffers[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("round cancelled: %w", err)
	}

	for i, resp := range responses {
		if err := s.store.CreateAgentResponse(ctx, resp, i); err != nil {
			return nil, fmt.Errorf("failed to persist agent response: %w", err)
		}
		buffers[i].Replay(ctx, em)
	}
	return responses, nil
}

// pace spaces out sequential agent turns so live observers can follow
// the stream. It returns early on cancellation.
func (s *Service) pace(ctx context.Context) error {
	if s.config.StreamPacing <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.config.StreamPacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// failRound lands the round in ERROR and emits the terminal error
// event. Writes run on a cancellation-shielded context so a vanished
// observer still leaves a consistent record behind.
func (s *Service) failRound(ctx context.Context, round *domain.Round, em *stream.Emitter, code, message string) {
	shielded := context.WithoutCancel(ctx)
	if err := s.store.UpdateRoundCompleted(shielded, round.RoundID, domain.RoundStatusError, message); err != nil {
		slog.Error("failed to record round error", "round_id", round.RoundID, "error", err)
	}
	round.Status = domain.RoundStatusError
	round.Error = message

	em.Emit(shielded, domain.ErrorPayload{
		RoundID: round.RoundID,
		Code:    code,
		Message: message,
	})
}

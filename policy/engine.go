// Package policy decides whether a finalized round continues the
// session or concludes it.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Decision values produced by the continuation policy.
const (
	DecisionContinue = "continue"
	DecisionConclude = "conclude"
)

// Input is the continuation policy input.
type Input struct {
	RecommendContinue bool `json:"recommend_continue"`
	ContinueRequested bool `json:"continue_requested"`
	CurrentRound      int  `json:"current_round"`
	MaxRounds         int  `json:"max_rounds"`
	FeedbackCount     int  `json:"feedback_count"`
	RequireFeedback   bool `json:"require_feedback"`
}

// Engine evaluates the continuation policy with OPA.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a policy engine from Rego policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.continuation.decision"),
		rego.Module("continuation.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate returns "continue" or "conclude" for the given input.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionConclude, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("policy returned unexpected value type %T", results[0].Expressions[0].Value)
}

// Decide is the in-process equivalent of DefaultPolicy. The session
// controller falls back to it when policy evaluation fails, so the
// continuation decision can never block finalization.
func Decide(input Input) string {
	if !input.RecommendContinue || !input.ContinueRequested {
		return DecisionConclude
	}
	if input.CurrentRound >= input.MaxRounds {
		return DecisionConclude
	}
	if input.RequireFeedback && input.FeedbackCount == 0 {
		return DecisionConclude
	}
	return DecisionContinue
}

// DefaultPolicy is the built-in continuation policy: continue only when
// the validation recommendation, the caller's intent and the round-count
// head-room all hold, and feedback is present if required.
const DefaultPolicy = `
package continuation

default decision := "conclude"

decision := "continue" if {
	input.recommend_continue
	input.continue_requested
	input.current_round < input.max_rounds
	not feedback_missing
}

feedback_missing if {
	input.require_feedback
	input.feedback_count == 0
}
`

package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyDecisions(t *testing.T) {
	engine, err := NewEngine(context.Background(), DefaultPolicy)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input Input
		want  string
	}{
		{
			name:  "all conditions hold",
			input: Input{RecommendContinue: true, ContinueRequested: true, CurrentRound: 1, MaxRounds: 5},
			want:  DecisionContinue,
		},
		{
			name:  "recommendation absent",
			input: Input{ContinueRequested: true, CurrentRound: 1, MaxRounds: 5},
			want:  DecisionConclude,
		},
		{
			name:  "caller declined",
			input: Input{RecommendContinue: true, CurrentRound: 1, MaxRounds: 5},
			want:  DecisionConclude,
		},
		{
			name:  "no round head-room",
			input: Input{RecommendContinue: true, ContinueRequested: true, CurrentRound: 5, MaxRounds: 5},
			want:  DecisionConclude,
		},
		{
			name:  "feedback required but missing",
			input: Input{RecommendContinue: true, ContinueRequested: true, CurrentRound: 1, MaxRounds: 5, RequireFeedback: true},
			want:  DecisionConclude,
		},
		{
			name:  "feedback required and present",
			input: Input{RecommendContinue: true, ContinueRequested: true, CurrentRound: 1, MaxRounds: 5, RequireFeedback: true, FeedbackCount: 2},
			want:  DecisionContinue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Evaluate(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// The built-in fallback must agree with the Rego policy.
			assert.Equal(t, tt.want, Decide(tt.input))
		})
	}
}

func TestNewEngineRejectsInvalidPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package continuation\n\ndecision :=")
	require.Error(t, err)
}

func TestEvaluateUndefinedDecisionConcludes(t *testing.T) {
	policy := "package continuation\n\ndecision := \"continue\" if {\n\tinput.never_set\n}\n"
	engine, err := NewEngine(context.Background(), policy)
	require.NoError(t, err)

	got, err := engine.Evaluate(context.Background(), Input{})
	require.NoError(t, err)
	assert.Equal(t, DecisionConclude, got)
}

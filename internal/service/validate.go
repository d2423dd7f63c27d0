package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KraftonexStudios/hackwave-sub001/internal/adapter/llm"
	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
	"github.com/KraftonexStudios/hackwave-sub001/internal/parser"
)

// ValidationOutcome is the result of one validation pass over a
// round's responses.
type ValidationOutcome struct {
	Results           []*domain.ValidationResult
	RecommendContinue bool
	UsedFallback      bool
}

// Validator judges a round's responses and recommends whether another
// round is worth running.
type Validator interface {
	Validate(ctx context.Context, round *domain.Round, responses []*domain.AgentResponse) (*ValidationOutcome, error)
}

// Synthesizer implements Validator with a generation call and a
// deterministic fallback template. Validation is best effort: when the
// model path fails for any reason the fallback takes over, so a round
// never stalls on validation alone.
type Synthesizer struct {
	generator llm.TextGenerator
	timeout   time.Duration
}

var _ Validator = (*Synthesizer)(nil)

func NewSynthesizer(generator llm.TextGenerator, timeout time.Duration) *Synthesizer {
	return &Synthesizer{
		generator: generator,
		timeout:   timeout,
	}
}

const validationInstruction = `You are a validation engine for a multi-agent discussion. Review the agent responses and produce validation claims as JSON.
Respond with a single JSON object and nothing else, in exactly this shape:
{"claims":[{"id":1,"claim":"...","isValid":true,"confidence":80,"evidence":"...","logicalFallacies":["..."],"supportingFacts":["..."]}],"recommendContinue":false}
Cover each distinct claim made across the responses. Confidence is an integer from 0 to 100. Set recommendContinue to true only if another round of discussion would materially improve the answer.`

func (v *Synthesizer) Validate(ctx context.Context, round *domain.Round, responses []*domain.AgentResponse) (*ValidationOutcome, error) {
	outcome, err := v.synthesize(ctx, round, responses)
	if err == nil {
		return outcome, nil
	}
	slog.Warn("validation synthesis failed, using fallback template",
		"round_id", round.RoundID,
		"error", err)
	return fallbackOutcome(responses), nil
}

func (v *Synthesizer) synthesize(ctx context.Context, round *domain.Round, responses []*domain.AgentResponse) (*ValidationOutcome, error) {
	callCtx := ctx
	if v.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	result, err := v.generator.Generate(callCtx, &llm.GenerateRequest{
		System: validationInstruction,
		Prompt: buildValidationPrompt(round, responses),
	})
	if err != nil {
		return nil, fmt.Errorf("validation generation failed: %w", err)
	}

	doc, err := parseValidationDoc(result.Text)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.ValidationResult, 0, len(doc.Claims))
	for _, c := range doc.Claims {
		claim := strings.TrimSpace(c.Claim)
		if claim == "" {
			continue
		}
		results = append(results, &domain.ValidationResult{
			Claim:           claim,
			IsValid:         c.IsValid,
			Confidence:      parser.ClampConfidence(c.Confidence),
			Evidence:        strings.TrimSpace(c.Evidence),
			Fallacies:       c.LogicalFallacies,
			SupportingFacts: c.SupportingFacts,
		})
	}
	if len(results) == 0 {
		return nil, errors.New("validation output has no usable claims")
	}

	return &ValidationOutcome{
		Results:           results,
		RecommendContinue: doc.RecommendContinue,
	}, nil
}

func buildValidationPrompt(round *domain.Round, responses []*domain.AgentResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", round.Task)
	if round.Enrichment != "" {
		fmt.Fprintf(&b, "\nContext:\n%s\n", round.Enrichment)
	}
	b.WriteString("\nAgent responses:\n")
	for i, resp := range responses {
		fmt.Fprintf(&b, "\n[%d] %s (sentiment %s, confidence %d, status %s)\n%s\n",
			i+1, responderName(resp), resp.Sentiment, resp.Confidence, resp.Status, resp.Content)
	}
	return b.String()
}

type validationDoc struct {
	Claims            []validationClaim `json:"claims"`
	RecommendContinue bool              `json:"recommendContinue"`
}

type validationClaim struct {
	ID               int      `json:"id"`
	Claim            string   `json:"claim"`
	IsValid          bool     `json:"isValid"`
	Confidence       int      `json:"confidence"`
	Evidence         string   `json:"evidence"`
	LogicalFallacies []string `json:"logicalFallacies"`
	SupportingFacts  []string `json:"supportingFacts"`
}

func parseValidationDoc(text string) (*validationDoc, error) {
	var doc validationDoc
	if err := json.Unmarshal([]byte(extractJSON(text)), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal validation output: %w", err)
	}
	if len(doc.Claims) == 0 {
		return nil, errors.New("validation output has no claims")
	}
	return &doc, nil
}

// extractJSON trims prose and code fences around the first JSON object
// in text.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}

// Claims of the deterministic fallback template.
const (
	FallbackClaimConsistency = "Logical consistency of arguments"
	FallbackClaimEvidence    = "Quality and reliability of cited evidence"
	FallbackClaimBalance     = "Balanced consideration of multiple perspectives"
)

// fallbackOutcome derives three fixed claims from the responses alone.
// It uses nothing but data already in hand, so this path cannot fail.
func fallbackOutcome(responses []*domain.AgentResponse) *ValidationOutcome {
	confidence := 50
	if len(responses) > 0 {
		confidence = 0
	}
	anyAbove60 := false
	anyBelow50 := false
	for _, resp := range responses {
		if resp.Confidence > confidence {
			confidence = resp.Confidence
		}
		if resp.Confidence > 60 {
			anyAbove60 = true
		}
		if resp.Confidence < 50 {
			anyBelow50 = true
		}
	}

	var fallacies []string
	if anyBelow50 {
		fallacies = []string{"possible hasty generalization in low-confidence responses"}
	}
	consistency := &domain.ValidationResult{
		Claim:      FallbackClaimConsistency,
		IsValid:    anyAbove60,
		Confidence: confidence,
		Evidence:   "Assessed from the stated confidence of each response.",
		Fallacies:  fallacies,
	}

	var evidenceFacts []string
	for _, resp := range responses {
		if len(resp.Evidence) > 0 {
			evidenceFacts = append(evidenceFacts,
				fmt.Sprintf("%s cited %d piece(s) of evidence", responderName(resp), len(resp.Evidence)))
		}
	}
	evidence := &domain.ValidationResult{
		Claim:           FallbackClaimEvidence,
		IsValid:         len(evidenceFacts) > 0,
		Confidence:      confidence,
		Evidence:        "Assessed from the evidence fragments extracted from each response.",
		SupportingFacts: evidenceFacts,
	}

	var stanceFacts []string
	for _, resp := range responses {
		stanceFacts = append(stanceFacts,
			fmt.Sprintf("%s: %s stance at %d%% confidence", responderName(resp), resp.Sentiment, resp.Confidence))
	}
	balance := &domain.ValidationResult{
		Claim:           FallbackClaimBalance,
		IsValid:         len(responses) >= 2,
		Confidence:      confidence,
		Evidence:        "Assessed from the sentiment spread across responses.",
		SupportingFacts: stanceFacts,
	}

	results := []*domain.ValidationResult{consistency, evidence, balance}
	recommend := false
	for _, res := range results {
		if !res.IsValid {
			recommend = true
			break
		}
	}
	return &ValidationOutcome{
		Results:           results,
		RecommendContinue: recommend,
		UsedFallback:      true,
	}
}

func responderName(resp *domain.AgentResponse) string {
	if resp.AgentName != "" {
		return resp.AgentName
	}
	return resp.AgentID
}

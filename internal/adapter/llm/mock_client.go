package llm

import (
	"context"
	"strings"
	"time"
)

// MockClient is a deterministic TextGenerator for development and tests.
// It produces parser-friendly agent prose and strict-JSON validation
// output without calling a provider.
type MockClient struct{}

// NewMockClient creates a new mock generation provider.
func NewMockClient() *MockClient {
	return &MockClient{}
}

const mockAnalystText = `I support the proposal and find the core argument compelling, ` +
	`because the benefits compound as adoption grows. According to the pilot data, ` +
	`early results were strong across every cohort. Therefore, moving ahead in stages ` +
	`is the sound choice. I am 82% confident in this assessment.`

const mockCriticText = `The proposal carries real risk and I reject its central assumption, ` +
	`because the rollout plan ignores operational cost. Studies show that comparable ` +
	`programs overrun their budgets within a year. My main concern is the weak evidence ` +
	`offered for the projected savings. Confidence: 55`

const mockSynthesizerText = `Both positions have merit and the shared evidence base is sound. ` +
	`Therefore, a combined approach is the most promising path, since it addresses the cost ` +
	`concern while preserving the projected benefits. For example, phased adoption limits ` +
	`exposure in the first quarter. Some doubt remains about the timeline. Confidence level: 74`

const mockValidationJSON = `{
  "claims": [
    {
      "id": 1,
      "claim": "The core arguments are internally consistent",
      "isValid": true,
      "confidence": 80,
      "evidence": "The responses converge on the same premise from independent angles",
      "logicalFallacies": [],
      "supportingFacts": ["Majority of agents reached compatible conclusions"]
    },
    {
      "id": 2,
      "claim": "Cited evidence is relevant but limited in depth",
      "isValid": true,
      "confidence": 66,
      "evidence": "Concrete citations appear in a subset of responses",
      "logicalFallacies": ["hasty generalization"],
      "supportingFacts": ["At least one response cites external data"]
    },
    {
      "id": 3,
      "claim": "The discussion covers multiple perspectives",
      "isValid": true,
      "confidence": 72,
      "evidence": "Supportive and critical stances are both represented",
      "logicalFallacies": [],
      "supportingFacts": ["Sentiment varies across the panel"]
    }
  ],
  "recommendContinue": true
}`

// Generate returns canned content selected by the request shape.
func (m *MockClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	text := m.mockText(req)
	return &GenerateResult{
		Text:  text,
		Model: "mock-" + firstNonEmpty(req.Model, "small"),
		Usage: &Usage{
			PromptTokens:     (len(req.System) + len(req.Prompt)) / 4,
			CompletionTokens: len(text) / 4,
			TotalTokens:      (len(req.System) + len(req.Prompt) + len(text)) / 4,
		},
	}, nil
}

// ListModels returns a static model list.
func (m *MockClient) ListModels(ctx context.Context) ([]Model, error) {
	now := time.Now().Unix()
	return []Model{
		{ID: "mock-small", Object: "model", Created: now, OwnedBy: "mock"},
		{ID: "mock-large", Object: "model", Created: now, OwnedBy: "mock"},
	}, nil
}

func (m *MockClient) mockText(req *GenerateRequest) string {
	system := strings.ToLower(req.System)
	switch {
	case strings.Contains(system, "json"):
		return mockValidationJSON
	case strings.Contains(system, "critic"):
		return mockCriticText
	case strings.Contains(system, "synthes"):
		return mockSynthesizerText
	default:
		return mockAnalystText
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

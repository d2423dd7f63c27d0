// Package llm provides the text generation capability used by agent
// invocation and validation synthesis.
package llm

import "context"

// GenerateRequest describes one text generation call.
type GenerateRequest struct {
	System      string
	Prompt      string
	Model       string
	Temperature *float64
	MaxTokens   *int
}

// GenerateResult is the outcome of a generation call.
type GenerateResult struct {
	Text  string
	Model string
	Usage *Usage
}

// TextGenerator defines the generation capability. Generate may fail
// with a provider or malformed-output error; callers are responsible
// for isolating those failures.
type TextGenerator interface {
	// Generate produces a completion for a system instruction and prompt.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// ListModels retrieves the models visible to the provider.
	ListModels(ctx context.Context) ([]Model, error)
}

// Ensure both providers implement TextGenerator.
var (
	_ TextGenerator = (*Client)(nil)
	_ TextGenerator = (*MockClient)(nil)
)

package llm

import (
	"log/slog"
	"strings"
	"time"
)

// Provider names accepted by NewTextGenerator.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// NewTextGenerator selects the generation provider from configuration.
// The provider is decided once at construction; nothing reads ambient
// process state at call time.
func NewTextGenerator(provider, baseURL, apiKey, defaultModel string, timeout time.Duration) TextGenerator {
	if strings.EqualFold(provider, ProviderMock) {
		slog.Info("using mock generation provider")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, defaultModel, timeout)
}

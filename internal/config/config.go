// Package config provides configuration for the orchestration service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Generation provider. "openai" targets any OpenAI-compatible
	// endpoint; "mock" selects the deterministic in-process provider.
	Provider   string
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Timeouts
	GenerateTimeout time.Duration
	RoundTimeout    time.Duration

	// Round loop
	DefaultMaxRounds int
	RequireFeedback  bool
	ParallelAgents   bool
	StreamPacing     time.Duration

	// Continuation policy. Empty selects the built-in policy.
	PolicyFile string

	// WebSocket feed settings
	WSPingInterval   time.Duration
	WSWriteTimeout   time.Duration
	WSReadTimeout    time.Duration
	WSMaxMessageSize int64

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:         getEnvInt("PORT", 8080),
		DatabaseURL:      getEnv("DATABASE_URL", "file:hackwave.db?cache=shared&mode=rwc&_foreign_keys=on"),
		Provider:         getEnv("GENERATION_PROVIDER", "openai"),
		LLMBaseURL:       getEnv("LLM_BASE_URL", "http://localhost:4000"),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMModel:         getEnv("LLM_MODEL", "gpt-4o-mini"),
		GenerateTimeout:  time.Duration(getEnvInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond,
		RoundTimeout:     time.Duration(getEnvInt("ROUND_TIMEOUT_MS", 300000)) * time.Millisecond,
		DefaultMaxRounds: getEnvInt("DEFAULT_MAX_ROUNDS", 5),
		RequireFeedback:  getEnvBool("REQUIRE_FEEDBACK_TO_CONTINUE", false),
		ParallelAgents:   getEnvBool("PARALLEL_AGENTS", false),
		StreamPacing:     time.Duration(getEnvInt("STREAM_PACING_MS", 250)) * time.Millisecond,
		PolicyFile:       getEnv("CONTINUATION_POLICY_FILE", ""),
		WSPingInterval:   time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WSWriteTimeout:   time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		WSReadTimeout:    time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		WSMaxMessageSize: int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

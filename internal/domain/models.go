package domain

import (
	"encoding/json"
	"time"
)

// Session is the bounded multi-round container for a single user query.
type Session struct {
	SessionID    string        `json:"session_id"`
	UserID       string        `json:"user_id"`
	Query        string        `json:"query"`
	Status       SessionStatus `json:"status"`
	MaxRounds    int           `json:"max_rounds"`
	CurrentRound int           `json:"current_round"`
	AgentIDs     []string      `json:"agent_ids,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Agent is an independently configured responder invoked once per round.
type Agent struct {
	AgentID      string    `json:"agent_id"`
	Name         string    `json:"name"`
	Role         AgentRole `json:"role"`
	Model        string    `json:"model,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Round is one fan-out/fan-in cycle of a session: distribute a task,
// collect agent responses, validate them.
type Round struct {
	RoundID           string      `json:"round_id"`
	SessionID         string      `json:"session_id"`
	RoundNumber       int         `json:"round_number"`
	Status            RoundStatus `json:"status"`
	Task              string      `json:"task"`
	Enrichment        string      `json:"enrichment,omitempty"`
	RecommendContinue *bool       `json:"recommend_continue,omitempty"`
	Error             string      `json:"error,omitempty"`
	StartedAt         time.Time   `json:"started_at"`
	EndedAt           *time.Time  `json:"ended_at,omitempty"`
}

// AgentResponse is a single agent's structured answer within a round.
type AgentResponse struct {
	ResponseID string         `json:"response_id"`
	RoundID    string         `json:"round_id"`
	AgentID    string         `json:"agent_id"`
	AgentName  string         `json:"agent_name,omitempty"`
	Content    string         `json:"content"`
	Confidence int            `json:"confidence"`
	Sentiment  Sentiment      `json:"sentiment"`
	Reasoning  []string       `json:"reasoning,omitempty"`
	Evidence   []string       `json:"evidence,omitempty"`
	Status     ResponseStatus `json:"status"`
	DurationMs int64          `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ValidationResult is one validation judgment over a round's responses.
type ValidationResult struct {
	ResultID        string    `json:"result_id"`
	RoundID         string    `json:"round_id"`
	Claim           string    `json:"claim"`
	IsValid         bool      `json:"is_valid"`
	Confidence      int       `json:"confidence"`
	Evidence        string    `json:"evidence,omitempty"`
	Fallacies       []string  `json:"logical_fallacies,omitempty"`
	SupportingFacts []string  `json:"supporting_facts,omitempty"`
	Selected        bool      `json:"selected"`
	CreatedAt       time.Time `json:"created_at"`
}

// Feedback is a per-response user verdict. It feeds the continuation
// decision but is never required for it unless configured so.
type Feedback struct {
	FeedbackID string          `json:"feedback_id"`
	RoundID    string          `json:"round_id"`
	ResponseID string          `json:"response_id,omitempty"`
	Verdict    FeedbackVerdict `json:"verdict"`
	Comment    string          `json:"comment,omitempty"`
	Priority   int             `json:"priority"`
	CreatedAt  time.Time       `json:"created_at"`
}

// RoundEvent is a journaled stream event kept for replay.
type RoundEvent struct {
	EventID string          `json:"event_id"`
	RoundID string          `json:"round_id"`
	Seq     int64           `json:"seq"`
	Ts      int64           `json:"ts"` // Unix milliseconds
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

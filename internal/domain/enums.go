// Package domain defines the core domain models for the round
// orchestration and validation engine.
package domain

// SessionStatus represents the lifecycle status of a session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// Terminal reports whether the session can no longer start rounds.
func (s SessionStatus) Terminal() bool {
	return s != SessionStatusActive
}

// RoundStatus represents the status of a round.
type RoundStatus string

const (
	RoundStatusActive           RoundStatus = "ACTIVE"
	RoundStatusProcessing       RoundStatus = "PROCESSING"
	RoundStatusAwaitingFeedback RoundStatus = "AWAITING_FEEDBACK"
	RoundStatusFeedbackReceived RoundStatus = "FEEDBACK_RECEIVED"
	RoundStatusCompleted        RoundStatus = "COMPLETED"
	RoundStatusError            RoundStatus = "ERROR"
)

// Terminal reports whether the round has reached a final status.
func (s RoundStatus) Terminal() bool {
	return s == RoundStatusCompleted || s == RoundStatusError
}

// ResponseStatus represents the status of an agent response.
type ResponseStatus string

const (
	ResponseStatusSubmitted ResponseStatus = "SUBMITTED"
	ResponseStatusValidated ResponseStatus = "VALIDATED"
	ResponseStatusAccepted  ResponseStatus = "ACCEPTED"
	ResponseStatusRejected  ResponseStatus = "REJECTED"
	ResponseStatusFlagged   ResponseStatus = "FLAGGED"
	ResponseStatusError     ResponseStatus = "ERROR"
)

// Sentiment represents the stance detected in an agent response.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// AgentRole represents the configured role of an agent.
type AgentRole string

const (
	AgentRoleAnalyst     AgentRole = "analyst"
	AgentRoleCritic      AgentRole = "critic"
	AgentRoleSynthesizer AgentRole = "synthesizer"
)

// FeedbackVerdict represents a user's verdict on an agent response.
type FeedbackVerdict string

const (
	FeedbackVerdictAccepted FeedbackVerdict = "accepted"
	FeedbackVerdictRejected FeedbackVerdict = "rejected"
	FeedbackVerdictFlagged  FeedbackVerdict = "flagged"
)

// ResponseStatus returns the response status a verdict maps to.
func (v FeedbackVerdict) ResponseStatus() (ResponseStatus, bool) {
	switch v {
	case FeedbackVerdictAccepted:
		return ResponseStatusAccepted, true
	case FeedbackVerdictRejected:
		return ResponseStatusRejected, true
	case FeedbackVerdictFlagged:
		return ResponseStatusFlagged, true
	default:
		return "", false
	}
}

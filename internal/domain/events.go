package domain

// EventType represents the type of a stream event.
type EventType string

const (
	EventTypeNodeAdded        EventType = "node_added"
	EventTypeNodeUpdated      EventType = "node_updated"
	EventTypeAgentProcessing  EventType = "agent_processing"
	EventTypeAgentResponse    EventType = "agent_response"
	EventTypeValidationStart  EventType = "validation_start"
	EventTypeValidationResult EventType = "validation_result"
	EventTypeComplete         EventType = "complete"
	EventTypeError            EventType = "error"
)

// Terminal reports whether the event type closes the stream.
func (t EventType) Terminal() bool {
	return t == EventTypeComplete || t == EventTypeError
}

// NodeKind represents the kind of a graph node referenced by node events.
type NodeKind string

const (
	NodeKindQuery      NodeKind = "query"
	NodeKindAgent      NodeKind = "agent"
	NodeKindValidation NodeKind = "validation"
)

// Node IDs for the two singleton graph nodes of a round.
const (
	NodeIDQuery      = "query"
	NodeIDValidation = "validation"
)

// AgentNodeID returns the graph node ID for an agent node.
func AgentNodeID(agentID string) string {
	return "agent:" + agentID
}

// EventPayload is implemented by the payload struct of each event type.
// The payload shape is fixed by the type tag; this is a closed set.
type EventPayload interface {
	EventType() EventType
}

// NodeAddedPayload is the payload for a node_added event.
type NodeAddedPayload struct {
	RoundID string   `json:"round_id"`
	NodeID  string   `json:"node_id"`
	Kind    NodeKind `json:"kind"`
	Label   string   `json:"label"`
	AgentID string   `json:"agent_id,omitempty"`
}

// NodeUpdatedPayload is the payload for a node_updated event.
type NodeUpdatedPayload struct {
	RoundID    string `json:"round_id"`
	NodeID     string `json:"node_id"`
	Status     string `json:"status"`
	Confidence *int   `json:"confidence,omitempty"`
}

// AgentProcessingPayload is the payload for an agent_processing event.
type AgentProcessingPayload struct {
	RoundID   string `json:"round_id"`
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Position  int    `json:"position"`
	Total     int    `json:"total"`
}

// AgentResponsePayload is the payload for an agent_response event.
type AgentResponsePayload struct {
	Response *AgentResponse `json:"response"`
}

// ValidationStartPayload is the payload for a validation_start event.
type ValidationStartPayload struct {
	RoundID       string `json:"round_id"`
	ResponseCount int    `json:"response_count"`
}

// ValidationResultPayload is the payload for a validation_result event.
type ValidationResultPayload struct {
	RoundID           string              `json:"round_id"`
	Results           []*ValidationResult `json:"results"`
	RecommendContinue bool                `json:"recommend_continue"`
	Fallback          bool                `json:"fallback"`
}

// CompletePayload is the payload for the terminal complete event.
type CompletePayload struct {
	RoundID     string      `json:"round_id"`
	RoundNumber int         `json:"round_number"`
	Status      RoundStatus `json:"status"`
}

// ErrorPayload is the payload for the terminal error event.
type ErrorPayload struct {
	RoundID string `json:"round_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (NodeAddedPayload) EventType() EventType        { return EventTypeNodeAdded }
func (NodeUpdatedPayload) EventType() EventType      { return EventTypeNodeUpdated }
func (AgentProcessingPayload) EventType() EventType  { return EventTypeAgentProcessing }
func (AgentResponsePayload) EventType() EventType    { return EventTypeAgentResponse }
func (ValidationStartPayload) EventType() EventType  { return EventTypeValidationStart }
func (ValidationResultPayload) EventType() EventType { return EventTypeValidationResult }
func (CompletePayload) EventType() EventType         { return EventTypeComplete }
func (ErrorPayload) EventType() EventType            { return EventTypeError }

package stream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
)

// Sink receives every event of a run in stream order.
type Sink interface {
	Write(ctx context.Context, event *Event) error
}

// EventJournal is the persistence surface the store sink writes to.
type EventJournal interface {
	CreateRoundEvent(ctx context.Context, event *domain.RoundEvent) error
}

// StoreSink journals events so detached observers can replay the run.
type StoreSink struct {
	journal EventJournal
}

var _ Sink = (*StoreSink)(nil)

// NewStoreSink creates a journaling sink.
func NewStoreSink(journal EventJournal) *StoreSink {
	return &StoreSink{journal: journal}
}

// Write persists one event to the round journal.
func (s *StoreSink) Write(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	return s.journal.CreateRoundEvent(ctx, &domain.RoundEvent{
		EventID: "evt_" + uuid.New().String()[:8],
		RoundID: event.RoundID,
		Seq:     event.Seq,
		Ts:      event.Ts,
		Type:    event.Type,
		Payload: payload,
	})
}

// Broadcaster pushes serialized events to session observers.
type Broadcaster interface {
	Broadcast(sessionID string, data []byte)
}

// BroadcastSink forwards events to a session's feed observers.
type BroadcastSink struct {
	sessionID   string
	broadcaster Broadcaster
}

var _ Sink = (*BroadcastSink)(nil)

// NewBroadcastSink creates a sink feeding a session's observers.
func NewBroadcastSink(sessionID string, broadcaster Broadcaster) *BroadcastSink {
	return &BroadcastSink{sessionID: sessionID, broadcaster: broadcaster}
}

// Write serializes the event envelope and broadcasts it.
func (s *BroadcastSink) Write(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.broadcaster.Broadcast(s.sessionID, data)
	return nil
}

// CaptureSink records events in memory. Used by tests to assert stream
// ordering.
type CaptureSink struct {
	mu     sync.Mutex
	events []*Event
}

var _ Sink = (*CaptureSink)(nil)

// NewCaptureSink creates an empty capture sink.
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

// Write records the event.
func (s *CaptureSink) Write(ctx context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns the captured events in emission order.
func (s *CaptureSink) Events() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

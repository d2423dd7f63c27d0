// Package stream implements the ordered, typed event stream that
// narrates an orchestration run to its observers.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
)

// Event is one entry in a run's ordered stream.
type Event struct {
	Seq     int64
	Ts      int64
	RoundID string
	Type    domain.EventType
	Payload domain.EventPayload
}

type eventEnvelope struct {
	Seq     int64               `json:"seq"`
	Ts      int64               `json:"ts"`
	Type    domain.EventType    `json:"type"`
	Payload domain.EventPayload `json:"payload,omitempty"`
}

// MarshalJSON renders the wire envelope: sequence, timestamp, type tag
// and the type-specific payload.
func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventEnvelope{Seq: e.Seq, Ts: e.Ts, Type: e.Type, Payload: e.Payload})
}

// Target accepts event payloads during a run. The live Emitter and the
// replay Buffer both satisfy it, so the invoker does not care whether
// its events are delivered immediately or re-serialized later.
type Target interface {
	Emit(ctx context.Context, payload domain.EventPayload)
}

// Emitter assigns sequence numbers and fans events out to its sinks in
// order. It enforces the terminal rule: after a complete or error event
// the stream is closed and later events are dropped.
type Emitter struct {
	roundID string
	sinks   []Sink

	mu     sync.Mutex
	seq    int64
	closed bool
}

var _ Target = (*Emitter)(nil)

// NewEmitter creates an emitter for one orchestration run.
func NewEmitter(roundID string, sinks ...Sink) *Emitter {
	return &Emitter{roundID: roundID, sinks: sinks}
}

// Emit appends one event to the stream. Sink failures are logged and do
// not interrupt the run.
func (e *Emitter) Emit(ctx context.Context, payload domain.EventPayload) {
	e.mu.Lock()
	defer e.mu.Unlock()

	eventType := payload.EventType()
	if e.closed {
		slog.Warn("event dropped after terminal event",
			"round_id", e.roundID, "type", eventType)
		return
	}
	if eventType.Terminal() {
		e.closed = true
	}

	e.seq++
	event := &Event{
		Seq:     e.seq,
		Ts:      time.Now().UnixMilli(),
		RoundID: e.roundID,
		Type:    eventType,
		Payload: payload,
	}

	for _, sink := range e.sinks {
		if err := sink.Write(ctx, event); err != nil {
			slog.Error("event sink write failed",
				"round_id", e.roundID, "seq", event.Seq, "type", event.Type, "error", err)
		}
	}
}

// Closed reports whether a terminal event has been emitted.
func (e *Emitter) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Buffer queues payloads so a parallel worker's events can be replayed
// through the live emitter in assignment order.
type Buffer struct {
	mu       sync.Mutex
	payloads []domain.EventPayload
}

var _ Target = (*Buffer)(nil)

// NewBuffer creates an empty replay buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Emit queues a payload for later replay.
func (b *Buffer) Emit(ctx context.Context, payload domain.EventPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, payload)
}

// Replay forwards the queued payloads to the emitter in queue order.
func (b *Buffer) Replay(ctx context.Context, em *Emitter) {
	b.mu.Lock()
	payloads := b.payloads
	b.payloads = nil
	b.mu.Unlock()

	for _, payload := range payloads {
		em.Emit(ctx, payload)
	}
}

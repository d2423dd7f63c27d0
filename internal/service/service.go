// Package service implements the session controller and the round
// engine: starting rounds, invoking the agent panel, synthesizing
// validation and deciding continuation.
package service

import (
	"github.com/google/uuid"

	"github.com/KraftonexStudios/hackwave-sub001/internal/config"
	"github.com/KraftonexStudios/hackwave-sub001/internal/store"
	"github.com/KraftonexStudios/hackwave-sub001/internal/stream"
	"github.com/KraftonexStudios/hackwave-sub001/policy"
)

type Service struct {
	store     *store.SQLiteStore
	invoker   *Invoker
	validator Validator
	policy    *policy.Engine
	feed      stream.Broadcaster
	config    *config.Config
}

// New wires the round engine. The policy engine and the feed
// broadcaster may be nil; the service then falls back to the built-in
// continuation decision and skips live fan-out.
func New(st *store.SQLiteStore, invoker *Invoker, validator Validator, policyEngine *policy.Engine, feed stream.Broadcaster, cfg *config.Config) *Service {
	return &Service{
		store:     st,
		invoker:   invoker,
		validator: validator,
		policy:    policyEngine,
		feed:      feed,
		config:    cfg,
	}
}

func newID(prefix string) string {
	return prefix + "_" + uuid.New().String()[:8]
}

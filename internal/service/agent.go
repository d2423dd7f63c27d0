package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
)

// RegisterAgentRequest carries the inputs for registering an agent.
type RegisterAgentRequest struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	Model        string `json:"model,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// RegisterAgent adds an agent to the registry. Unknown roles are
// allowed; they run with the generic role instruction.
func (s *Service) RegisterAgent(ctx context.Context, req *RegisterAgentRequest) (*domain.Agent, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", domain.ErrInvalidInput)
	}

	agent := &domain.Agent{
		AgentID:      newID("agt"),
		Name:         name,
		Role:         domain.AgentRole(role),
		Model:        strings.TrimSpace(req.Model),
		Instructions: strings.TrimSpace(req.Instructions),
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	slog.Info("agent registered", "agent_id", agent.AgentID, "name", name, "role", role)
	return agent, nil
}

// GetAgent loads one registered agent.
func (s *Service) GetAgent(ctx context.Context, agentID string) (*domain.Agent, error) {
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("%w: agent %s", domain.ErrNotFound, agentID)
	}
	return agent, nil
}

// ListAgents returns the registry in registration order.
func (s *Service) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	agents, err := s.store.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/KraftonexStudios/hackwave-sub001/internal/adapter/llm"
	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
	"github.com/KraftonexStudios/hackwave-sub001/internal/parser"
	"github.com/KraftonexStudios/hackwave-sub001/internal/stream"
)

// failureNotice replaces the content of a response whose generation
// call failed.
const failureNotice = "The agent was unable to produce a response for this round."

var roleInstructions = map[domain.AgentRole]string{
	domain.AgentRoleAnalyst:     "You are an analyst agent. Examine the task rigorously, lay out your reasoning step by step, and cite the evidence you rely on.",
	domain.AgentRoleCritic:      "You are a critic agent. Challenge the strongest claims about the task, surface risks and weaknesses, and say what would change your mind.",
	domain.AgentRoleSynthesizer: "You are a synthesizer agent. Weigh the competing considerations around the task and work toward a balanced position.",
}

const defaultRoleInstruction = "You are a discussion agent. Give your considered position on the task."

// Invoker runs one agent against a round task. Generation failures are
// isolated per call: a failing agent yields an ERROR response instead
// of aborting the panel.
type Invoker struct {
	generator llm.TextGenerator
	parser    parser.ResponseParser
	timeout   time.Duration
}

func NewInvoker(generator llm.TextGenerator, p parser.ResponseParser, timeout time.Duration) *Invoker {
	return &Invoker{
		generator: generator,
		parser:    p,
		timeout:   timeout,
	}
}

// Invoke calls one agent and returns its response, emitting the
// agent's progress events to target on the way. It never fails; the
// caller decides what a returned ERROR response means for the round.
func (inv *Invoker) Invoke(ctx context.Context, round *domain.Round, agent *domain.Agent, position, total int, target stream.Target) *domain.AgentResponse {
	target.Emit(ctx, domain.NodeAddedPayload{
		RoundID: round.RoundID,
		NodeID:  domain.AgentNodeID(agent.AgentID),
		Kind:    domain.NodeKindAgent,
		Label:   agent.Name,
		AgentID: agent.AgentID,
	})
	target.Emit(ctx, domain.AgentProcessingPayload{
		RoundID:   round.RoundID,
		AgentID:   agent.AgentID,
		AgentName: agent.Name,
		Position:  position + 1,
		Total:     total,
	})

	resp := inv.generate(ctx, round, agent)

	target.Emit(ctx, domain.AgentResponsePayload{Response: resp})
	target.Emit(ctx, domain.NodeUpdatedPayload{
		RoundID:    round.RoundID,
		NodeID:     domain.AgentNodeID(agent.AgentID),
		Status:     string(resp.Status),
		Confidence: &resp.Confidence,
	})
	return resp
}

func (inv *Invoker) generate(ctx context.Context, round *domain.Round, agent *domain.Agent) *domain.AgentResponse {
	resp := &domain.AgentResponse{
		ResponseID: newID("res"),
		RoundID:    round.RoundID,
		AgentID:    agent.AgentID,
		AgentName:  agent.Name,
		CreatedAt:  time.Now(),
	}

	callCtx := ctx
	if inv.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := inv.generator.Generate(callCtx, &llm.GenerateRequest{
		System: roleInstruction(agent),
		Prompt: buildPrompt(round),
		Model:  agent.Model,
	})
	resp.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		slog.Warn("agent invocation failed",
			"round_id", round.RoundID,
			"agent_id", agent.AgentID,
			"duration_ms", resp.DurationMs,
			"error", err)
		resp.Content = failureNotice
		resp.Confidence = 0
		resp.Sentiment = domain.SentimentNeutral
		resp.Status = domain.ResponseStatusError
		return resp
	}

	parsed := inv.parser.Parse(result.Text)
	resp.Content = result.Text
	resp.Confidence = parsed.Confidence
	resp.Sentiment = parsed.Sentiment
	resp.Reasoning = parsed.Reasoning
	resp.Evidence = parsed.Evidence
	resp.Status = domain.ResponseStatusSubmitted

	slog.Debug("agent responded",
		"round_id", round.RoundID,
		"agent_id", agent.AgentID,
		"confidence", resp.Confidence,
		"sentiment", resp.Sentiment,
		"duration_ms", resp.DurationMs)
	return resp
}

// ListModels surfaces the models visible to the generation provider.
func (s *Service) ListModels(ctx context.Context) ([]llm.Model, error) {
	return s.invoker.generator.ListModels(ctx)
}

// roleInstruction builds the system prompt: the role framing, then any
// per-agent instructions, then the confidence ask the parser keys on.
func roleInstruction(agent *domain.Agent) string {
	instruction, ok := roleInstructions[agent.Role]
	if !ok {
		instruction = defaultRoleInstruction
	}
	if agent.Instructions != "" {
		instruction += "\n\n" + agent.Instructions
	}
	return instruction + "\n\nAlways state your confidence as a percentage."
}

func buildPrompt(round *domain.Round) string {
	if round.Enrichment == "" {
		return round.Task
	}
	return round.Task + "\n\nAdditional context:\n" + round.Enrichment
}

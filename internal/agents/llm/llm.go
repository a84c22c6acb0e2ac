package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/budget"
	"github.com/dshills/revet/internal/config"
	"github.com/dshills/revet/internal/providers"
	"github.com/dshills/revet/internal/redact"
)

// Agent reviews a diff by prompting an inference backend for structured
// findings.
type Agent struct {
	id            string
	name          string
	client        providers.Client
	costModel     string // empty for local inference, no spend to account
	maxTokens     int
	redactSecrets bool
}

// NewPaid creates the hosted-provider review agent.
func NewPaid(cfg config.LLMConfig) (*Agent, error) {
	client, err := providers.New(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", cfg.Provider, err)
	}
	return &Agent{
		id:            "llm-review",
		name:          "LLM Review",
		client:        client,
		costModel:     cfg.Model,
		maxTokens:     cfg.MaxTokens,
		redactSecrets: cfg.RedactSecrets,
	}, nil
}

// NewLocal creates the local-inference review agent. It runs against
// Ollama/LM Studio and is exempt from budget gating by id.
func NewLocal(cfg config.LLMConfig) (*Agent, error) {
	client, err := providers.NewOllama(cfg.LocalModel)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	return &Agent{
		id:            agent.FreeLocalAgentID,
		name:          "Local Review",
		client:        client,
		maxTokens:     cfg.MaxTokens,
		redactSecrets: cfg.RedactSecrets,
	}, nil
}

func (a *Agent) ID() string   { return a.id }
func (a *Agent) Name() string { return a.name }

// UsesPaidInference is true for both variants since both call an
// inference endpoint; the budget gate exempts the local agent by id.
func (a *Agent) UsesPaidInference() bool        { return true }
func (a *Agent) Supports(rc agent.Context) bool { return strings.TrimSpace(rc.Diff) != "" }

func (a *Agent) Run(ctx context.Context, rc agent.Context) agent.Result {
	diffText := rc.Diff
	if a.redactSecrets {
		diffText = redact.Secrets(diffText)
	}
	if strings.TrimSpace(diffText) == "" {
		return agent.Success(a.id, nil, agent.Metrics{})
	}

	req := providers.Request{
		System:    systemPrompt,
		Prompt:    buildPrompt(diffText, rc.Files, rc.MaxFindings),
		MaxTokens: a.maxTokens,
	}
	resp, err := a.client.Complete(ctx, req)
	if err != nil {
		return agent.Failure(a.id, agent.StageExecution, fmt.Errorf("provider %s: %w", a.client.Name(), err), nil)
	}
	tokens := resp.TokensUsed

	findings, perr := parseFindings(resp.Text, a.id)
	if perr != nil {
		// One repair round-trip before giving up.
		resp2, err2 := a.client.Complete(ctx, providers.Request{
			System:    systemPrompt,
			Prompt:    repairPrompt(perr, resp.Text),
			MaxTokens: a.maxTokens,
		})
		if err2 != nil {
			return agent.Failure(a.id, agent.StageExecution,
				fmt.Errorf("repair pass failed: %w (original error: %w)", err2, perr),
				salvageFindings(resp.Text, a.id))
		}
		tokens += resp2.TokensUsed
		findings, perr = parseFindings(resp2.Text, a.id)
		if perr != nil {
			partial := salvageFindings(resp2.Text, a.id)
			if len(partial) == 0 {
				partial = salvageFindings(resp.Text, a.id)
			}
			return agent.Failure(a.id, agent.StagePostprocess,
				fmt.Errorf("model output is not a valid findings array after repair: %w", perr), partial)
		}
	}

	if rc.MaxFindings > 0 && len(findings) > rc.MaxFindings {
		findings = findings[:rc.MaxFindings]
	}

	metrics := agent.Metrics{TokensUsed: tokens}
	if a.costModel != "" {
		metrics.CostUSD = budget.EstimateCostUSD(tokens, a.costModel)
	}
	return agent.Success(a.id, findings, metrics)
}

package exec

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/budget"
	"github.com/dshills/revet/internal/cache"
	"github.com/dshills/revet/internal/config"
)

// SkippedAgent records an agent that did not run and why. Every skip is
// surfaced in the final summary, even when the run succeeds.
type SkippedAgent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Result is what the orchestrator hands downstream: the merged finding
// sets, every raw per-agent result, and the skip ledger.
type Result struct {
	CompleteFindings []agent.Finding
	PartialFindings  []agent.Finding
	AllResults       []agent.Result
	SkippedAgents    []SkippedAgent
}

// AbortError terminates the run: a required pass was blocked by budget or
// one of its agents failed. The CLI maps it to a non-zero exit; no
// partial report is emitted.
type AbortError struct {
	Pass    string
	AgentID string
	Reason  string
	Crashed bool
}

func (e *AbortError) Error() string {
	if e.AgentID == "" {
		return fmt.Sprintf("required pass %q aborted: %s", e.Pass, e.Reason)
	}
	verb := "failed"
	if e.Crashed {
		verb = "crashed"
	}
	return fmt.Sprintf("required pass %q aborted: agent %q %s: %s", e.Pass, e.AgentID, verb, e.Reason)
}

// Request describes one run of the pipeline.
type Request struct {
	Trigger  budget.Trigger
	AgentCtx agent.Context
}

// Executor drives the configured passes in declared order. Agents inside
// a pass run concurrently; passes never overlap, since a later pass's
// gating may depend on earlier cache writes.
type Executor struct {
	registry *agent.Registry
	cfg      config.Config
	store    *cache.Store
	tracker  budget.Tracker
	logger   *slog.Logger
}

// New creates an Executor. A nil logger falls back to slog's default.
func New(registry *agent.Registry, cfg config.Config, store *cache.Store, tracker budget.Tracker, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		registry: registry,
		cfg:      cfg,
		store:    store,
		tracker:  tracker,
		logger:   logger,
	}
}

// Execute runs every enabled pass. It returns an *AbortError when a
// required pass cannot complete; any optional failure is absorbed into
// the result's partial set and skip ledger.
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	run := &Result{}

	for _, pass := range e.cfg.Passes {
		if !pass.Enabled {
			continue
		}
		agents := e.admitAgents(pass, req, run)

		if e.budgetBlocked(agents) {
			if pass.Required {
				e.logger.Error("budget exhausted for required pass", "pass", pass.Name)
				return nil, &AbortError{Pass: pass.Name, Reason: "Budget limit exceeded"}
			}
			for _, a := range agents {
				e.skip(run, a.ID(), a.Name(), "Budget limit exceeded")
			}
			continue
		}

		// Agents within a pass share no state; run them concurrently
		// and join before anything downstream sees their output.
		outcomes := make([]outcome, len(agents))
		var wg sync.WaitGroup
		for i, a := range agents {
			wg.Add(1)
			go func(i int, a agent.Agent) {
				defer wg.Done()
				outcomes[i] = e.runAgent(ctx, a, req)
			}(i, a)
		}
		wg.Wait()

		// Single decision point for continue-vs-abort.
		for _, o := range outcomes {
			step := classify(o)
			run.AllResults = append(run.AllResults, o.result)
			run.CompleteFindings = append(run.CompleteFindings, step.complete...)
			run.PartialFindings = append(run.PartialFindings, step.partial...)
			if step.skipped != nil {
				run.SkippedAgents = append(run.SkippedAgents, *step.skipped)
			}
			if step.failed {
				verb := "failed"
				if o.crashed {
					verb = "crashed"
				}
				e.logger.Warn("agent "+verb, "pass", pass.Name, "agent", o.agent.ID(), "error", o.result.Error)
				if pass.Required {
					return nil, &AbortError{
						Pass:    pass.Name,
						AgentID: o.agent.ID(),
						Reason:  o.result.Error,
						Crashed: o.crashed,
					}
				}
			}
		}
	}
	return run, nil
}

// admitAgents resolves a pass's agent ids against the allowlist and the
// branch policy, recording every rejection in the skip ledger.
func (e *Executor) admitAgents(pass config.Pass, req Request, run *Result) []agent.Agent {
	var admitted []agent.Agent
	for _, id := range pass.Agents {
		a, ok := e.registry.Get(id)
		if !ok {
			// Security rejection: never executed, never handed
			// environment or secrets access.
			e.logger.Warn("unknown agent id", "pass", pass.Name, "agent", id)
			e.skip(run, id, id, fmt.Sprintf("agent %q is not in the allowlist", id))
			continue
		}
		if budget.ForbiddenOnPush(e.cfg.Policy, req.Trigger, req.AgentCtx.Branch, id) {
			e.skip(run, id, a.Name(), "agent is forbidden on direct pushes to the protected branch")
			continue
		}
		if !a.Supports(req.AgentCtx) {
			e.skip(run, id, a.Name(), "agent does not support this change")
			continue
		}
		admitted = append(admitted, a)
	}
	return admitted
}

// budgetBlocked gates on the admitted agents, not the pass's listed ids:
// a paid agent already skipped by the allowlist or branch policy cannot
// spend, so it must not block the pass's remaining free agents.
func (e *Executor) budgetBlocked(agents []agent.Agent) bool {
	infos := make([]budget.Info, len(agents))
	for i, a := range agents {
		infos[i] = budget.Info{ID: a.ID(), UsesPaidInference: a.UsesPaidInference()}
	}
	return budget.NeedsGate(infos) && e.tracker.Exhausted()
}

func (e *Executor) skip(run *Result, id, name, reason string) {
	run.SkippedAgents = append(run.SkippedAgents, SkippedAgent{ID: id, Name: name, Reason: reason})
}

// runAgent settles one agent: cache lookup, execution, and normalization
// of panics into the failure shape. The returned outcome is always a
// valid Result union.
func (e *Executor) runAgent(ctx context.Context, a agent.Agent, req Request) (o outcome) {
	o.agent = a

	key, cacheable := e.cacheKey(req, a.ID())
	if cacheable {
		if res, ok := e.store.Get(key); ok {
			e.logger.Info("cache hit", "agent", a.ID(), "commit", req.AgentCtx.HeadCommit)
			res.Metrics.FromCache = true
			o.result = res
			return o
		}
	}

	defer func() {
		if r := recover(); r != nil {
			// An agent's own code threw unexpectedly. Normalize into
			// the failure union; the pass policy decides what happens.
			o.crashed = true
			o.result = agent.Failure(a.ID(), agent.StageExecution, fmt.Errorf("unexpected panic: %v", r), nil)
		}
	}()

	start := time.Now()
	res := a.Run(ctx, req.AgentCtx)
	res.AgentID = a.ID()
	res.Metrics.DurationMs = time.Since(start).Milliseconds()

	if err := res.Validate(); err != nil {
		o.result = agent.Failure(a.ID(), agent.StagePostprocess, fmt.Errorf("agent returned malformed result: %w", err), nil)
		return o
	}

	if res.Status == agent.StatusSuccess && cacheable {
		if err := e.store.Set(key, res); err != nil {
			e.logger.Warn("caching agent result failed", "agent", a.ID(), "error", err)
		}
	}
	o.result = res
	return o
}

// cacheKey is only usable when both cache identifiers are known.
func (e *Executor) cacheKey(req Request, agentID string) (cache.Key, bool) {
	if req.AgentCtx.PRNumber <= 0 || req.AgentCtx.HeadCommit == "" {
		return cache.Key{}, false
	}
	return cache.Key{
		PRNumber:   req.AgentCtx.PRNumber,
		HeadCommit: req.AgentCtx.HeadCommit,
		ConfigHash: e.cfg.Hash(),
		AgentID:    agentID,
	}, e.store.Enabled()
}

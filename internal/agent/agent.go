package agent

import (
	"context"
	"time"

	"github.com/dshills/revet/internal/diff"
)

// FreeLocalAgentID identifies the one agent exempt from budget gating:
// it runs inference against a local endpoint and costs nothing.
const FreeLocalAgentID = "local-review"

// Context is the isolated, read-only input handed to each agent run.
// Now is injected so prompts and tests see a frozen instant instead of
// process-wide mutable time.
type Context struct {
	Diff        string      // unified diff text
	Files       []diff.File // structured changed files
	Branch      string
	HeadCommit  string
	PRNumber    int
	MaxFindings int
	Now         time.Time
}

// Agent is the contract every analysis agent implements. Run must be a
// pure function of its inputs: no shared state across agents, failures
// reported through the Result union rather than panics, and any timeout
// self-enforced by the agent.
type Agent interface {
	ID() string
	Name() string
	Supports(rc Context) bool
	UsesPaidInference() bool
	Run(ctx context.Context, rc Context) Result
}

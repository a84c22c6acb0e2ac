package exec

import (
	"github.com/dshills/revet/internal/agent"
)

// outcome is one settled agent execution. result is always a valid
// Result union by the time classification sees it.
type outcome struct {
	agent   agent.Agent
	result  agent.Result
	crashed bool
}

// step is what one outcome contributes to the run.
type step struct {
	complete []agent.Finding
	partial  []agent.Finding
	skipped  *SkippedAgent
	failed   bool
}

// classify maps a settled outcome onto the run's finding sets. Provenance
// is assigned here, once, and never reclassified downstream: a success
// yields complete findings, a failure yields salvaged partial findings
// plus a skip entry explaining the failure.
func classify(o outcome) step {
	var s step

	switch o.result.Status {
	case agent.StatusSuccess:
		s.complete = annotate(o.result.Findings, o.agent.ID(), agent.ProvenanceComplete)
	case agent.StatusFailure:
		s.failed = true
		s.partial = annotate(o.result.PartialFindings, o.agent.ID(), agent.ProvenancePartial)
		s.skipped = &SkippedAgent{
			ID:     o.agent.ID(),
			Name:   o.agent.Name(),
			Reason: o.result.Error,
		}
	}
	return s
}

func annotate(findings []agent.Finding, agentID string, p agent.Provenance) []agent.Finding {
	out := make([]agent.Finding, len(findings))
	for i, f := range findings {
		if f.SourceAgent == "" {
			f.SourceAgent = agentID
		}
		f.Provenance = p
		out[i] = f
	}
	return out
}

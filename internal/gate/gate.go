package gate

import (
	"fmt"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/config"
	"github.com/dshills/revet/internal/resolve"
)

// Verdict is the pass/fail decision handed to reporting adapters.
type Verdict struct {
	Passed         bool            `json:"passed"`
	FailingCount   int             `json:"failingCount"`
	Threshold      string          `json:"threshold"`
	SuppressInline bool            `json:"suppressInline"`
	Reasons        []string        `json:"reasons,omitempty"`
	WorstSeverity  agent.Severity  `json:"worstSeverity,omitempty"`
}

// Evaluate combines the deduplicated complete finding set, the configured
// severity threshold, and (when the drift gate is enabled) the inline
// drift signal.
//
// Findings at or above the threshold fail the verdict. A drift-gate fail
// forces inline suppression but does not flip the severity verdict by
// itself unless gating.fail_on_drift is set. The two gates are
// independent switches: gating.enabled governs only the severity verdict,
// and drift_gate governs only inline suppression.
func Evaluate(complete []agent.Finding, inline *resolve.Signal, cfg config.Gating) Verdict {
	v := Verdict{Passed: true, Threshold: cfg.FailOnSeverity}

	for _, f := range complete {
		if agent.SeverityRank(f.Severity) > agent.SeverityRank(v.WorstSeverity) {
			v.WorstSeverity = f.Severity
		}
		if agent.MeetsThreshold(f.Severity, cfg.FailOnSeverity) {
			v.FailingCount++
		}
	}

	v.SuppressInline = resolve.ShouldSuppressInline(cfg.DriftGate, inline)
	if v.SuppressInline {
		v.Reasons = append(v.Reasons, "inline drift at fail level, inline comments suppressed")
	}

	if !cfg.Enabled {
		return v
	}

	if v.FailingCount > 0 {
		v.Passed = false
		v.Reasons = append(v.Reasons,
			fmt.Sprintf("%d finding(s) at or above severity %q", v.FailingCount, cfg.FailOnSeverity))
	}

	if v.SuppressInline && cfg.FailOnDrift {
		v.Passed = false
		v.Reasons = append(v.Reasons, "drift gate configured to fail the run")
	}

	return v
}

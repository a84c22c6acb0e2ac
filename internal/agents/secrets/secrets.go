package secrets

import (
	"context"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/diff"
	"github.com/dshills/revet/internal/redact"
)

// Agent scans added diff lines for secret material using the shared
// redaction rule table. Findings never quote the matched text.
type Agent struct{}

// New creates the secret scan agent.
func New() *Agent { return &Agent{} }

func (a *Agent) ID() string                     { return "secret-scan" }
func (a *Agent) Name() string                   { return "Secret Scan" }
func (a *Agent) UsesPaidInference() bool        { return false }
func (a *Agent) Supports(rc agent.Context) bool { return rc.Diff != "" }

func (a *Agent) Run(_ context.Context, rc agent.Context) agent.Result {
	var findings []agent.Finding
	for _, al := range diff.AddedLines(rc.Diff) {
		for _, hit := range redact.Check(al.Content) {
			findings = append(findings, agent.Finding{
				Severity:   agent.SeverityError,
				File:       al.File,
				Line:       al.Line,
				Message:    "possible " + hit.Description + " committed in this change",
				RuleID:     hit.ID,
				Suggestion: "Remove the secret from the change and rotate it; load it from the environment or a secret manager instead.",
			})
		}
	}
	if rc.MaxFindings > 0 && len(findings) > rc.MaxFindings {
		findings = findings[:rc.MaxFindings]
	}
	return agent.Success(a.ID(), findings, agent.Metrics{})
}

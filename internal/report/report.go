package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/exec"
	"github.com/dshills/revet/internal/gate"
	"github.com/dshills/revet/internal/resolve"
)

// Tool and Version identify the producing tool in report envelopes.
const (
	Tool    = "revet"
	Version = "1.0"
)

// RepoInfo describes the reviewed repository.
type RepoInfo struct {
	Root   string `json:"root,omitempty"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// InputInfo describes what was reviewed.
type InputInfo struct {
	Mode     string `json:"mode"`
	Range    string `json:"range,omitempty"`
	PRNumber int    `json:"prNumber,omitempty"`
}

// Report is the final envelope handed to writers and adapters. Complete
// and partial findings stay separated end to end; a consumer can always
// tell salvaged output from trusted output.
type Report struct {
	Tool            string              `json:"tool"`
	Version         string              `json:"version"`
	RunID           string              `json:"runId"`
	GeneratedAt     time.Time           `json:"generatedAt"`
	Repo            RepoInfo            `json:"repo"`
	Inputs          InputInfo           `json:"inputs"`
	Verdict         gate.Verdict        `json:"verdict"`
	Findings        []agent.Finding     `json:"findings"`
	PartialFindings []agent.Finding     `json:"partialFindings,omitempty"`
	Drift           resolve.Drift       `json:"drift"`
	Resolution      resolve.Stats       `json:"resolution"`
	SkippedAgents   []exec.SkippedAgent `json:"skippedAgents,omitempty"`
}

// Params collects everything the pipeline produced for one run.
type Params struct {
	Repo     RepoInfo
	Inputs   InputInfo
	Verdict  gate.Verdict
	Complete []agent.Finding
	Partial  []agent.Finding
	Drift    resolve.Drift
	Stats    resolve.Stats
	Skipped  []exec.SkippedAgent
	Now      time.Time
}

// Build assembles the report. Findings are ordered worst severity first,
// then by file and line, so every output format presents them the same
// way.
func Build(p Params) *Report {
	complete := sortFindings(p.Complete)
	partial := sortFindings(p.Partial)

	return &Report{
		Tool:            Tool,
		Version:         Version,
		RunID:           uuid.NewString(),
		GeneratedAt:     p.Now,
		Repo:            p.Repo,
		Inputs:          p.Inputs,
		Verdict:         p.Verdict,
		Findings:        complete,
		PartialFindings: partial,
		Drift:           p.Drift,
		Resolution:      p.Stats,
		SkippedAgents:   p.Skipped,
	}
}

func sortFindings(findings []agent.Finding) []agent.Finding {
	out := make([]agent.Finding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := agent.SeverityRank(out[i].Severity), agent.SeverityRank(out[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []agent.Finding) map[agent.Severity]int {
	counts := make(map[agent.Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/exec"
	"github.com/dshills/revet/internal/resolve"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, r *Report) error {
	ew := &errWriter{w: w}

	ew.printf("Revet Code Review — %s mode\n", r.Inputs.Mode)
	if r.Inputs.Range != "" {
		ew.printf("Range: %s\n", r.Inputs.Range)
	}
	if r.Inputs.PRNumber > 0 {
		ew.printf("Pull request: #%d\n", r.Inputs.PRNumber)
	}
	if r.Repo.Root != "" {
		ew.printf("Repository: %s (branch: %s)\n", r.Repo.Root, r.Repo.Branch)
	}
	ew.println(strings.Repeat("─", 60))

	verdict := "PASS"
	if !r.Verdict.Passed {
		verdict = "FAIL"
	}
	ew.printf("Verdict: %s (threshold: %s)\n", verdict, r.Verdict.Threshold)
	for _, reason := range r.Verdict.Reasons {
		ew.printf("  - %s\n", reason)
	}

	counts := CountBySeverity(r.Findings)
	ew.printf("Findings: %d", len(r.Findings))
	if len(r.Findings) > 0 {
		ew.printf(" (%d error, %d warning, %d info)",
			counts[agent.SeverityError], counts[agent.SeverityWarning], counts[agent.SeverityInfo])
	}
	if len(r.PartialFindings) > 0 {
		ew.printf(", %d partial", len(r.PartialFindings))
	}
	ew.println("")

	writeDriftLine(ew, r)
	writeSkipped(ew, r.SkippedAgents)
	ew.println(strings.Repeat("─", 60))

	if len(r.Findings) == 0 && len(r.PartialFindings) == 0 {
		ew.println("\nNo issues found. Looks good!")
		return ew.err
	}

	for _, sev := range []agent.Severity{agent.SeverityError, agent.SeverityWarning, agent.SeverityInfo} {
		var group []agent.Finding
		for _, f := range r.Findings {
			if f.Severity == sev {
				group = append(group, f)
			}
		}
		if len(group) == 0 {
			continue
		}

		ew.printf("\n%s %s\n", severityIcon(sev), strings.ToUpper(string(sev)))
		ew.println(strings.Repeat("─", 40))
		for _, f := range group {
			writeFinding(ew, f)
		}
	}

	if len(r.PartialFindings) > 0 {
		ew.println("\nPARTIAL (salvaged from failed agents, low confidence)")
		ew.println(strings.Repeat("─", 40))
		for _, f := range r.PartialFindings {
			writeFinding(ew, f)
		}
	}

	return ew.err
}

func writeFinding(ew *errWriter, f agent.Finding) {
	loc := f.File
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d", f.File, f.Line)
		if f.EndLine > f.Line {
			loc = fmt.Sprintf("%s-%d", loc, f.EndLine)
		}
	}
	ew.printf("\n  %s  [%s]", loc, f.SourceAgent)
	if f.RuleID != "" {
		ew.printf(" %s", f.RuleID)
	}
	ew.println("")
	for _, line := range wrapText(f.Message, 70) {
		ew.printf("    %s\n", line)
	}
	if f.Suggestion != "" {
		ew.println("  Suggestion:")
		for _, line := range wrapText(f.Suggestion, 70) {
			ew.printf("    %s\n", line)
		}
	}
}

func writeDriftLine(ew *errWriter, r *Report) {
	if r.Resolution.Total == 0 {
		return
	}
	ew.printf("Drift: overall %s (%.1f%%), inline %s (%.1f%%)\n",
		r.Drift.Overall.Level, r.Drift.Overall.DegradationPercent,
		r.Drift.Inline.Level, r.Drift.Inline.DegradationPercent)
	if r.Verdict.SuppressInline {
		ew.println("Inline comments suppressed: line positions are unreliable for this diff.")
	}
	if r.Drift.Overall.Level != resolve.LevelOK && len(r.Drift.Overall.Samples) > 0 {
		ew.println("Sample findings that lost their anchor:")
		for _, s := range r.Drift.Overall.Samples {
			ew.printf("  - %s: %s\n", s.File, s.Message)
		}
	}
}

func writeSkipped(ew *errWriter, skipped []exec.SkippedAgent) {
	if len(skipped) == 0 {
		return
	}
	ew.println("Skipped agents:")
	for _, s := range skipped {
		ew.printf("  - %s: %s\n", s.ID, s.Reason)
	}
}

func severityIcon(s agent.Severity) string {
	switch s {
	case agent.SeverityError:
		return "[!!]"
	case agent.SeverityWarning:
		return "[!]"
	case agent.SeverityInfo:
		return "[-]"
	default:
		return "[?]"
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/revet/internal/agent"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, r *Report) error {
	counts := CountBySeverity(r.Findings)

	fmt.Fprintf(w, "## Revet Code Review\n\n")

	if r.Verdict.Passed {
		fmt.Fprintf(w, "**Verdict: PASS** :white_check_mark:\n\n")
	} else {
		fmt.Fprintf(w, "**Verdict: FAIL** :x:\n\n")
		for _, reason := range r.Verdict.Reasons {
			fmt.Fprintf(w, "- %s\n", reason)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "| Severity | Count |\n")
	fmt.Fprintf(w, "|----------|-------|\n")
	fmt.Fprintf(w, "| Error    | %d    |\n", counts[agent.SeverityError])
	fmt.Fprintf(w, "| Warning  | %d    |\n", counts[agent.SeverityWarning])
	fmt.Fprintf(w, "| Info     | %d    |\n", counts[agent.SeverityInfo])
	fmt.Fprintf(w, "| **Total** | **%d** |\n\n", len(r.Findings))

	if len(r.SkippedAgents) > 0 {
		fmt.Fprintf(w, "**Skipped agents:**\n\n")
		for _, s := range r.SkippedAgents {
			fmt.Fprintf(w, "- `%s`: %s\n", s.ID, s.Reason)
		}
		fmt.Fprintln(w)
	}

	if r.Verdict.SuppressInline {
		fmt.Fprintf(w, "> Inline comments were suppressed: %.1f%% of line-anchored findings lost their position in this diff.\n\n",
			r.Drift.Inline.DegradationPercent)
	}

	if len(r.Findings) == 0 && len(r.PartialFindings) == 0 {
		fmt.Fprintln(w, "No issues found. :white_check_mark:")
		return nil
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

		fmt.Fprintf(w, "<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(group))
		for _, f := range group {
			writeMarkdownFinding(w, f)
		}
		fmt.Fprintf(w, "</details>\n\n")
	}

	if len(r.PartialFindings) > 0 {
		fmt.Fprintf(w, "<details>\n<summary>:warning: Partial findings (%d, salvaged from failed agents)</summary>\n\n", len(r.PartialFindings))
		for _, f := range r.PartialFindings {
			writeMarkdownFinding(w, f)
		}
		fmt.Fprintf(w, "</details>\n\n")
	}

	fmt.Fprintf(w, "*Run %s*\n", r.RunID)
	return nil
}

func writeMarkdownFinding(w io.Writer, f agent.Finding) {
	loc := f.File
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	fmt.Fprintf(w, "**`%s`** — %s", loc, f.Message)
	if f.RuleID != "" {
		fmt.Fprintf(w, " (`%s`)", f.RuleID)
	}
	fmt.Fprintf(w, "\n*Reported by %s*\n\n", f.SourceAgent)

	if f.Suggestion != "" {
		if looksLikeCode(f.Suggestion) {
			fmt.Fprintf(w, "```%s\n%s\n```\n\n", inferLang(f.File), f.Suggestion)
		} else {
			fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(f.Suggestion, "\n", "\n> "))
		}
	}
	fmt.Fprintf(w, "---\n\n")
}

func mdSeverityIcon(s agent.Severity) string {
	switch s {
	case agent.SeverityError:
		return ":red_circle:"
	case agent.SeverityWarning:
		return ":orange_circle:"
	case agent.SeverityInfo:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}

func looksLikeCode(s string) bool {
	codeIndicators := []string{
		"func ", "if ", "for ", "return ", "var ", "const ",
		"def ", "class ", "import ", "from ",
		"{", "}", "=>", "->", ":=", "==",
		"()", "[];",
	}
	for _, indicator := range codeIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

func inferLang(path string) string {
	langMap := map[string]string{
		".go":   "go",
		".py":   "python",
		".js":   "javascript",
		".ts":   "typescript",
		".tsx":  "tsx",
		".jsx":  "jsx",
		".rs":   "rust",
		".java": "java",
		".rb":   "ruby",
		".cpp":  "cpp",
		".c":    "c",
		".cs":   "csharp",
		".php":  "php",
		".sh":   "bash",
		".sql":  "sql",
		".yaml": "yaml",
		".yml":  "yaml",
		".json": "json",
		".tf":   "hcl",
	}
	for ext, lang := range langMap {
		if strings.HasSuffix(path, ext) {
			return lang
		}
	}
	return ""
}

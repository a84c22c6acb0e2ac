package static

import (
	"context"
	"path/filepath"
	"regexp"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/diff"
)

// rule is one pattern applied to added lines.
type rule struct {
	id         string
	severity   agent.Severity
	message    string
	suggestion string
	pattern    *regexp.Regexp
	exts       []string // empty matches every file
}

var rules = []rule{
	{
		id:         "STA001",
		severity:   agent.SeverityWarning,
		message:    "panic in non-test code",
		suggestion: "Return an error instead of panicking.",
		pattern:    regexp.MustCompile(`\bpanic\(`),
		exts:       []string{".go"},
	},
	{
		id:         "STA002",
		severity:   agent.SeverityInfo,
		message:    "debug print statement",
		suggestion: "Remove the print or route it through the logger.",
		pattern:    regexp.MustCompile(`\bfmt\.Print(ln|f)?\(`),
		exts:       []string{".go"},
	},
	{
		id:         "STA003",
		severity:   agent.SeverityInfo,
		message:    "console.log left in code",
		suggestion: "Remove the console.log or use a proper logger.",
		pattern:    regexp.MustCompile(`\bconsole\.log\(`),
		exts:       []string{".js", ".jsx", ".ts", ".tsx"},
	},
	{
		id:         "STA004",
		severity:   agent.SeverityWarning,
		message:    "plain HTTP URL",
		suggestion: "Use https:// unless the endpoint is loopback.",
		pattern:    regexp.MustCompile(`"http://(?:[^"l]|l[^o])`),
	},
	{
		id:         "STA005",
		severity:   agent.SeverityError,
		message:    "eval of dynamic input",
		suggestion: "Do not eval untrusted strings; parse the input instead.",
		pattern:    regexp.MustCompile(`\beval\(`),
		exts:       []string{".js", ".jsx", ".ts", ".tsx", ".py", ".rb", ".php"},
	},
	{
		id:         "STA006",
		severity:   agent.SeverityError,
		message:    "TLS certificate verification disabled",
		suggestion: "Remove InsecureSkipVerify or gate it behind a dev-only flag.",
		pattern:    regexp.MustCompile(`InsecureSkipVerify:\s*true`),
		exts:       []string{".go"},
	},
	{
		id:         "STA007",
		severity:   agent.SeverityWarning,
		message:    "weak hash algorithm",
		suggestion: "Use SHA-256 or stronger for anything security sensitive.",
		pattern:    regexp.MustCompile(`\b(md5|sha1)\.New\(`),
		exts:       []string{".go"},
	},
}

func (r rule) appliesTo(path string) bool {
	if isTestFile(path) {
		return false
	}
	if len(r.exts) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range r.exts {
		if e == ext {
			return true
		}
	}
	return false
}

var testFilePattern = regexp.MustCompile(`_test\.go$|\.test\.[jt]sx?$|^test_.*\.py$`)

func isTestFile(path string) bool {
	return testFilePattern.MatchString(filepath.Base(path))
}

// Agent applies the rule table to every added line of the diff. It runs
// entirely offline.
type Agent struct{}

// New creates the static rules agent.
func New() *Agent { return &Agent{} }

func (a *Agent) ID() string                     { return "static-rules" }
func (a *Agent) Name() string                   { return "Static Rules" }
func (a *Agent) UsesPaidInference() bool        { return false }
func (a *Agent) Supports(rc agent.Context) bool { return rc.Diff != "" }

func (a *Agent) Run(_ context.Context, rc agent.Context) agent.Result {
	var findings []agent.Finding
	for _, al := range diff.AddedLines(rc.Diff) {
		for _, r := range rules {
			if !r.appliesTo(al.File) || !r.pattern.MatchString(al.Content) {
				continue
			}
			findings = append(findings, agent.Finding{
				Severity:   r.severity,
				File:       al.File,
				Line:       al.Line,
				Message:    r.message,
				RuleID:     r.id,
				Suggestion: r.suggestion,
			})
		}
	}
	if rc.MaxFindings > 0 && len(findings) > rc.MaxFindings {
		findings = findings[:rc.MaxFindings]
	}
	return agent.Success(a.ID(), findings, agent.Metrics{})
}

package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/revet/internal/agent"
)

// rawFinding is the JSON structure the model is asked to return.
type rawFinding struct {
	Severity   string `json:"severity"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	EndLine    int    `json:"endLine"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
	RuleID     string `json:"ruleId"`
}

func (r rawFinding) toFinding(sourceAgent string) agent.Finding {
	sev := agent.Severity(r.Severity)
	switch sev {
	case agent.SeverityError, agent.SeverityWarning, agent.SeverityInfo:
	default:
		sev = agent.SeverityWarning
	}
	return agent.Finding{
		Severity:    sev,
		File:        r.File,
		Line:        r.Line,
		EndLine:     r.EndLine,
		Message:     r.Message,
		Suggestion:  r.Suggestion,
		RuleID:      r.RuleID,
		SourceAgent: sourceAgent,
	}
}

// parseFindings decodes the model response into findings. Markdown code
// fences around the array are tolerated, nothing else is.
func parseFindings(content, sourceAgent string) ([]agent.Finding, error) {
	content = stripFences(content)

	var raw []rawFinding
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	findings := make([]agent.Finding, 0, len(raw))
	for _, r := range raw {
		if r.Message == "" {
			continue
		}
		findings = append(findings, r.toFinding(sourceAgent))
	}
	return findings, nil
}

// salvageFindings recovers individually decodable elements from a
// response that failed strict parsing. The result is low confidence by
// construction and only ever reported as partial.
func salvageFindings(content, sourceAgent string) []agent.Finding {
	content = stripFences(content)

	start := strings.IndexByte(content, '[')
	end := strings.LastIndexByte(content, ']')
	if start < 0 || end <= start {
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(content[start:end+1]), &elems); err != nil {
		return nil
	}

	var findings []agent.Finding
	for _, e := range elems {
		var r rawFinding
		if err := json.Unmarshal(e, &r); err != nil || r.Message == "" {
			continue
		}
		findings = append(findings, r.toFinding(sourceAgent))
	}
	return findings
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}

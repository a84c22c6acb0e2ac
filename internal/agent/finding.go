package agent

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Provenance records whether a finding came from an agent that completed
// successfully or was salvaged from a failed one. Assigned once at
// collection time and never mutated afterward.
type Provenance string

const (
	ProvenanceComplete Provenance = "complete"
	ProvenancePartial  Provenance = "partial"
)

// Finding represents a single reported issue. Line 0 means the finding is
// file-level and carries no inline anchor.
type Finding struct {
	Severity    Severity          `json:"severity"`
	File        string            `json:"file"`
	Line        int               `json:"line,omitempty"`
	EndLine     int               `json:"endLine,omitempty"`
	Message     string            `json:"message"`
	SourceAgent string            `json:"sourceAgent"`
	RuleID      string            `json:"ruleId,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Suggestion  string            `json:"suggestion,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Provenance  Provenance        `json:"provenance,omitempty"`
}

// Inline reports whether the finding carries an inline anchor.
func (f Finding) Inline() bool {
	return f.Line > 0
}

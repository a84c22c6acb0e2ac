package resolve

import (
	"fmt"

	"github.com/dshills/revet/internal/agent"
)

// Level classifies how badly finding coordinates drifted from the diff.
type Level string

const (
	LevelOK   Level = "ok"
	LevelWarn Level = "warn"
	LevelFail Level = "fail"
)

// Warn and fail entry points: 25 and 50 percent degradation.
const (
	warnThreshold = 25.0
	failThreshold = 50.0
)

// Signal is a drift measurement over one scope (overall or inline).
type Signal struct {
	Level              Level           `json:"level"`
	DegradationPercent float64         `json:"degradationPercent"`
	AutoFixPercent     float64         `json:"autoFixPercent"`
	Message            string          `json:"message"`
	Samples            []agent.Finding `json:"samples,omitempty"`
}

// Drift carries both scopes. They are independent measurements of the
// same stats, not one derived from the other: a majority of file-level
// findings can dilute the overall signal to ok even when every
// line-anchored finding failed to resolve, which is why gating reads
// Inline.
type Drift struct {
	Overall Signal `json:"overall"`
	Inline  Signal `json:"inline"`
}

// ComputeDrift derives the overall and inline drift signals from
// resolution stats.
func ComputeDrift(stats Stats, samples []agent.Finding) Drift {
	return Drift{
		Overall: computeSignal(stats.Downgraded+stats.Dropped, stats.Normalized, stats.Total, "overall", samples),
		Inline:  computeSignal(stats.InlineDowngraded+stats.InlineDropped, stats.InlineNormalized, stats.InlineTotal, "inline", samples),
	}
}

func computeSignal(degraded, normalized, total int, scope string, samples []agent.Finding) Signal {
	if total == 0 {
		return Signal{
			Level:   LevelOK,
			Message: fmt.Sprintf("no %s findings to resolve", scope),
		}
	}
	degradation := float64(degraded) / float64(total) * 100
	autoFix := float64(normalized) / float64(total) * 100

	level := LevelOK
	switch {
	case degradation >= failThreshold:
		level = LevelFail
	case degradation >= warnThreshold:
		level = LevelWarn
	}

	s := Signal{
		Level:              level,
		DegradationPercent: degradation,
		AutoFixPercent:     autoFix,
		Message: fmt.Sprintf("%d of %d %s findings lost inline anchors (%.1f%%)",
			degraded, total, scope, degradation),
	}
	if level != LevelOK {
		s.Samples = samples
	}
	return s
}

// ShouldSuppressInline reports whether inline comments for this run must
// fall back to file-level/summary-only reporting. True only when the
// drift gate is explicitly enabled and the inline signal's level is fail.
// Warn never suppresses; a nil signal never suppresses; a disabled gate
// never suppresses regardless of signal.
func ShouldSuppressInline(gateEnabled bool, inline *Signal) bool {
	return gateEnabled && inline != nil && inline.Level == LevelFail
}

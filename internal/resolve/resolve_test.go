package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/diff"
)

func testFiles() []diff.File {
	return []diff.File{
		{
			Path:   "pkg/server.go",
			Status: diff.StatusModified,
			Hunks: []diff.Hunk{
				{OldStart: 10, OldLines: 5, NewStart: 10, NewLines: 8},
				{OldStart: 40, OldLines: 3, NewStart: 43, NewLines: 6},
			},
		},
		{Path: "gone.go", Status: diff.StatusDeleted, Hunks: []diff.Hunk{{OldStart: 1, OldLines: 10}}},
	}
}

func inlineFinding(file string, line int) agent.Finding {
	return agent.Finding{
		Severity: agent.SeverityWarning, File: file, Line: line,
		Message: "m", SourceAgent: "a",
	}
}

func TestApply_FileLevelIsValid(t *testing.T) {
	f := agent.Finding{Severity: agent.SeverityInfo, File: "pkg/server.go", Message: "m", SourceAgent: "a"}
	res := Apply([]agent.Finding{f}, testFiles(), 3)
	assert.Equal(t, 1, res.Stats.Valid)
	assert.Zero(t, res.Stats.InlineTotal, "file-level findings do not count toward inline stats")
}

func TestApply_ExactHunkLineIsValid(t *testing.T) {
	res := Apply([]agent.Finding{inlineFinding("pkg/server.go", 12)}, testFiles(), 3)
	assert.Equal(t, 1, res.Stats.Valid)
	assert.Equal(t, 12, res.Findings[0].Line)
}

func TestApply_SmallShiftNormalizes(t *testing.T) {
	// Hunk covers new lines 10-17; line 19 is 2 away from 17.
	res := Apply([]agent.Finding{inlineFinding("pkg/server.go", 19)}, testFiles(), 3)
	require.Equal(t, 1, res.Stats.Normalized)
	assert.Equal(t, 1, res.Stats.InlineNormalized)
	assert.Equal(t, 17, res.Findings[0].Line, "snapped to nearest valid line")
}

func TestApply_LargeShiftDowngrades(t *testing.T) {
	// Line 30 is 5 away from nearest hunk edges (17 and 43 -> distances 13 both); beyond maxShift 3.
	res := Apply([]agent.Finding{inlineFinding("pkg/server.go", 30)}, testFiles(), 3)
	require.Equal(t, 1, res.Stats.Downgraded)
	assert.Equal(t, 1, res.Stats.InlineDowngraded)
	got := res.Findings[0]
	assert.Zero(t, got.Line, "inline anchor dropped")
	assert.Equal(t, "m", got.Message, "message preserved")
}

func TestApply_UnmappableIsDroppedButMessageSurvives(t *testing.T) {
	findings := []agent.Finding{
		inlineFinding("not-in-diff.go", 5),
		inlineFinding("gone.go", 3),
	}
	res := Apply(findings, testFiles(), 3)
	assert.Equal(t, 2, res.Stats.Dropped)
	assert.Equal(t, 2, res.Stats.InlineDropped)
	require.Len(t, res.Findings, 2, "dropped findings keep their messages as file-level comments")
	for _, f := range res.Findings {
		assert.Zero(t, f.Line)
		assert.NotEmpty(t, f.Message)
	}
}

func TestApply_SnapShiftsEndLine(t *testing.T) {
	f := inlineFinding("pkg/server.go", 8)
	f.EndLine = 9
	// nearest valid is 10 (distance 2)
	res := Apply([]agent.Finding{f}, testFiles(), 3)
	require.Equal(t, 1, res.Stats.Normalized)
	assert.Equal(t, 10, res.Findings[0].Line)
	assert.Equal(t, 11, res.Findings[0].EndLine)
}

func TestComputeDrift_SpecVector(t *testing.T) {
	// total=12, valid=10, downgraded=2; inlineTotal=2, inlineDowngraded=2.
	stats := Stats{
		Total: 12, Valid: 10, Downgraded: 2,
		InlineTotal: 2, InlineDowngraded: 2,
	}
	d := ComputeDrift(stats, nil)

	assert.InDelta(t, 16.7, d.Overall.DegradationPercent, 0.05)
	assert.Equal(t, LevelOK, d.Overall.Level)

	assert.InDelta(t, 100.0, d.Inline.DegradationPercent, 0.001)
	assert.Equal(t, LevelFail, d.Inline.Level)
}

func TestComputeDrift_ThresholdEntryPoints(t *testing.T) {
	// 25 is the warn entry point, not a midpoint.
	d := ComputeDrift(Stats{Total: 4, Downgraded: 1, InlineTotal: 4, InlineDowngraded: 1}, nil)
	assert.Equal(t, LevelWarn, d.Inline.Level, "25%% enters warn")

	// 50 is the fail entry point.
	d = ComputeDrift(Stats{Total: 4, Downgraded: 2, InlineTotal: 4, InlineDowngraded: 2}, nil)
	assert.Equal(t, LevelFail, d.Inline.Level, "50%% enters fail")

	d = ComputeDrift(Stats{Total: 100, Downgraded: 24, InlineTotal: 100, InlineDowngraded: 24}, nil)
	assert.Equal(t, LevelOK, d.Inline.Level)

	d = ComputeDrift(Stats{Total: 100, Downgraded: 49, InlineTotal: 100, InlineDowngraded: 49}, nil)
	assert.Equal(t, LevelWarn, d.Inline.Level, "49%% stays warn")
}

func TestComputeDrift_NoFindings(t *testing.T) {
	d := ComputeDrift(Stats{}, nil)
	assert.Equal(t, LevelOK, d.Overall.Level)
	assert.Equal(t, LevelOK, d.Inline.Level)
	assert.Zero(t, d.Inline.DegradationPercent)
}

func TestShouldSuppressInline(t *testing.T) {
	failSig := &Signal{Level: LevelFail}
	warnSig := &Signal{Level: LevelWarn}
	okSig := &Signal{Level: LevelOK}

	assert.False(t, ShouldSuppressInline(false, failSig), "disabled gate never suppresses")
	assert.False(t, ShouldSuppressInline(true, nil), "undefined signal never suppresses")
	assert.False(t, ShouldSuppressInline(true, okSig))
	assert.False(t, ShouldSuppressInline(true, warnSig), "warn never suppresses")
	assert.True(t, ShouldSuppressInline(true, failSig))
	assert.False(t, ShouldSuppressInline(false, nil))
}

package dedup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/revet/internal/agent"
)

func finding(agentID, file string, line int, ruleID, msg string) agent.Finding {
	return agent.Finding{
		Severity:    agent.SeverityWarning,
		File:        file,
		Line:        line,
		Message:     msg,
		SourceAgent: agentID,
		RuleID:      ruleID,
	}
}

func TestFingerprint_IndependentOfSourceAgent(t *testing.T) {
	a := finding("agent-a", "x.go", 10, "R1", "unchecked error")
	b := finding("agent-b", "x.go", 10, "R1", "unchecked error")
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_DiffersOnRuleID(t *testing.T) {
	a := finding("agent-a", "x.go", 10, "R1", "unchecked error")
	b := finding("agent-a", "x.go", 10, "R2", "unchecked error")
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_StableAcrossJSONRoundTrip(t *testing.T) {
	orig := finding("agent-a", "x.go", 10, "R1", "unchecked error")
	before := Fingerprint(orig)

	data, err := json.Marshal(orig)
	require.NoError(t, err)
	var back agent.Finding
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, before, Fingerprint(back))
}

func TestFingerprint_AbsentLineHashesAsZero(t *testing.T) {
	withLine := finding("a", "x.go", 0, "R1", "m")
	fileLevel := agent.Finding{Severity: agent.SeverityWarning, File: "x.go", RuleID: "R1", Message: "m", SourceAgent: "a"}
	assert.Equal(t, Fingerprint(withLine), Fingerprint(fileLevel))
}

func TestComplete_CollapsesAcrossAgents(t *testing.T) {
	in := []agent.Finding{
		finding("agent-a", "x.go", 10, "R1", "unchecked error"),
		finding("agent-b", "x.go", 10, "R1", "unchecked error"),
	}
	out := Complete(in)
	require.Len(t, out, 1, "same issue from two agents collapses to one")
}

func TestComplete_Idempotent(t *testing.T) {
	in := []agent.Finding{
		finding("a", "x.go", 10, "R1", "m1"),
		finding("b", "x.go", 10, "R1", "m1"),
		finding("a", "y.go", 5, "R2", "m2"),
		finding("a", "y.go", 5, "R2", "m2"),
	}
	once := Complete(in)
	twice := Complete(once)
	assert.Equal(t, once, twice)
	assert.LessOrEqual(t, len(once), len(in))
}

func TestComplete_OrderIndependentSet(t *testing.T) {
	a := finding("a", "x.go", 10, "R1", "m1")
	b := finding("b", "x.go", 10, "R1", "m1")
	c := finding("a", "y.go", 5, "R2", "m2")

	fwd := Complete([]agent.Finding{a, b, c})
	rev := Complete([]agent.Finding{c, b, a})

	fingerprints := func(fs []agent.Finding) map[string]bool {
		m := make(map[string]bool)
		for _, f := range fs {
			m[f.Fingerprint+f.File] = true
		}
		return m
	}
	assert.Equal(t, fingerprints(fwd), fingerprints(rev))
	assert.Equal(t, len(fwd), len(rev))
}

func TestPartial_PreservesAcrossAgents(t *testing.T) {
	in := []agent.Finding{
		finding("agent-a", "x.go", 10, "R1", "unchecked error"),
		finding("agent-b", "x.go", 10, "R1", "unchecked error"),
	}
	out := Partial(in)
	require.Len(t, out, 2, "independent salvage from different agents is preserved")
}

func TestPartial_CollapsesSameAgentRepeats(t *testing.T) {
	in := []agent.Finding{
		finding("agent-a", "x.go", 10, "R1", "unchecked error"),
		finding("agent-a", "x.go", 10, "R1", "unchecked error"),
	}
	out := Partial(in)
	require.Len(t, out, 1, "exact repeats from the same agent collapse")
}

func TestPartial_Idempotent(t *testing.T) {
	in := []agent.Finding{
		finding("a", "x.go", 10, "R1", "m"),
		finding("a", "x.go", 10, "R1", "m"),
		finding("b", "x.go", 10, "R1", "m"),
	}
	once := Partial(in)
	twice := Partial(once)
	assert.Equal(t, once, twice)
}

func TestDedup_SetsFingerprintOnOutput(t *testing.T) {
	out := Complete([]agent.Finding{finding("a", "x.go", 1, "R1", "m")})
	require.Len(t, out, 1)
	assert.NotEmpty(t, out[0].Fingerprint)
}

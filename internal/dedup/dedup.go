package dedup

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/dshills/revet/internal/agent"
)

// Fingerprint returns a stable hash identifying semantically equivalent
// findings. It covers file, line (0 when absent), rule id, message, and
// severity, and deliberately excludes the source agent so the same issue
// reported by two agents fingerprints identically. The encoding is
// length-prefixed so field boundaries cannot collide, which keeps the
// hash stable across process restarts and JSON round-trips.
func Fingerprint(f agent.Finding) string {
	h := blake3.New()
	writeField(h, f.File)
	var line [8]byte
	binary.LittleEndian.PutUint64(line[:], uint64(f.Line))
	h.Write(line[:])
	writeField(h, f.RuleID)
	writeField(h, f.Message)
	writeField(h, string(f.Severity))
	sum := h.Sum(nil)
	return fmt.Sprintf("%x", sum[:16])
}

func writeField(h *blake3.Hasher, s string) {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}

// Complete collapses duplicate findings from the successfully-completed
// set. The key is fingerprint+file+line, so the same real issue reported
// by different agents survives as exactly one finding. Input order only
// decides which duplicate survives, never the final set.
func Complete(findings []agent.Finding) []agent.Finding {
	seen := make(map[string]bool, len(findings))
	out := make([]agent.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Fingerprint == "" {
			f.Fingerprint = Fingerprint(f)
		}
		key := fmt.Sprintf("%s|%s|%d", f.Fingerprint, f.File, f.Line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

// Partial collapses duplicates from the salvaged set. The key includes
// the source agent: each failed agent's output is independently
// low-confidence, so the same apparent issue from two different failed
// agents is deliberately preserved as two findings. Only exact repeats
// from the same agent collapse.
func Partial(findings []agent.Finding) []agent.Finding {
	seen := make(map[string]bool, len(findings))
	out := make([]agent.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Fingerprint == "" {
			f.Fingerprint = Fingerprint(f)
		}
		key := fmt.Sprintf("%s|%s|%s|%d", f.SourceAgent, f.Fingerprint, f.File, f.Line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

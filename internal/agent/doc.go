// Package agent defines the contract between the review pipeline and its
// analysis agents.
//
// An Agent is a pure function of a Context to a Result. The Result is a
// tagged union discriminated by a status field: success carries findings,
// failure carries an error, the stage it failed in, and any salvaged
// partial findings. Objects without the discriminant (including legacy
// boolean-success shapes) are rejected as invalid at every deserialization
// boundary; there is no best-effort decoding path.
//
// Findings receive their provenance tag (complete vs partial) once, when
// the orchestrator collects them, and are read-only afterward.
//
// The Registry doubles as the agent allowlist: pass configurations may only
// reference registered ids.
package agent

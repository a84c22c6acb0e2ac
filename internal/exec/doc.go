// Package exec runs the configured review passes in order, fanning out
// the agents within each pass concurrently and joining before the next
// pass starts. It owns every admission decision (allowlist, branch
// policy, budget, cache) and the single continue-vs-abort decision for
// failed agents, so downstream stages only ever see settled results.
package exec

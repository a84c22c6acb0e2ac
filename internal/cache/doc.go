// Package cache provides a file-based cache for agent results.
//
// Entries are keyed by a SHA-256 hash of (PR number, head commit, config
// hash, agent id), so concurrent runs for distinct PRs or commits never
// collide and a config change invalidates all prior entries. Each entry
// stores a validated agent result union with creation and expiry
// timestamps.
//
// Expired entries and shape-invalid entries are both treated as misses.
// A shape-invalid entry (corruption, or a legacy format that encoded
// success as a boolean) additionally logs a warning; it is never an error
// and never decoded best-effort.
package cache

// Revet orchestrates automated pull request review: configured agent
// passes run over a change, findings are resolved against the diff,
// deduplicated, and gated into a pass/fail verdict with deterministic
// exit codes.
//
// Usage:
//
//	revet review pr 42                    # review a pull request via GitHub
//	revet review range origin/main..HEAD  # review a revision range
//	revet review staged                   # review staged changes
//	revet config show                     # show effective configuration
//	revet agents                          # list agents and passes
//
// Exit codes: 0 passed, 1 gate failure, 2 usage error, 3 authentication
// error, 4 runtime error.
package main

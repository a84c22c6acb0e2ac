// Package gitctx gathers diff text and repository metadata from the
// local git checkout for the pr, range, and staged review modes.
package gitctx

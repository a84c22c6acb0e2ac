// Package cli wires the command-line interface: cobra commands, flag to
// config merging, the review pipeline assembly, and exit code mapping.
package cli

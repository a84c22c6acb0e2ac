// Package static is the offline rule-based review agent. It scans added
// diff lines against a small table of regex rules.
package static

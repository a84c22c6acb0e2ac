// Package resolve maps finding line numbers onto the current diff's
// new-side coordinate space and measures how far agent output drifted
// from it.
//
// Each inline finding ends up valid, normalized (snapped to the nearest
// commentable line within a small configurable shift), downgraded to
// file-level (shift too large), or dropped (no mapping exists at all).
// Messages are never discarded; only inline anchors are.
//
// Degradation is measured twice from the same stats: once over all
// findings and once over only those that originally carried a line. The
// inline signal drives gating, because file-level findings dilute the
// overall percentage.
package resolve

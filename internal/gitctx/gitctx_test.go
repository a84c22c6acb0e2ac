package gitctx

import (
	"strings"
	"testing"
)

const twoFileDiff = `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,1 +1,2 @@
 package main
+var x = 1
diff --git a/vendor/dep.go b/vendor/dep.go
--- a/vendor/dep.go
+++ b/vendor/dep.go
@@ -1,1 +1,2 @@
 package dep
+var y = 2
`

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"main.go", []string{"*.go"}, true},
		{"main.go", []string{"*.py"}, false},
		{"deep/dir/file.lock", []string{"**/file.lock"}, true},
		{"go.sum", []string{"**/go.sum"}, true},
		{"src/go.sum", []string{"**/go.sum"}, true},
		{"main.go", nil, false},
	}
	for _, tt := range tests {
		if got := MatchesAny(tt.path, tt.patterns); got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestFilterExcluded(t *testing.T) {
	out := filterExcluded(twoFileDiff, []string{"vendor/*"})
	if strings.Contains(out, "vendor/dep.go") {
		t.Error("excluded section survived filtering")
	}
	if !strings.Contains(out, "main.go") {
		t.Error("non-excluded section was dropped")
	}
}

func TestSplitDiffSections(t *testing.T) {
	sections := splitDiffSections(twoFileDiff)
	if len(sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2", len(sections))
	}
	if sectionPath(sections[0]) != "main.go" {
		t.Errorf("sections[0] path = %q", sectionPath(sections[0]))
	}
	if sectionPath(sections[1]) != "vendor/dep.go" {
		t.Errorf("sections[1] path = %q", sectionPath(sections[1]))
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 100)
	out := truncate(long, 10)
	if !strings.HasPrefix(out, "xxxxxxxxxx\n") {
		t.Errorf("truncate prefix wrong: %q", out[:20])
	}
	if !strings.Contains(out, "truncated") {
		t.Error("truncation marker missing")
	}
	if truncate(long, 0) != long {
		t.Error("zero limit must not truncate")
	}
	if truncate("short", 10) != "short" {
		t.Error("under-limit text modified")
	}
}

func TestDiffArgs(t *testing.T) {
	if args := diffArgs(Options{}); len(args) != 0 {
		t.Errorf("default args = %v, want none", args)
	}
	args := diffArgs(Options{ContextLines: 5})
	if len(args) != 1 || args[0] != "-U5" {
		t.Errorf("args = %v, want [-U5]", args)
	}
}

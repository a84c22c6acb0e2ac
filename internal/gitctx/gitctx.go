package gitctx

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Options controls how diffs are gathered.
type Options struct {
	ContextLines int
	MaxDiffBytes int
	Exclude      []string
}

// Result holds the collected diff text and its provenance. The
// structured per-file view comes from parsing Diff downstream.
type Result struct {
	Diff  string
	Mode  string
	Range string
	Repo  Meta
}

// Meta contains git repository metadata.
type Meta struct {
	Root   string
	Head   string
	Branch string
}

// RepoMeta collects repository metadata from git.
func RepoMeta() (Meta, error) {
	root, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return Meta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return Meta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// PullRequest returns the merge-base diff of HEAD against a base branch,
// the same change a pull request against that branch would show.
func PullRequest(baseBranch string, opts Options) (Result, error) {
	rng := baseBranch + "...HEAD"
	diff, err := gitOutput(append([]string{"diff", rng}, diffArgs(opts)...)...)
	if err != nil {
		return Result{}, fmt.Errorf("git diff %s: %w", rng, err)
	}
	return buildResult(diff, "pr", rng, opts)
}

// Staged returns the diff of index vs HEAD.
func Staged(opts Options) (Result, error) {
	diff, err := gitOutput(append([]string{"diff", "--cached"}, diffArgs(opts)...)...)
	if err != nil {
		return Result{}, fmt.Errorf("git diff --cached: %w", err)
	}
	return buildResult(diff, "staged", "", opts)
}

// Range returns the combined diff for a revision range. With mergeBase,
// ".." is widened to "..." so the diff excludes unrelated changes on the
// base side.
func Range(revRange string, mergeBase bool, opts Options) (Result, error) {
	diffRange := revRange
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		diffRange = strings.Replace(revRange, "..", "...", 1)
	}
	diff, err := gitOutput(append([]string{"diff", diffRange}, diffArgs(opts)...)...)
	if err != nil {
		return Result{}, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return buildResult(diff, "range", revRange, opts)
}

func diffArgs(opts Options) []string {
	var args []string
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	return args
}

func buildResult(diff, mode, rangeStr string, opts Options) (Result, error) {
	meta, err := RepoMeta()
	if err != nil {
		meta = Meta{}
	}

	// Filter excludes before truncating so excluded files do not consume
	// the byte budget.
	if len(opts.Exclude) > 0 {
		diff = filterExcluded(diff, opts.Exclude)
	}
	diff = truncate(diff, opts.MaxDiffBytes)

	return Result{
		Diff:  diff,
		Mode:  mode,
		Range: rangeStr,
		Repo:  meta,
	}, nil
}

func truncate(diff string, maxBytes int) string {
	if maxBytes > 0 && len(diff) > maxBytes {
		return diff[:maxBytes] + "\n... (diff truncated at max-diff-bytes limit)\n"
	}
	return diff
}

func filterExcluded(diff string, excludes []string) string {
	var kept []string
	for _, section := range splitDiffSections(diff) {
		path := sectionPath(section)
		if path == "" || !MatchesAny(path, excludes) {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "")
}

func splitDiffSections(diff string) []string {
	var sections []string
	var current strings.Builder
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

func sectionPath(section string) string {
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			return strings.TrimPrefix(line, "+++ b/")
		}
	}
	return ""
}

// MatchesAny reports whether the path matches any of the glob patterns.
// Patterns starting with "**/" also match on the basename.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}

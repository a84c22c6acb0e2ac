package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/github"
)

// StatusContext names the commit status the adapter sets.
const StatusContext = "revet/review"

// GitHubAPI is the subset of the GitHub client the adapter needs.
type GitHubAPI interface {
	ListReviewComments(ctx context.Context, owner, repo string, prNumber int) ([]github.ReviewComment, error)
	PostReview(ctx context.Context, owner, repo string, prNumber int, review github.ReviewRequest) error
	CreateCommitStatus(ctx context.Context, owner, repo, sha, state, description, statusContext string) error
}

// GitHubAdapter publishes a report to a pull request as a commit status,
// review threads, or both. Re-publishing the same run is idempotent:
// every inline comment carries a hidden fingerprint marker and findings
// whose marker already exists on the PR are not posted again.
type GitHubAdapter struct {
	api      GitHubAPI
	owner    string
	repo     string
	prNumber int
	mode     string // status | threads | both
	logger   *slog.Logger
}

// NewGitHubAdapter creates the adapter. A nil logger falls back to
// slog's default.
func NewGitHubAdapter(api GitHubAPI, owner, repo string, prNumber int, mode string, logger *slog.Logger) *GitHubAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHubAdapter{
		api:      api,
		owner:    owner,
		repo:     repo,
		prNumber: prNumber,
		mode:     mode,
		logger:   logger,
	}
}

// Publish pushes the report to GitHub according to the configured mode.
func (g *GitHubAdapter) Publish(ctx context.Context, r *Report) error {
	if g.mode == "status" || g.mode == "both" {
		if err := g.publishStatus(ctx, r); err != nil {
			return err
		}
	}
	if g.mode == "threads" || g.mode == "both" {
		if err := g.publishThreads(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (g *GitHubAdapter) publishStatus(ctx context.Context, r *Report) error {
	if r.Repo.Head == "" {
		return fmt.Errorf("cannot set commit status: head commit unknown")
	}
	state := "success"
	description := fmt.Sprintf("%d finding(s)", len(r.Findings))
	if !r.Verdict.Passed {
		state = "failure"
		description = fmt.Sprintf("%d finding(s) at or above %s", r.Verdict.FailingCount, r.Verdict.Threshold)
	}
	g.logger.Info("setting commit status", "sha", r.Repo.Head, "state", state)
	return g.api.CreateCommitStatus(ctx, g.owner, g.repo, r.Repo.Head, state, description, StatusContext)
}

func (g *GitHubAdapter) publishThreads(ctx context.Context, r *Report) error {
	existing, err := g.api.ListReviewComments(ctx, g.owner, g.repo, g.prNumber)
	if err != nil {
		return fmt.Errorf("listing existing review comments: %w", err)
	}
	posted := make(map[string]bool, len(existing))
	for _, c := range existing {
		for _, fp := range extractMarkers(c.Body) {
			posted[fp] = true
		}
	}

	var comments []github.ReviewComment
	var general []agent.Finding
	skippedDupes := 0
	for _, f := range r.Findings {
		if f.Fingerprint != "" && posted[f.Fingerprint] {
			skippedDupes++
			continue
		}
		if f.Line > 0 && !r.Verdict.SuppressInline {
			comments = append(comments, github.ReviewComment{
				Path: f.File,
				Line: f.Line,
				Body: formatInlineComment(f) + "\n\n" + marker(f.Fingerprint),
			})
		} else {
			general = append(general, f)
		}
	}

	if len(comments) == 0 && len(general) == 0 && len(r.PartialFindings) == 0 && skippedDupes > 0 {
		g.logger.Info("review already up to date", "pr", g.prNumber, "existing", skippedDupes)
		return nil
	}

	g.logger.Info("posting review", "pr", g.prNumber,
		"inline", len(comments), "general", len(general), "deduplicated", skippedDupes)

	return g.api.PostReview(ctx, g.owner, g.repo, g.prNumber, github.ReviewRequest{
		Body:     buildReviewBody(r, general),
		Event:    "COMMENT",
		Comments: comments,
	})
}

const markerPrefix = "<!-- revet:finding:"

func marker(fingerprint string) string {
	return markerPrefix + fingerprint + " -->"
}

func extractMarkers(body string) []string {
	var fps []string
	for {
		i := strings.Index(body, markerPrefix)
		if i < 0 {
			return fps
		}
		body = body[i+len(markerPrefix):]
		end := strings.Index(body, " -->")
		if end < 0 {
			return fps
		}
		fps = append(fps, body[:end])
		body = body[end:]
	}
}

func formatInlineComment(f agent.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** (%s", f.Message, f.Severity)
	if f.RuleID != "" {
		fmt.Fprintf(&sb, ", %s", f.RuleID)
	}
	fmt.Fprintf(&sb, ") — reported by `%s`", f.SourceAgent)
	if f.Suggestion != "" {
		fmt.Fprintf(&sb, "\n\n**Suggestion:**\n```\n%s\n```", f.Suggestion)
	}
	return sb.String()
}

func buildReviewBody(r *Report, general []agent.Finding) string {
	var sb strings.Builder
	counts := CountBySeverity(r.Findings)

	sb.WriteString("## Revet Code Review\n\n")
	if r.Verdict.Passed {
		sb.WriteString("**Verdict: PASS** :white_check_mark:\n\n")
	} else {
		sb.WriteString("**Verdict: FAIL** :x:\n\n")
		for _, reason := range r.Verdict.Reasons {
			fmt.Fprintf(&sb, "- %s\n", reason)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("| Severity | Count |\n|----------|-------|\n")
	fmt.Fprintf(&sb, "| Error | %d |\n", counts[agent.SeverityError])
	fmt.Fprintf(&sb, "| Warning | %d |\n", counts[agent.SeverityWarning])
	fmt.Fprintf(&sb, "| Info | %d |\n\n", counts[agent.SeverityInfo])

	if r.Verdict.SuppressInline {
		fmt.Fprintf(&sb, "> Inline comments were suppressed: %.1f%% of line-anchored findings lost their position in this diff. All findings are listed below instead.\n\n",
			r.Drift.Inline.DegradationPercent)
	}

	if len(r.SkippedAgents) > 0 {
		sb.WriteString("**Skipped agents:**\n\n")
		for _, s := range r.SkippedAgents {
			fmt.Fprintf(&sb, "- `%s`: %s\n", s.ID, s.Reason)
		}
		sb.WriteString("\n")
	}

	if len(general) > 0 {
		sb.WriteString("### Findings without inline anchors\n\n")
		for _, f := range general {
			writeBodyFinding(&sb, f)
		}
	}

	if len(r.PartialFindings) > 0 {
		fmt.Fprintf(&sb, "### Partial findings (%d, salvaged from failed agents)\n\n", len(r.PartialFindings))
		for _, f := range r.PartialFindings {
			writeBodyFinding(&sb, f)
		}
	}

	fmt.Fprintf(&sb, "*Run %s*\n", r.RunID)
	return sb.String()
}

func writeBodyFinding(sb *strings.Builder, f agent.Finding) {
	fmt.Fprintf(sb, "- **%s** `%s`", f.Severity, f.File)
	if f.Line > 0 {
		fmt.Fprintf(sb, ":%d", f.Line)
	}
	fmt.Fprintf(sb, " — %s *(%s)* %s\n", f.Message, f.SourceAgent, marker(f.Fingerprint))
}

package report

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/gate"
	"github.com/dshills/revet/internal/github"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGitHub struct {
	existing []github.ReviewComment
	listErr  error

	reviews  []github.ReviewRequest
	statuses []postedStatus
}

type postedStatus struct {
	sha, state, description, context string
}

func (f *fakeGitHub) ListReviewComments(_ context.Context, _, _ string, _ int) ([]github.ReviewComment, error) {
	return f.existing, f.listErr
}

func (f *fakeGitHub) PostReview(_ context.Context, _, _ string, _ int, review github.ReviewRequest) error {
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeGitHub) CreateCommitStatus(_ context.Context, _, _, sha, state, description, statusContext string) error {
	f.statuses = append(f.statuses, postedStatus{sha, state, description, statusContext})
	return nil
}

func adapterReport(findings []agent.Finding, verdict gate.Verdict) *Report {
	return Build(Params{
		Repo:     RepoInfo{Head: "abc123"},
		Inputs:   InputInfo{Mode: "pr", PRNumber: 7},
		Verdict:  verdict,
		Complete: findings,
		Now:      time.Now(),
	})
}

func TestGitHubAdapter_PostsInlineWithMarkers(t *testing.T) {
	api := &fakeGitHub{}
	adapter := NewGitHubAdapter(api, "octo", "proj", 7, "threads", testLogger())

	r := adapterReport([]agent.Finding{
		{Severity: agent.SeverityError, File: "a.go", Line: 10, Message: "broken", SourceAgent: "llm-review", Fingerprint: "fp-1"},
		{Severity: agent.SeverityWarning, File: "b.go", Line: 0, Message: "file-level", SourceAgent: "static-rules", Fingerprint: "fp-2"},
	}, gate.Verdict{Passed: false, FailingCount: 1, Threshold: "error"})

	require.NoError(t, adapter.Publish(context.Background(), r))
	require.Len(t, api.reviews, 1)
	assert.Empty(t, api.statuses, "threads mode must not set a status")

	review := api.reviews[0]
	assert.Equal(t, "COMMENT", review.Event)
	require.Len(t, review.Comments, 1)
	assert.Equal(t, "a.go", review.Comments[0].Path)
	assert.Equal(t, 10, review.Comments[0].Line)
	assert.Contains(t, review.Comments[0].Body, marker("fp-1"))
	assert.Contains(t, review.Body, "file-level", "unanchored finding lands in the review body")
	assert.Contains(t, review.Body, marker("fp-2"))
}

func TestGitHubAdapter_SkipsAlreadyPosted(t *testing.T) {
	api := &fakeGitHub{
		existing: []github.ReviewComment{
			{Path: "a.go", Line: 10, Body: "**broken** (error)\n\n" + marker("fp-1")},
		},
	}
	adapter := NewGitHubAdapter(api, "octo", "proj", 7, "threads", testLogger())

	r := adapterReport([]agent.Finding{
		{Severity: agent.SeverityError, File: "a.go", Line: 10, Message: "broken", SourceAgent: "llm-review", Fingerprint: "fp-1"},
		{Severity: agent.SeverityInfo, File: "c.go", Line: 3, Message: "new one", SourceAgent: "llm-review", Fingerprint: "fp-3"},
	}, gate.Verdict{Passed: false, FailingCount: 1, Threshold: "error"})

	require.NoError(t, adapter.Publish(context.Background(), r))
	require.Len(t, api.reviews, 1)
	require.Len(t, api.reviews[0].Comments, 1, "only the new finding is posted")
	assert.Contains(t, api.reviews[0].Comments[0].Body, marker("fp-3"))
}

func TestGitHubAdapter_AlreadyUpToDate(t *testing.T) {
	api := &fakeGitHub{
		existing: []github.ReviewComment{
			{Path: "a.go", Line: 10, Body: "older comment " + marker("fp-1")},
		},
	}
	adapter := NewGitHubAdapter(api, "octo", "proj", 7, "threads", testLogger())

	r := adapterReport([]agent.Finding{
		{Severity: agent.SeverityError, File: "a.go", Line: 10, Message: "broken", SourceAgent: "llm-review", Fingerprint: "fp-1"},
	}, gate.Verdict{Passed: false, FailingCount: 1, Threshold: "error"})

	require.NoError(t, adapter.Publish(context.Background(), r))
	assert.Empty(t, api.reviews, "nothing new to post")
}

func TestGitHubAdapter_SuppressInlineRoutesToBody(t *testing.T) {
	api := &fakeGitHub{}
	adapter := NewGitHubAdapter(api, "octo", "proj", 7, "threads", testLogger())

	r := adapterReport([]agent.Finding{
		{Severity: agent.SeverityError, File: "a.go", Line: 10, Message: "broken", SourceAgent: "llm-review", Fingerprint: "fp-1"},
	}, gate.Verdict{Passed: false, FailingCount: 1, Threshold: "error", SuppressInline: true})
	r.Drift.Inline.DegradationPercent = 62.5

	require.NoError(t, adapter.Publish(context.Background(), r))
	require.Len(t, api.reviews, 1)
	assert.Empty(t, api.reviews[0].Comments, "no inline comments while suppressed")
	assert.Contains(t, api.reviews[0].Body, "Inline comments were suppressed")
	assert.Contains(t, api.reviews[0].Body, "broken")
}

func TestGitHubAdapter_StatusModes(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		api := &fakeGitHub{}
		adapter := NewGitHubAdapter(api, "octo", "proj", 7, "status", testLogger())

		r := adapterReport([]agent.Finding{
			{Severity: agent.SeverityError, File: "a.go", Line: 1, Message: "broken", Fingerprint: "fp-1"},
		}, gate.Verdict{Passed: false, FailingCount: 1, Threshold: "error"})

		require.NoError(t, adapter.Publish(context.Background(), r))
		assert.Empty(t, api.reviews, "status mode must not post a review")
		require.Len(t, api.statuses, 1)
		assert.Equal(t, "abc123", api.statuses[0].sha)
		assert.Equal(t, "failure", api.statuses[0].state)
		assert.Equal(t, StatusContext, api.statuses[0].context)
	})

	t.Run("success", func(t *testing.T) {
		api := &fakeGitHub{}
		adapter := NewGitHubAdapter(api, "octo", "proj", 7, "status", testLogger())

		r := adapterReport(nil, gate.Verdict{Passed: true, Threshold: "error"})
		require.NoError(t, adapter.Publish(context.Background(), r))
		require.Len(t, api.statuses, 1)
		assert.Equal(t, "success", api.statuses[0].state)
	})
}

func TestGitHubAdapter_BothMode(t *testing.T) {
	api := &fakeGitHub{}
	adapter := NewGitHubAdapter(api, "octo", "proj", 7, "both", testLogger())

	r := adapterReport([]agent.Finding{
		{Severity: agent.SeverityWarning, File: "a.go", Line: 4, Message: "meh", Fingerprint: "fp-1"},
	}, gate.Verdict{Passed: true, Threshold: "error"})

	require.NoError(t, adapter.Publish(context.Background(), r))
	assert.Len(t, api.statuses, 1)
	assert.Len(t, api.reviews, 1)
}

func TestGitHubAdapter_MissingHead(t *testing.T) {
	api := &fakeGitHub{}
	adapter := NewGitHubAdapter(api, "octo", "proj", 7, "status", testLogger())

	r := adapterReport(nil, gate.Verdict{Passed: true})
	r.Repo.Head = ""
	assert.Error(t, adapter.Publish(context.Background(), r))
}

func TestExtractMarkers(t *testing.T) {
	body := "text " + marker("aaa") + " middle " + marker("bbb") + " tail"
	assert.Equal(t, []string{"aaa", "bbb"}, extractMarkers(body))
	assert.Empty(t, extractMarkers("no markers here"))
	assert.Empty(t, extractMarkers(markerPrefix+"unterminated"))
}

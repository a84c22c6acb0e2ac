package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const defaultAPIURL = "https://api.github.com"

// ErrAuth marks a 401/403 from the API. The CLI maps it to its own exit
// code so CI can tell a bad token from a failed review.
var ErrAuth = errors.New("github authentication failed")

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a GitHub client. Requires GITHUB_TOKEN; GitHub
// Enterprise hosts override the endpoint with GITHUB_API_URL.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Client{
		token:   token,
		apiURL:  strings.TrimRight(apiURL, "/"),
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *Client) do(ctx context.Context, method, url, accept string, payload []byte) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", accept)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// GetPRDiff fetches the unified diff for a pull request.
func (c *Client) GetPRDiff(ctx context.Context, owner, repo string, prNumber int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.apiURL, owner, repo, prNumber)
	body, status, err := c.do(ctx, "GET", url, "application/vnd.github.v3.diff", nil)
	if err != nil {
		return "", err
	}
	switch {
	case status == 404:
		return "", fmt.Errorf("PR #%d not found in %s/%s", prNumber, owner, repo)
	case status == 401 || status == 403:
		return "", fmt.Errorf("%w: %s", ErrAuth, string(body))
	case status != 200:
		return "", fmt.Errorf("GitHub API error (status %d): %s", status, string(body))
	}
	return string(body), nil
}

// PRHead holds the head commit identifiers of a pull request.
type PRHead struct {
	SHA string `json:"sha"`
	Ref string `json:"ref"`
}

// GetPRHead fetches the head SHA and branch of a pull request.
func (c *Client) GetPRHead(ctx context.Context, owner, repo string, prNumber int) (PRHead, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.apiURL, owner, repo, prNumber)
	body, status, err := c.do(ctx, "GET", url, "application/vnd.github.v3+json", nil)
	if err != nil {
		return PRHead{}, err
	}
	if status != 200 {
		return PRHead{}, fmt.Errorf("GitHub API error (status %d): %s", status, string(body))
	}
	var pr struct {
		Head PRHead `json:"head"`
	}
	if err := json.Unmarshal(body, &pr); err != nil {
		return PRHead{}, fmt.Errorf("parsing response: %w", err)
	}
	return pr.Head, nil
}

// ReviewComment is one inline comment on a PR review.
type ReviewComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Body string `json:"body"`
}

// ReviewRequest is a PR review to post.
type ReviewRequest struct {
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments"`
}

// PostReview posts a pull request review with inline comments.
func (c *Client) PostReview(ctx context.Context, owner, repo string, prNumber int, review ReviewRequest) error {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.apiURL, owner, repo, prNumber)
	payload, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshaling review: %w", err)
	}
	body, status, err := c.do(ctx, "POST", url, "application/vnd.github.v3+json", payload)
	if err != nil {
		return err
	}
	if status == 422 {
		return fmt.Errorf("GitHub rejected review (422): %s", string(body))
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("GitHub API error (status %d): %s", status, string(body))
	}
	return nil
}

// ListReviewComments returns every existing inline review comment on a
// pull request. The reporting adapter scans their bodies for fingerprint
// markers to keep re-posting idempotent.
func (c *Client) ListReviewComments(ctx context.Context, owner, repo string, prNumber int) ([]ReviewComment, error) {
	var all []ReviewComment
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/comments?per_page=100&page=%d", c.apiURL, owner, repo, prNumber, page)
		body, status, err := c.do(ctx, "GET", url, "application/vnd.github.v3+json", nil)
		if err != nil {
			return nil, err
		}
		if status != 200 {
			return nil, fmt.Errorf("GitHub API error (status %d): %s", status, string(body))
		}
		var batch []ReviewComment
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		all = append(all, batch...)
		if len(batch) < 100 {
			return all, nil
		}
	}
}

// CreateCommitStatus sets a commit status on the head commit.
func (c *Client) CreateCommitStatus(ctx context.Context, owner, repo, sha, state, description, statusContext string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/statuses/%s", c.apiURL, owner, repo, sha)
	payload, err := json.Marshal(map[string]string{
		"state":       state,
		"description": description,
		"context":     statusContext,
	})
	if err != nil {
		return fmt.Errorf("marshaling status: %w", err)
	}
	body, status, err := c.do(ctx, "POST", url, "application/vnd.github.v3+json", payload)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("GitHub API error (status %d): %s", status, string(body))
	}
	return nil
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")
	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}

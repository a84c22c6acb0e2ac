package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(url string) *Client {
	return &Client{token: "t", apiURL: url, httpCli: http.DefaultClient}
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		url       string
		owner     string
		repo      string
		wantError bool
	}{
		{"https://github.com/dshills/revet.git", "dshills", "revet", false},
		{"https://github.com/dshills/revet", "dshills", "revet", false},
		{"git@github.com:dshills/revet.git", "dshills", "revet", false},
		{"https://ghe.example.com/org/project.git", "org", "project", false},
		{"not a url", "", "", true},
	}
	for _, tt := range tests {
		owner, repo, err := ParseRemoteURL(tt.url)
		if tt.wantError {
			if err == nil {
				t.Errorf("ParseRemoteURL(%q) expected error", tt.url)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseRemoteURL(%q): %v", tt.url, err)
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("ParseRemoteURL(%q) = %s/%s, want %s/%s", tt.url, owner, repo, tt.owner, tt.repo)
		}
	}
}

func TestGetPRDiff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/vnd.github.v3.diff" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Write([]byte("diff --git a/x b/x\n"))
	}))
	defer srv.Close()

	diff, err := testClient(srv.URL).GetPRDiff(context.Background(), "o", "r", 1)
	if err != nil {
		t.Fatalf("GetPRDiff: %v", err)
	}
	if diff == "" {
		t.Error("empty diff")
	}
}

func TestGetPRDiff_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).GetPRDiff(context.Background(), "o", "r", 99); err == nil {
		t.Fatal("expected error for missing PR")
	}
}

func TestGetPRHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"head":{"sha":"abc123","ref":"feature/x"}}`))
	}))
	defer srv.Close()

	head, err := testClient(srv.URL).GetPRHead(context.Background(), "o", "r", 1)
	if err != nil {
		t.Fatalf("GetPRHead: %v", err)
	}
	if head.SHA != "abc123" || head.Ref != "feature/x" {
		t.Errorf("head = %+v", head)
	}
}

func TestListReviewComments_Paginates(t *testing.T) {
	page := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page++
		if page == 1 {
			w.Write([]byte(`[{"path":"a.go","line":1,"body":"x"}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	comments, err := testClient(srv.URL).ListReviewComments(context.Background(), "o", "r", 1)
	if err != nil {
		t.Fatalf("ListReviewComments: %v", err)
	}
	if len(comments) != 1 || comments[0].Path != "a.go" {
		t.Errorf("comments = %+v", comments)
	}
}

func TestPostReview_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		w.Write([]byte(`{"message":"line not in diff"}`))
	}))
	defer srv.Close()

	err := testClient(srv.URL).PostReview(context.Background(), "o", "r", 1, ReviewRequest{Body: "b", Event: "COMMENT"})
	if err == nil {
		t.Fatal("expected 422 error")
	}
}

func TestCreateCommitStatus(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(201)
	}))
	defer srv.Close()

	err := testClient(srv.URL).CreateCommitStatus(context.Background(), "o", "r", "abc", "success", "ok", "revet/review")
	if err != nil {
		t.Fatalf("CreateCommitStatus: %v", err)
	}
	if gotPath != "/repos/o/r/statuses/abc" {
		t.Errorf("path = %q", gotPath)
	}
}

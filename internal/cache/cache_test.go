package cache

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/revet/internal/agent"
)

func testKey() Key {
	return Key{PRNumber: 42, HeadCommit: "abc123", ConfigHash: "cfg1", AgentID: "static-rules"}
}

func testResult() agent.Result {
	return agent.Success("static-rules", []agent.Finding{
		{Severity: agent.SeverityWarning, File: "main.go", Line: 7, Message: "m", SourceAgent: "static-rules"},
	}, agent.Metrics{DurationMs: 5})
}

func newTestStore(t *testing.T, ttlSeconds int) (*Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s, err := New(true, t.TempDir(), ttlSeconds, logger)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return s, &buf
}

func TestStore_SetGet(t *testing.T) {
	s, _ := newTestStore(t, 86400)
	key := testKey()

	if _, ok := s.Get(key); ok {
		t.Error("expected miss before set")
	}
	if err := s.Set(key, testResult()); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, ok := s.Get(key)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got.Status != agent.StatusSuccess || len(got.Findings) != 1 {
		t.Errorf("got = %+v", got)
	}
}

func TestStore_KeyIsolation(t *testing.T) {
	s, _ := newTestStore(t, 86400)
	if err := s.Set(testKey(), testResult()); err != nil {
		t.Fatal(err)
	}

	other := testKey()
	other.HeadCommit = "def456"
	if _, ok := s.Get(other); ok {
		t.Error("different head commit must not share cache entries")
	}
	other = testKey()
	other.ConfigHash = "cfg2"
	if _, ok := s.Get(other); ok {
		t.Error("different config hash must not share cache entries")
	}
}

func TestStore_TTLExpiration(t *testing.T) {
	s, _ := newTestStore(t, 60)
	key := testKey()
	if err := s.Set(key, testResult()); err != nil {
		t.Fatal(err)
	}

	// Advance the injected clock past the TTL
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, ok := s.Get(key); ok {
		t.Error("expected miss after TTL expiry")
	}
}

func TestStore_LegacyShapeIsMissWithWarning(t *testing.T) {
	s, buf := newTestStore(t, 86400)
	key := testKey()

	// Write an entry whose result uses the legacy boolean success shape.
	entry := Entry{
		Key:       "legacy",
		Result:    json.RawMessage(`{"success": true, "agentId": "static-rules", "findings": []}`),
		CreatedAt: time.Now(),
	}
	data, _ := json.Marshal(entry)
	if err := os.WriteFile(s.entryPath(key), data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Get(key); ok {
		t.Fatal("legacy-shaped entry must be a miss")
	}
	logged := buf.String()
	if !strings.Contains(logged, "level=WARN") {
		t.Errorf("expected warning-level diagnostic, log was: %s", logged)
	}
}

func TestStore_CorruptJSONIsMissWithWarning(t *testing.T) {
	s, buf := newTestStore(t, 86400)
	key := testKey()
	if err := os.WriteFile(s.entryPath(key), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get(key); ok {
		t.Fatal("corrupt entry must be a miss")
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Error("expected warning-level diagnostic for corrupt entry")
	}
}

func TestStore_RefusesToCacheInvalidResult(t *testing.T) {
	s, _ := newTestStore(t, 86400)
	bad := agent.Result{AgentID: "x"} // no status discriminant
	if err := s.Set(testKey(), bad); err == nil {
		t.Error("Set should reject a result without a status discriminant")
	}
}

func TestStore_Disabled(t *testing.T) {
	s, err := New(false, "", 0, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if s.Enabled() {
		t.Error("store should be disabled")
	}
	if err := s.Set(testKey(), testResult()); err != nil {
		t.Errorf("Set on disabled store should be a no-op: %v", err)
	}
	if _, ok := s.Get(testKey()); ok {
		t.Error("Get on disabled store should always miss")
	}
}

func TestStore_Clear(t *testing.T) {
	s, _ := newTestStore(t, 86400)
	if err := s.Set(testKey(), testResult()); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			t.Errorf("entry %s survived Clear", e.Name())
		}
	}
}

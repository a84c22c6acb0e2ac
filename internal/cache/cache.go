package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dshills/revet/internal/agent"
)

// Key identifies one cached agent result. Distinct PRs and commits can
// never collide; a config change rotates ConfigHash and invalidates
// everything cached under the old one.
type Key struct {
	PRNumber   int
	HeadCommit string
	ConfigHash string
	AgentID    string
}

// String renders the key material hashed into the entry filename.
func (k Key) String() string {
	return fmt.Sprintf("%d:%s:%s:%s", k.PRNumber, k.HeadCommit, k.ConfigHash, k.AgentID)
}

// Entry is a cached, already-validated agent result.
type Entry struct {
	Key       string          `json:"key"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Store provides file-based caching for agent results. Expired and
// shape-invalid entries are both treated as misses; invalid ones
// additionally log a warning because they indicate corruption or a legacy
// format, not normal churn.
type Store struct {
	dir     string
	ttl     time.Duration
	enabled bool
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Store. If dir is empty, the default cache directory is
// used. A disabled store misses on every Get and drops every Set.
func New(enabled bool, dir string, ttlSeconds int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !enabled {
		return &Store{enabled: false, logger: logger, now: time.Now}, nil
	}
	if dir == "" {
		d, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Store{
		dir:     dir,
		ttl:     time.Duration(ttlSeconds) * time.Second,
		enabled: true,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Get retrieves a cached agent result. Anything that is not a structurally
// valid, unexpired success/failure union is a miss; Get never returns an
// error to the caller.
func (s *Store) Get(key Key) (agent.Result, bool) {
	if !s.enabled {
		return agent.Result{}, false
	}
	path := s.entryPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return agent.Result{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn("cache entry is not valid JSON, treating as miss",
			"agent", key.AgentID, "path", path, "error", err)
		return agent.Result{}, false
	}
	if !entry.ExpiresAt.IsZero() && s.now().After(entry.ExpiresAt) {
		os.Remove(path)
		return agent.Result{}, false
	}

	var result agent.Result
	if err := json.Unmarshal(entry.Result, &result); err != nil {
		// Legacy or corrupted result shape. Never an error, never a
		// silent coercion: warn and miss.
		s.logger.Warn("cache entry failed result validation, treating as miss",
			"agent", key.AgentID, "path", path, "error", err)
		return agent.Result{}, false
	}
	return result, true
}

// Set stores a validated agent result under key. Same-key races are
// last-write-wins; the result is a pure function of its key, so this is
// safe without locking.
func (s *Store) Set(key Key, result agent.Result) error {
	if !s.enabled {
		return nil
	}
	if err := result.Validate(); err != nil {
		return fmt.Errorf("refusing to cache invalid result: %w", err)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	now := s.now()
	entry := Entry{
		Key:       hashKey(key.String()),
		Result:    raw,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		entry.ExpiresAt = now.Add(s.ttl)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return os.WriteFile(s.entryPath(key), data, 0o644)
}

// Clear removes all cache entries.
func (s *Store) Clear() error {
	if !s.enabled || s.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			os.Remove(filepath.Join(s.dir, e.Name()))
		}
	}
	return nil
}

// Stats returns cache statistics.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
	Invalid    int    `json:"invalid"`
}

// GetStats returns information about the cache.
func (s *Store) GetStats() (Stats, error) {
	stats := Stats{Dir: s.dir}
	if !s.enabled || s.dir == "" {
		return stats, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			stats.Invalid++
			continue
		}
		var result agent.Result
		if err := json.Unmarshal(entry.Result, &result); err != nil {
			stats.Invalid++
			continue
		}
		if !entry.ExpiresAt.IsZero() && s.now().After(entry.ExpiresAt) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (s *Store) Dir() string { return s.dir }

// Enabled returns whether caching is enabled.
func (s *Store) Enabled() bool { return s.enabled }

func (s *Store) entryPath(key Key) string {
	return filepath.Join(s.dir, hashKey(key.String())+".json")
}

func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "revet"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "revet"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "revet", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "revet", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "revet"), nil
	}
}

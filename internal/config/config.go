package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidationError describes a malformed configuration. It is fatal before
// any agent executes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Config is the effective revet configuration.
type Config struct {
	Limits    Limits        `yaml:"limits" json:"limits"`
	Gating    Gating        `yaml:"gating" json:"gating"`
	Passes    []Pass        `yaml:"passes" json:"passes"`
	Reporting Reporting     `yaml:"reporting" json:"reporting"`
	Cache     CacheConfig   `yaml:"cache" json:"cache"`
	LLM       LLMConfig     `yaml:"llm" json:"llm"`
	Policy    Policy        `yaml:"policy" json:"policy"`
	Resolve   ResolveConfig `yaml:"resolve" json:"resolve"`
	Log       LogConfig     `yaml:"log" json:"log"`
}

// Limits bound how much work and spend a single run may incur.
type Limits struct {
	MaxFiles         int     `yaml:"max_files" json:"maxFiles"`
	MaxDiffLines     int     `yaml:"max_diff_lines" json:"maxDiffLines"`
	MaxTokensPerPR   int     `yaml:"max_tokens_per_pr" json:"maxTokensPerPR"`
	MaxUSDPerPR      float64 `yaml:"max_usd_per_pr" json:"maxUSDPerPR"`
	MonthlyBudgetUSD float64 `yaml:"monthly_budget_usd" json:"monthlyBudgetUSD"`
}

// Gating controls the pass/fail verdict.
type Gating struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	FailOnSeverity string `yaml:"fail_on_severity" json:"failOnSeverity"`
	DriftGate      bool   `yaml:"drift_gate" json:"driftGate"`
	FailOnDrift    bool   `yaml:"fail_on_drift" json:"failOnDrift"`
}

// UnmarshalYAML keeps the default gate switches for keys the section
// leaves out: a file tuning only fail_on_severity must not turn the
// verdict gate or the drift gate off.
func (g *Gating) UnmarshalYAML(value *yaml.Node) error {
	type rawGating struct {
		Enabled        *bool   `yaml:"enabled"`
		FailOnSeverity *string `yaml:"fail_on_severity"`
		DriftGate      *bool   `yaml:"drift_gate"`
		FailOnDrift    bool    `yaml:"fail_on_drift"`
	}
	var raw rawGating
	if err := value.Decode(&raw); err != nil {
		return err
	}
	g.Enabled = raw.Enabled == nil || *raw.Enabled
	g.DriftGate = raw.DriftGate == nil || *raw.DriftGate
	g.FailOnDrift = raw.FailOnDrift
	g.FailOnSeverity = "error"
	if raw.FailOnSeverity != nil {
		g.FailOnSeverity = *raw.FailOnSeverity
	}
	return nil
}

// Pass is a named, ordered group of agents sharing one required policy.
type Pass struct {
	Name     string   `yaml:"name" json:"name"`
	Agents   []string `yaml:"agents" json:"agents"`
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	Required bool     `yaml:"required" json:"required"`
}

// UnmarshalYAML defaults enabled to true when the key is absent, so a pass
// listed in the file runs unless explicitly disabled.
func (p *Pass) UnmarshalYAML(value *yaml.Node) error {
	type rawPass struct {
		Name     string   `yaml:"name"`
		Agents   []string `yaml:"agents"`
		Enabled  *bool    `yaml:"enabled"`
		Required bool     `yaml:"required"`
	}
	var raw rawPass
	if err := value.Decode(&raw); err != nil {
		return err
	}
	p.Name = raw.Name
	p.Agents = raw.Agents
	p.Required = raw.Required
	p.Enabled = raw.Enabled == nil || *raw.Enabled
	return nil
}

// Reporting selects how results are delivered. The mode is interpreted by
// adapters only.
type Reporting struct {
	Mode   string `yaml:"mode" json:"mode"`     // status | threads | both
	Format string `yaml:"format" json:"format"` // text | markdown | json
	Out    string `yaml:"out" json:"out"`
}

// CacheConfig controls the agent result cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Dir        string `yaml:"dir" json:"dir,omitempty"`
	TTLSeconds int    `yaml:"ttl_seconds" json:"ttlSeconds"`
}

// LLMConfig configures the LLM reviewer agents.
type LLMConfig struct {
	Provider      string `yaml:"provider" json:"provider"`
	Model         string `yaml:"model" json:"model"`
	LocalModel    string `yaml:"local_model" json:"localModel"`
	MaxTokens     int    `yaml:"max_tokens" json:"maxTokens"`
	MaxFindings   int    `yaml:"max_findings" json:"maxFindings"`
	RedactSecrets bool   `yaml:"redact_secrets" json:"redactSecrets"`
}

// Policy holds branch-level execution policy.
type Policy struct {
	ProtectedBranch string   `yaml:"protected_branch" json:"protectedBranch"`
	ForbidOnPush    []string `yaml:"forbid_on_push" json:"forbidOnPush"`
}

// ResolveConfig tunes line resolution.
type ResolveConfig struct {
	MaxLineShift int `yaml:"max_line_shift" json:"maxLineShift"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Limits: Limits{
			MaxFiles:         200,
			MaxDiffLines:     8000,
			MaxTokensPerPR:   120000,
			MaxUSDPerPR:      2.0,
			MonthlyBudgetUSD: 100.0,
		},
		Gating: Gating{
			Enabled:        true,
			FailOnSeverity: "error",
			DriftGate:      true,
		},
		Passes: []Pass{
			{Name: "static", Agents: []string{"static-rules", "secret-scan"}, Enabled: true, Required: true},
			{Name: "llm", Agents: []string{"llm-review"}, Enabled: true, Required: false},
		},
		Reporting: Reporting{Mode: "both", Format: "text"},
		Cache:     CacheConfig{Enabled: true, TTLSeconds: 86400},
		LLM: LLMConfig{
			Provider:      "anthropic",
			Model:         "claude-sonnet-4-20250514",
			LocalModel:    "qwen2.5-coder:7b",
			MaxTokens:     8192,
			MaxFindings:   50,
			RedactSecrets: true,
		},
		Policy:  Policy{ProtectedBranch: "main", ForbidOnPush: []string{"llm-review"}},
		Resolve: ResolveConfig{MaxLineShift: 3},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// ConfigDir returns the platform-appropriate config directory for revet.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "revet"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "revet"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "revet"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "revet"), nil
	default:
		return filepath.Join(home, ".config", "revet"), nil
	}
}

// Path returns the config file path: a repo-local .revet.yml when present,
// otherwise the user config directory.
func Path() (string, error) {
	if _, err := os.Stat(".revet.yml"); err == nil {
		return ".revet.yml", nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// LoadFile loads config from path. A missing file yields a zero Config and
// nil error; a malformed file is a ValidationError.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ValidationError{Field: path, Message: err.Error()}
	}
	return cfg, nil
}

// Save writes the config to path.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <-
// overrides. The overrides map comes from CLI flags (only set values).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	fileCfg, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the merged config. Any violation is fatal before any
// execution starts.
func (c *Config) Validate() error {
	switch c.Gating.FailOnSeverity {
	case "none", "info", "warning", "error":
	default:
		return &ValidationError{Field: "gating.fail_on_severity",
			Message: fmt.Sprintf("must be none, info, warning, or error (got %q)", c.Gating.FailOnSeverity)}
	}
	switch c.Reporting.Mode {
	case "status", "threads", "both":
	default:
		return &ValidationError{Field: "reporting.mode",
			Message: fmt.Sprintf("must be status, threads, or both (got %q)", c.Reporting.Mode)}
	}
	seen := make(map[string]bool)
	for i, p := range c.Passes {
		if p.Name == "" {
			return &ValidationError{Field: fmt.Sprintf("passes[%d].name", i), Message: "must not be empty"}
		}
		if seen[p.Name] {
			return &ValidationError{Field: "passes", Message: fmt.Sprintf("duplicate pass name %q", p.Name)}
		}
		seen[p.Name] = true
		if len(p.Agents) == 0 {
			return &ValidationError{Field: fmt.Sprintf("passes[%d].agents", i), Message: "must list at least one agent"}
		}
	}
	if c.Resolve.MaxLineShift < 0 {
		return &ValidationError{Field: "resolve.max_line_shift", Message: "must not be negative"}
	}
	if c.Limits.MaxUSDPerPR < 0 || c.Limits.MonthlyBudgetUSD < 0 {
		return &ValidationError{Field: "limits", Message: "budget limits must not be negative"}
	}
	return nil
}

// Hash returns a stable hash of the effective config, used as a cache key
// component so config changes invalidate cached agent results.
func (c *Config) Hash() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum[:8])
}

func mergeFile(dst *Config, src Config) {
	if src.Limits.MaxFiles > 0 {
		dst.Limits.MaxFiles = src.Limits.MaxFiles
	}
	if src.Limits.MaxDiffLines > 0 {
		dst.Limits.MaxDiffLines = src.Limits.MaxDiffLines
	}
	if src.Limits.MaxTokensPerPR > 0 {
		dst.Limits.MaxTokensPerPR = src.Limits.MaxTokensPerPR
	}
	if src.Limits.MaxUSDPerPR > 0 {
		dst.Limits.MaxUSDPerPR = src.Limits.MaxUSDPerPR
	}
	if src.Limits.MonthlyBudgetUSD > 0 {
		dst.Limits.MonthlyBudgetUSD = src.Limits.MonthlyBudgetUSD
	}
	// Gating's decode hook fills absent keys with the defaults, so a
	// present section replaces the struct wholesale.
	if src.Gating.FailOnSeverity != "" {
		dst.Gating = src.Gating
	}
	if len(src.Passes) > 0 {
		dst.Passes = src.Passes
	}
	if src.Reporting.Mode != "" {
		dst.Reporting.Mode = src.Reporting.Mode
	}
	if src.Reporting.Format != "" {
		dst.Reporting.Format = src.Reporting.Format
	}
	if src.Reporting.Out != "" {
		dst.Reporting.Out = src.Reporting.Out
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	dst.Cache.Enabled = src.Cache.Enabled || dst.Cache.Enabled
	if src.LLM.Provider != "" {
		dst.LLM.Provider = src.LLM.Provider
	}
	if src.LLM.Model != "" {
		dst.LLM.Model = src.LLM.Model
	}
	if src.LLM.LocalModel != "" {
		dst.LLM.LocalModel = src.LLM.LocalModel
	}
	if src.LLM.MaxTokens > 0 {
		dst.LLM.MaxTokens = src.LLM.MaxTokens
	}
	if src.LLM.MaxFindings > 0 {
		dst.LLM.MaxFindings = src.LLM.MaxFindings
	}
	if src.Policy.ProtectedBranch != "" {
		dst.Policy.ProtectedBranch = src.Policy.ProtectedBranch
	}
	if len(src.Policy.ForbidOnPush) > 0 {
		dst.Policy.ForbidOnPush = src.Policy.ForbidOnPush
	}
	if src.Resolve.MaxLineShift > 0 {
		dst.Resolve.MaxLineShift = src.Resolve.MaxLineShift
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("REVET_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("REVET_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("REVET_FAIL_ON"); v != "" {
		cfg.Gating.FailOnSeverity = v
	}
	if v := os.Getenv("REVET_FORMAT"); v != "" {
		cfg.Reporting.Format = v
	}
	if v := os.Getenv("REVET_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REVET_MONTHLY_BUDGET_USD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Limits.MonthlyBudgetUSD = f
		}
	}
	if v := os.Getenv("REVET_MAX_USD_PER_PR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Limits.MaxUSDPerPR = f
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["provider"]; ok && v != "" {
		cfg.LLM.Provider = v
	}
	if v, ok := overrides["model"]; ok && v != "" {
		cfg.LLM.Model = v
	}
	if v, ok := overrides["failOn"]; ok && v != "" {
		cfg.Gating.FailOnSeverity = v
	}
	if v, ok := overrides["format"]; ok && v != "" {
		cfg.Reporting.Format = v
	}
	if v, ok := overrides["mode"]; ok && v != "" {
		cfg.Reporting.Mode = v
	}
	if v, ok := overrides["out"]; ok && v != "" {
		cfg.Reporting.Out = v
	}
	if v, ok := overrides["driftGate"]; ok && v != "" {
		cfg.Gating.DriftGate = strings.EqualFold(v, "true")
	}
	if v, ok := overrides["maxFindings"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxFindings = n
		}
	}
	if v, ok := overrides["noCache"]; ok && strings.EqualFold(v, "true") {
		cfg.Cache.Enabled = false
	}
}

// SetField sets a single config field by key name. Returns error if key is
// unknown. Used by `revet config set`.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "llm.provider":
		cfg.LLM.Provider = value
	case "llm.model":
		cfg.LLM.Model = value
	case "llm.local_model":
		cfg.LLM.LocalModel = value
	case "gating.fail_on_severity":
		cfg.Gating.FailOnSeverity = value
	case "gating.drift_gate":
		cfg.Gating.DriftGate = strings.EqualFold(value, "true")
	case "reporting.mode":
		cfg.Reporting.Mode = value
	case "reporting.format":
		cfg.Reporting.Format = value
	case "limits.monthly_budget_usd":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("limits.monthly_budget_usd must be a number: %w", err)
		}
		cfg.Limits.MonthlyBudgetUSD = f
	case "limits.max_usd_per_pr":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("limits.max_usd_per_pr must be a number: %w", err)
		}
		cfg.Limits.MaxUSDPerPR = f
	case "resolve.max_line_shift":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("resolve.max_line_shift must be an integer: %w", err)
		}
		cfg.Resolve.MaxLineShift = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

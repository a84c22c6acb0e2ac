package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
gating:
  enabled: true
  fail_on_severity: warning
  drift_gate: false
passes:
  - name: quick
    agents: [static-rules]
    required: true
  - name: deep
    agents: [llm-review]
    enabled: false
limits:
  monthly_budget_usd: 25.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Gating.FailOnSeverity != "warning" {
		t.Errorf("FailOnSeverity = %q", cfg.Gating.FailOnSeverity)
	}
	if len(cfg.Passes) != 2 {
		t.Fatalf("Passes = %d, want 2", len(cfg.Passes))
	}
	// enabled defaults to true when the key is absent
	if !cfg.Passes[0].Enabled {
		t.Error("pass without enabled key should default to enabled")
	}
	if cfg.Passes[1].Enabled {
		t.Error("explicitly disabled pass should stay disabled")
	}
	if cfg.Limits.MonthlyBudgetUSD != 25.5 {
		t.Errorf("MonthlyBudgetUSD = %v", cfg.Limits.MonthlyBudgetUSD)
	}
}

func TestMergeFile_PartialGatingKeepsGateSwitches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
gating:
  fail_on_severity: warning
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fileCfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}

	cfg := Default()
	mergeFile(&cfg, fileCfg)

	if cfg.Gating.FailOnSeverity != "warning" {
		t.Errorf("FailOnSeverity = %q, want warning", cfg.Gating.FailOnSeverity)
	}
	if !cfg.Gating.Enabled {
		t.Error("tuning fail_on_severity must not disable the verdict gate")
	}
	if !cfg.Gating.DriftGate {
		t.Error("tuning fail_on_severity must not disable the drift gate")
	}
}

func TestMergeFile_ExplicitGatingDisable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
gating:
  enabled: false
  drift_gate: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fileCfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}

	cfg := Default()
	mergeFile(&cfg, fileCfg)

	if cfg.Gating.Enabled {
		t.Error("explicit enabled: false should disable the verdict gate")
	}
	if cfg.Gating.DriftGate {
		t.Error("explicit drift_gate: false should disable the drift gate")
	}
	if cfg.Gating.FailOnSeverity != "error" {
		t.Errorf("FailOnSeverity = %q, want default error", cfg.Gating.FailOnSeverity)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(cfg.Passes) != 0 {
		t.Error("missing file should yield zero config")
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("passes: {not: [a, list"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("error = %T, want *ValidationError", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad severity", func(c *Config) { c.Gating.FailOnSeverity = "critical" }, true},
		{"bad mode", func(c *Config) { c.Reporting.Mode = "carrier-pigeon" }, true},
		{"empty pass name", func(c *Config) { c.Passes[0].Name = "" }, true},
		{"duplicate pass", func(c *Config) { c.Passes[1].Name = c.Passes[0].Name }, true},
		{"empty agents", func(c *Config) { c.Passes[0].Agents = nil }, true},
		{"negative shift", func(c *Config) { c.Resolve.MaxLineShift = -1 }, true},
		{"negative budget", func(c *Config) { c.Limits.MonthlyBudgetUSD = -5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashChangesWithConfig(t *testing.T) {
	a := Default()
	b := Default()
	if a.Hash() != b.Hash() {
		t.Error("identical configs should hash identically")
	}
	b.Gating.FailOnSeverity = "info"
	if a.Hash() == b.Hash() {
		t.Error("different configs should hash differently")
	}
}

func TestSetField(t *testing.T) {
	cfg := Default()
	if err := SetField(&cfg, "llm.model", "gpt-4o"); err != nil {
		t.Fatalf("SetField error: %v", err)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if err := SetField(&cfg, "limits.monthly_budget_usd", "12.5"); err != nil {
		t.Fatalf("SetField error: %v", err)
	}
	if cfg.Limits.MonthlyBudgetUSD != 12.5 {
		t.Errorf("MonthlyBudgetUSD = %v", cfg.Limits.MonthlyBudgetUSD)
	}
	if err := SetField(&cfg, "nope", "x"); err == nil {
		t.Error("unknown key should error")
	}
}

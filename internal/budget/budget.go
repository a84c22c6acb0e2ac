package budget

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/config"
)

// Info is the slice of agent metadata the budget gate needs.
type Info struct {
	ID                string
	UsesPaidInference bool
}

// NeedsGate reports whether a pass is subject to budget gating: true when
// at least one listed agent uses a paid inference service and is not the
// designated free local agent. A pass of only non-LLM agents, or only the
// free local agent, always runs regardless of budget state.
func NeedsGate(agents []Info) bool {
	for _, a := range agents {
		if a.UsesPaidInference && a.ID != agent.FreeLocalAgentID {
			return true
		}
	}
	return false
}

// EstimateTokens approximates the token count of a diff. Four bytes per
// token is the usual rough cut for code.
func EstimateTokens(diff string) int {
	return len(diff) / 4
}

// pricePerMTok maps model prefixes to USD per million tokens (blended
// input/output). Unknown models use the default.
var pricePerMTok = map[string]float64{
	"claude-opus":   30.0,
	"claude-sonnet": 9.0,
	"claude-haiku":  2.4,
	"gpt-4o":        7.5,
	"gpt-4o-mini":   0.45,
	"gemini-1.5":    3.0,
	"gemini-2":      4.0,
}

const defaultPricePerMTok = 9.0

// EstimateCostUSD converts a token estimate into dollars for a model.
func EstimateCostUSD(tokens int, model string) float64 {
	price := defaultPricePerMTok
	for prefix, p := range pricePerMTok {
		if len(model) >= len(prefix) && model[:len(prefix)] == prefix {
			price = p
			break
		}
	}
	return float64(tokens) / 1_000_000 * price
}

// Tracker combines the configured limits with observed spend and the
// estimate for the current run. It is a pure value: the orchestrator only
// asks Exhausted.
type Tracker struct {
	Limits          config.Limits
	MonthSpentUSD   float64
	EstimatedRunUSD float64
	EstimatedTokens int
}

// Exhausted reports whether running a paid pass would exceed any budget
// limit. A zero limit means unlimited.
func (t Tracker) Exhausted() bool {
	if t.Limits.MaxUSDPerPR > 0 && t.EstimatedRunUSD > t.Limits.MaxUSDPerPR {
		return true
	}
	if t.Limits.MonthlyBudgetUSD > 0 && t.MonthSpentUSD+t.EstimatedRunUSD > t.Limits.MonthlyBudgetUSD {
		return true
	}
	if t.Limits.MaxTokensPerPR > 0 && t.EstimatedTokens > t.Limits.MaxTokensPerPR {
		return true
	}
	return false
}

// ledger is the on-disk monthly spend record.
type ledger struct {
	Month    string  `json:"month"`
	SpentUSD float64 `json:"spentUsd"`
}

// LoadMonthSpend reads accumulated spend for the current month from the
// ledger file. A missing or stale-month ledger reads as zero.
func LoadMonthSpend(dir string, now time.Time) float64 {
	data, err := os.ReadFile(filepath.Join(dir, "usage.json"))
	if err != nil {
		return 0
	}
	var l ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return 0
	}
	if l.Month != now.Format("2006-01") {
		return 0
	}
	return l.SpentUSD
}

// RecordSpend adds cost to the current month's ledger.
func RecordSpend(dir string, now time.Time, costUSD float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}
	l := ledger{
		Month:    now.Format("2006-01"),
		SpentUSD: LoadMonthSpend(dir, now) + costUSD,
	}
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshaling ledger: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "usage.json"), data, 0o644)
}

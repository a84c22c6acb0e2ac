package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/agents/llm"
	"github.com/dshills/revet/internal/agents/secrets"
	"github.com/dshills/revet/internal/agents/static"
	"github.com/dshills/revet/internal/budget"
	"github.com/dshills/revet/internal/cache"
	"github.com/dshills/revet/internal/config"
	"github.com/dshills/revet/internal/dedup"
	"github.com/dshills/revet/internal/diff"
	"github.com/dshills/revet/internal/exec"
	"github.com/dshills/revet/internal/gate"
	"github.com/dshills/revet/internal/gitctx"
	"github.com/dshills/revet/internal/github"
	"github.com/dshills/revet/internal/log"
	"github.com/dshills/revet/internal/report"
	"github.com/dshills/revet/internal/resolve"
)

// Shared review flags
var (
	flagExclude      string
	flagContextLines int
	flagMaxDiffBytes int
	flagProvider     string
	flagModel        string
	flagFormat       string
	flagMode         string
	flagOut          string
	flagFailOn       string
	flagMaxFindings  int
	flagNoCache      bool
	flagNoRedact     bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in diff")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, gemini, ollama)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, markdown, json)")
	cmd.Flags().StringVar(&flagMode, "mode", "", "GitHub reporting mode (status, threads, both)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, info, warning, error)")
	cmd.Flags().IntVar(&flagMaxFindings, "max-findings", 0, "Maximum number of findings per agent")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the agent result cache")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagMode != "" {
		m["mode"] = flagMode
	}
	if flagOut != "" {
		m["out"] = flagOut
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagMaxFindings > 0 {
		m["maxFindings"] = fmt.Sprintf("%d", flagMaxFindings)
	}
	if flagNoCache {
		m["noCache"] = "true"
	}
	return m
}

func buildDiffOpts() gitctx.Options {
	opts := gitctx.Options{
		ContextLines: flagContextLines,
		MaxDiffBytes: flagMaxDiffBytes,
	}
	if flagExclude != "" {
		opts.Exclude = splitComma(flagExclude)
	}
	return opts
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// publishTarget carries where to deliver the report besides stdout. A nil
// client means local-only output.
type publishTarget struct {
	client   *github.Client
	owner    string
	repo     string
	prNumber int
}

func buildRegistry(cfg config.Config, logger *slog.Logger) *agent.Registry {
	registry := agent.NewRegistry()
	_ = registry.Register(static.New())
	_ = registry.Register(secrets.New())

	if flagNoRedact {
		cfg.LLM.RedactSecrets = false
	}
	if paid, err := llm.NewPaid(cfg.LLM); err != nil {
		logger.Warn("paid LLM agent unavailable", "error", err)
	} else {
		_ = registry.Register(paid)
	}
	if local, err := llm.NewLocal(cfg.LLM); err != nil {
		logger.Warn("local LLM agent unavailable", "error", err)
	} else {
		_ = registry.Register(local)
	}
	return registry
}

func runPipeline(res gitctx.Result, cfg config.Config, trigger budget.Trigger, target publishTarget) {
	logger := log.New(log.ParseLevel(cfg.Log.Level), log.Format(cfg.Log.Format), os.Stderr)
	log.SetDefault(logger)

	if flagNoRedact {
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	files, err := diff.Parse(res.Diff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing diff: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No changes to review.")
		return
	}
	if cfg.Limits.MaxFiles > 0 && len(files) > cfg.Limits.MaxFiles {
		fmt.Fprintf(os.Stderr, "Error: change touches %d files, limit is %d (limits.max_files)\n",
			len(files), cfg.Limits.MaxFiles)
		exitCode = ExitRuntimeError
		return
	}
	if lines := strings.Count(res.Diff, "\n"); cfg.Limits.MaxDiffLines > 0 && lines > cfg.Limits.MaxDiffLines {
		fmt.Fprintf(os.Stderr, "Error: diff is %d lines, limit is %d (limits.max_diff_lines)\n",
			lines, cfg.Limits.MaxDiffLines)
		exitCode = ExitRuntimeError
		return
	}

	store, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	now := time.Now()
	ledgerDir, _ := config.ConfigDir()
	tokens := budget.EstimateTokens(res.Diff)
	tracker := budget.Tracker{
		Limits:          cfg.Limits,
		MonthSpentUSD:   budget.LoadMonthSpend(ledgerDir, now),
		EstimatedRunUSD: budget.EstimateCostUSD(tokens, cfg.LLM.Model),
		EstimatedTokens: tokens,
	}

	registry := buildRegistry(cfg, logger)
	executor := exec.New(registry, cfg, store, tracker, logger)

	execRes, err := executor.Execute(context.Background(), exec.Request{
		Trigger: trigger,
		AgentCtx: agent.Context{
			Diff:        res.Diff,
			Files:       files,
			Branch:      res.Repo.Branch,
			HeadCommit:  res.Repo.Head,
			PRNumber:    target.prNumber,
			MaxFindings: cfg.LLM.MaxFindings,
			Now:         now,
		},
	})
	if err != nil {
		var abort *exec.AbortError
		if errors.As(err, &abort) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", abort)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		exitCode = ExitRuntimeError
		return
	}

	recordSpend(execRes, ledgerDir, now, logger)

	resolved := resolve.Apply(execRes.CompleteFindings, files, cfg.Resolve.MaxLineShift)
	resolvedPartial := resolve.Apply(execRes.PartialFindings, files, cfg.Resolve.MaxLineShift)

	complete := dedup.Complete(resolved.Findings)
	partial := dedup.Partial(resolvedPartial.Findings)

	drift := resolve.ComputeDrift(resolved.Stats, resolved.Samples)
	verdict := gate.Evaluate(complete, &drift.Inline, cfg.Gating)

	rep := report.Build(report.Params{
		Repo:     report.RepoInfo{Root: res.Repo.Root, Head: res.Repo.Head, Branch: res.Repo.Branch},
		Inputs:   report.InputInfo{Mode: res.Mode, Range: res.Range, PRNumber: target.prNumber},
		Verdict:  verdict,
		Complete: complete,
		Partial:  partial,
		Drift:    drift,
		Stats:    resolved.Stats,
		Skipped:  execRes.SkippedAgents,
		Now:      now,
	})

	outPath := flagOut
	if outPath == "" {
		outPath = cfg.Reporting.Out
	}
	if err := report.WriteReport(rep, cfg.Reporting.Format, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	if target.client != nil {
		adapter := report.NewGitHubAdapter(target.client, target.owner, target.repo,
			target.prNumber, cfg.Reporting.Mode, logger)
		if err := adapter.Publish(context.Background(), rep); err != nil {
			if errors.Is(err, github.ErrAuth) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitAuthError
				return
			}
			fmt.Fprintf(os.Stderr, "Error publishing to GitHub: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
	}

	if !verdict.Passed {
		exitCode = ExitGateFailure
	}
}

// recordSpend persists what this run actually cost. Cached results cost
// nothing and are excluded.
func recordSpend(execRes *exec.Result, ledgerDir string, now time.Time, logger *slog.Logger) {
	var spent float64
	for _, r := range execRes.AllResults {
		if !r.Metrics.FromCache {
			spent += r.Metrics.CostUSD
		}
	}
	if spent <= 0 || ledgerDir == "" {
		return
	}
	if err := budget.RecordSpend(ledgerDir, now, spent); err != nil {
		logger.Warn("recording spend failed", "error", err)
	}
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long:  "Run the configured review passes over a change. Use subcommands to specify what to review.",
}

var (
	flagRepo  string
	flagLocal bool
	flagBase  string
)

var reviewPRCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Review a pull request",
	Long:  "Fetch the pull request diff from GitHub and review it. With --local the diff is computed from the local merge base instead, and nothing is published.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var prNumber int
		if _, err := fmt.Sscanf(args[0], "%d", &prNumber); err != nil || prNumber <= 0 {
			return fmt.Errorf("invalid PR number: %s", args[0])
		}

		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		if flagLocal {
			base := flagBase
			if base == "" {
				base = cfg.Policy.ProtectedBranch
			}
			res, err := gitctx.PullRequest(base, buildDiffOpts())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			runPipeline(res, cfg, budget.TriggerPullRequest, publishTarget{prNumber: prNumber})
			return nil
		}

		client, err := github.NewClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v (use --local for an offline review)\n", err)
			exitCode = ExitAuthError
			return nil
		}
		owner, repo, err := resolveRepo()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		ctx := context.Background()
		diffText, err := client.GetPRDiff(ctx, owner, repo, prNumber)
		if err != nil {
			reportFetchError(err)
			return nil
		}
		head, err := client.GetPRHead(ctx, owner, repo, prNumber)
		if err != nil {
			reportFetchError(err)
			return nil
		}

		res := gitctx.Result{
			Diff:  diffText,
			Mode:  "pr",
			Range: fmt.Sprintf("%s/%s#%d", owner, repo, prNumber),
			Repo:  gitctx.Meta{Head: head.SHA, Branch: head.Ref},
		}
		runPipeline(res, cfg, budget.TriggerPullRequest, publishTarget{
			client:   client,
			owner:    owner,
			repo:     repo,
			prNumber: prNumber,
		})
		return nil
	},
}

func reportFetchError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, github.ErrAuth) {
		exitCode = ExitAuthError
		return
	}
	exitCode = ExitRuntimeError
}

// resolveRepo resolves owner/name from --repo or the origin remote.
func resolveRepo() (string, string, error) {
	if flagRepo != "" {
		parts := strings.SplitN(flagRepo, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("--repo must be owner/name, got %q", flagRepo)
		}
		return parts[0], parts[1], nil
	}
	return github.DetectRepo()
}

var (
	flagMergeBase bool
	flagTrigger   string
)

var reviewRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Review a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		res, err := gitctx.Range(args[0], flagMergeBase, buildDiffOpts())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runPipeline(res, cfg, parseTrigger(flagTrigger), publishTarget{})
		return nil
	},
}

var reviewStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Review staged changes (index vs HEAD)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		res, err := gitctx.Staged(buildDiffOpts())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runPipeline(res, cfg, budget.TriggerManual, publishTarget{})
		return nil
	},
}

func parseTrigger(s string) budget.Trigger {
	switch s {
	case "push":
		return budget.TriggerPush
	case "pull_request", "pr":
		return budget.TriggerPullRequest
	default:
		return budget.TriggerManual
	}
}

func init() {
	reviewCmd.AddCommand(reviewPRCmd)
	reviewCmd.AddCommand(reviewRangeCmd)
	reviewCmd.AddCommand(reviewStagedCmd)

	for _, cmd := range []*cobra.Command{reviewPRCmd, reviewRangeCmd, reviewStagedCmd} {
		addReviewFlags(cmd)
	}

	reviewPRCmd.Flags().StringVar(&flagRepo, "repo", "", "GitHub repository as owner/name (default: detect from origin)")
	reviewPRCmd.Flags().BoolVar(&flagLocal, "local", false, "Diff against the local merge base instead of the GitHub API")
	reviewPRCmd.Flags().StringVar(&flagBase, "base", "", "Base branch for --local (default: policy.protected_branch)")

	reviewRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")
	reviewRangeCmd.Flags().StringVar(&flagTrigger, "trigger", "manual", "Run trigger (manual, push, pull_request); push enforces branch policy")
}

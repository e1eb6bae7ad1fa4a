package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/evidentia/internal/audit"
	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON       string
	outMD         string
	caseID        string
	targetArticle string
	timeout       time.Duration
	noCache       bool
	cacheDir      string
	noFooter      bool
	auditPath     string
	llmEnabled    bool
	llmProvider   string
	llmModel      string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <case-dir>",
	Short: "Analyze a case directory and generate an evidence report",
	Long: `Analyze reads every document in a case directory to:
- Segment text into sentences and extract typed fact tokens
- Merge duplicate observations across pages into single facts
- Filter procedural boilerplate and route facts by priority
- Score candidate statutes against the extracted evidence
- Optionally generate a token-grounded narrative and verify it

Example:
  evidentia analyze ./cases/2024-0117
  evidentia analyze ./cases/2024-0117 --article 190 --json report.json --md report.md
  evidentia analyze ./cases/2024-0117 --llm --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Analysis flags
	analyzeCmd.Flags().StringVar(&caseID, "case", "", "case identifier (default: directory name)")
	analyzeCmd.Flags().StringVar(&targetArticle, "article", "", "target statute hint for routing (e.g. 190, 217)")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall analysis timeout")

	// Cache and audit flags
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable tokenization cache")
	analyzeCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist tokenization cache to this directory")
	analyzeCmd.Flags().StringVar(&auditPath, "audit", "", "record the run in a SQLite ledger at this path")

	// LLM flags
	analyzeCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable narrative generation")
	analyzeCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	id := caseID
	if id == "" {
		id = filepath.Base(filepath.Clean(dir))
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", dir)
		fmt.Fprintf(os.Stderr, "Case ID: %s\n", id)
		if targetArticle != "" {
			fmt.Fprintf(os.Stderr, "Target article: %s\n", targetArticle)
		}
		fmt.Fprintln(os.Stderr)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ledger, err := openLedger()
	if err != nil {
		return err
	}
	if ledger != nil {
		defer func() { _ = ledger.Close() }()
	}

	p, err := pipeline.New(cfg, log, ledger)
	if err != nil {
		return err
	}

	result, err := p.AnalyzeDir(ctx, id, dir, targetArticle)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Loaded %d windows\n", result.Windows)
		fmt.Fprintf(os.Stderr, "✓ Extracted %d facts (%d after merge, %d routed)\n", result.RawFacts, result.MergedFacts, len(result.Facts))
		if result.Classification != nil && result.Classification.Primary != "" {
			fmt.Fprintf(os.Stderr, "✓ Primary statute: %s\n", result.Classification.Primary)
		}
		if result.Narrative != nil {
			fmt.Fprintf(os.Stderr, "✓ Generated narrative (%d sentences)\n", len(result.Narrative.Sentences))
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := p.Render(result, outJSON, outMD); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// buildConfig assembles the pipeline configuration from defaults and flags.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = !noCache
	cfg.Cache.Dir = cacheDir
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		// Get API key from environment
		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			baseURL := os.Getenv("OLLAMA_BASE_URL")
			if baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}

// openLedger opens the audit store when --audit is set.
func openLedger() (*audit.Store, error) {
	if auditPath == "" {
		return nil, nil
	}
	ledger, err := audit.Open(auditPath)
	if err != nil {
		return nil, fmt.Errorf("open audit ledger: %w", err)
	}
	return ledger, nil
}

// Package pipeline orchestrates the fact pipeline end to end: load, tokenize,
// merge, filter, route, classify, narrate, verify. Stages hand each other
// fresh collections; nothing emitted downstream is ever mutated.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/evidentia/internal/audit"
	"github.com/ppiankov/evidentia/internal/cache"
	"github.com/ppiankov/evidentia/internal/classify"
	"github.com/ppiankov/evidentia/internal/filter"
	"github.com/ppiankov/evidentia/internal/graph"
	"github.com/ppiankov/evidentia/internal/llm"
	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/route"
	"github.com/ppiankov/evidentia/internal/tokenize"
	"github.com/ppiankov/evidentia/internal/verify"
)

// Pipeline wires the pipeline stages together.
type Pipeline struct {
	loader     *Loader
	tokenizer  *tokenize.Tokenizer
	graph      *graph.Graph
	filter     *filter.Filter
	router     *route.Router
	classifier *classify.Classifier
	verifier   *verify.Verifier
	generator  *llm.Generator // nil when narrative generation is disabled
	renderer   *Renderer
	cache      cache.Cache // nil when caching is disabled
	ledger     *audit.Store
	log        *zap.Logger
	config     *model.Config
}

// New creates a pipeline from the configuration. The audit ledger is
// optional; pass nil to skip run recording.
func New(cfg *model.Config, log *zap.Logger, ledger *audit.Store) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var generator *llm.Generator
	if cfg.LLM.Provider != "" {
		g, err := llm.NewGenerator(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return nil, fmt.Errorf("init narrative provider: %w", err)
		}
		generator = g
	}

	var c cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		c = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
	} else if cfg.Cache.Enabled {
		c = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
	}

	return &Pipeline{
		loader:     NewLoader(),
		tokenizer:  tokenize.New(cfg.Tokenizer),
		graph:      graph.New(),
		filter:     filter.New(cfg.Filter),
		router:     route.New(cfg.Router),
		classifier: classify.New(cfg.Classifier),
		verifier:   verify.New(cfg.Verifier),
		generator:  generator,
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		cache:      c,
		ledger:     ledger,
		log:        log,
		config:     cfg,
	}, nil
}

// Result is the complete output of one case analysis.
type Result struct {
	RunID          string                      `json:"run_id"`
	CaseID         string                      `json:"case_id"`
	GeneratedAt    time.Time                   `json:"generated_at"`
	TargetArticle  string                      `json:"target_article,omitempty"`
	Windows        int                         `json:"windows"`
	RawFacts       int                         `json:"raw_facts"`
	MergedFacts    int                         `json:"merged_facts"`
	Facts          []*model.Fact               `json:"facts"`
	Classification *model.ClassificationResult `json:"classification"`
	Meta           *model.Meta                 `json:"meta"`
	Narrative      *model.Narrative            `json:"narrative,omitempty"`
	Alignment      *model.AlignmentReport      `json:"alignment,omitempty"`
	Provenance     *model.ProvenanceReport     `json:"provenance"`
	NoEvidence     bool                        `json:"no_evidence"`
}

// AnalyzeDir loads a case directory and analyzes it.
func (p *Pipeline) AnalyzeDir(ctx context.Context, caseID, dir, targetArticle string) (*Result, error) {
	windows, err := p.loader.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return p.Analyze(ctx, caseID, windows, targetArticle)
}

// Analyze runs the full pipeline over the given windows. targetArticle is an
// optional statute hint passed to the router; empty means unknown.
func (p *Pipeline) Analyze(ctx context.Context, caseID string, windows []tokenize.Window, targetArticle string) (*Result, error) {
	start := time.Now()

	raw := p.tokenizeAll(windows)
	merged := p.graph.Merge(raw)
	filtered := p.filter.Apply(merged)
	routed := p.router.Route(filtered, targetArticle)

	p.log.Info("pipeline stages complete",
		zap.String("case_id", caseID),
		zap.Int("windows", len(windows)),
		zap.Int("raw_facts", len(raw)),
		zap.Int("merged", len(merged)),
		zap.Int("filtered", len(filtered)),
		zap.Int("routed", len(routed)),
	)

	result := &Result{
		RunID:          model.NewID(),
		CaseID:         caseID,
		GeneratedAt:    time.Now().UTC(),
		TargetArticle:  targetArticle,
		Windows:        len(windows),
		RawFacts:       len(raw),
		MergedFacts:    len(merged),
		Facts:          routed,
		Classification: p.classifier.Classify(routed),
		Meta:           BuildMeta(routed),
		Provenance:     p.verifier.VerifyProvenance(routed),
		NoEvidence:     len(routed) == 0,
	}

	if result.NoEvidence {
		p.log.Warn("no evidentiary facts survived the pipeline", zap.String("case_id", caseID))
		p.record(ctx, result, start, "no_evidence")
		return result, nil
	}

	if p.generator.IsEnabled() {
		narrative, err := p.generator.Generate(ctx, result.Facts, result.Meta, result.Classification)
		if err != nil {
			// an unverifiable narrative degrades the run, it does not fail it
			p.log.Warn("narrative generation failed", zap.String("case_id", caseID), zap.Error(err))
		} else {
			result.Narrative = narrative
			result.Alignment = p.verifier.VerifyAlignment(result.Facts, narrative)
			if !result.Alignment.OK {
				p.log.Warn("narrative failed alignment",
					zap.String("case_id", caseID),
					zap.Int("violations", len(result.Alignment.Violations)),
				)
			}
		}
	}

	p.record(ctx, result, start, "ok")
	return result, nil
}

// VerifyNarrative checks an externally produced narrative against a prior
// result's fact set.
func (p *Pipeline) VerifyNarrative(facts []*model.Fact, narrative *model.Narrative) *model.AlignmentReport {
	return p.verifier.VerifyAlignment(facts, narrative)
}

// Render writes the result to the requested outputs and prints the summary.
func (p *Pipeline) Render(result *Result, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(result, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if p.config.Output.Verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(result, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if p.config.Output.Verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}
	p.renderer.RenderSummary(result)
	return nil
}

// tokenizeAll tokenizes windows one at a time so the per-window cache can
// answer unchanged pages. Window order is preserved.
func (p *Pipeline) tokenizeAll(windows []tokenize.Window) []*model.Fact {
	var facts []*model.Fact
	for _, w := range windows {
		facts = append(facts, p.tokenizeWindow(w)...)
	}
	return facts
}

func (p *Pipeline) tokenizeWindow(w tokenize.Window) []*model.Fact {
	if p.cache == nil {
		return p.tokenizer.Tokenize([]tokenize.Window{w})
	}

	key := cache.WindowKey(w.DocumentID, w.Page, w.Text)
	if data, found := p.cache.Get(key); found {
		var cached []*model.Fact
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
		// corrupt entry: drop it and recompute
		_ = p.cache.Delete(key)
	}

	facts := p.tokenizer.Tokenize([]tokenize.Window{w})
	if data, err := json.Marshal(facts); err == nil {
		if err := p.cache.Set(key, data, p.config.Cache.TTL); err != nil {
			p.log.Debug("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return facts
}

func (p *Pipeline) record(ctx context.Context, result *Result, start time.Time, status string) {
	if p.ledger == nil {
		return
	}
	entry := audit.Run{
		CaseID:      result.CaseID,
		StartedAt:   start.UTC(),
		DurationMS:  time.Since(start).Milliseconds(),
		Windows:     result.Windows,
		FactsRouted: len(result.Facts),
		Primary:     result.Classification.Primary,
		Status:      status,
	}
	if result.Alignment != nil {
		entry.AlignmentOK = result.Alignment.OK
	}
	if err := p.ledger.Record(ctx, entry); err != nil {
		p.log.Warn("audit record failed", zap.String("case_id", result.CaseID), zap.Error(err))
	}
}

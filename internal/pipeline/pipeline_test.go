package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/tokenize"
)

func newTestPipeline(t *testing.T, cfg *model.Config) *Pipeline {
	t.Helper()
	if cfg == nil {
		cfg = model.DefaultConfig()
		cfg.Cache.Enabled = false
	}
	p, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func caseWindows() []tokenize.Window {
	return []tokenize.Window{
		{DocumentID: "doc-1", Page: 1,
			Text: "Подозреваемый пояснил обстоятельства дела. Иванов перевел 500 000 тенге 12.03.2024 путем обмана."},
		{DocumentID: "doc-1", Page: 2,
			Text: "Иванов перевел 500 000 тенге 12.03.2024 путем обмана."},
		{DocumentID: "doc-2", Page: 1,
			Text: "Потерпевший сообщил, что потерял 800 000 тенге."},
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	p := newTestPipeline(t, nil)

	result, err := p.Analyze(context.Background(), "case-1", caseWindows(), "190")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.CaseID != "case-1" || result.TargetArticle != "190" {
		t.Errorf("result identity = %q/%q", result.CaseID, result.TargetArticle)
	}
	if result.RunID == "" {
		t.Error("run id not assigned")
	}
	if result.Windows != 3 {
		t.Errorf("windows = %d, want 3", result.Windows)
	}
	if result.NoEvidence {
		t.Fatal("evidentiary windows reported as no evidence")
	}
	if len(result.Facts) == 0 {
		t.Fatal("no facts survived the pipeline")
	}
	if result.MergedFacts > result.RawFacts {
		t.Errorf("merge grew the fact set: raw=%d merged=%d", result.RawFacts, result.MergedFacts)
	}
	if result.Classification == nil || len(result.Classification.Scores) == 0 {
		t.Error("classification missing")
	}
	if result.Meta == nil {
		t.Error("meta missing")
	}
	if result.Provenance == nil {
		t.Error("provenance report missing")
	}
	if result.Narrative != nil {
		t.Error("narrative generated with LLM disabled")
	}

	// every routed fact carries a routing group
	for _, f := range result.Facts {
		if f.RoutingGroup == "" {
			t.Errorf("fact %s has no routing group", f.FactID)
		}
	}
}

func TestAnalyzeMergesAcrossPages(t *testing.T) {
	p := newTestPipeline(t, nil)

	result, err := p.Analyze(context.Background(), "case-1", caseWindows(), "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// the duplicated sentence on pages 1 and 2 must collapse to one fact
	if result.MergedFacts >= result.RawFacts {
		t.Errorf("duplicate sentence not merged: raw=%d merged=%d", result.RawFacts, result.MergedFacts)
	}
}

func TestAnalyzeNoEvidence(t *testing.T) {
	p := newTestPipeline(t, nil)

	windows := []tokenize.Window{
		{DocumentID: "doc-1", Page: 1, Text: "Когда это произошло?"},
	}
	result, err := p.Analyze(context.Background(), "case-2", windows, "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !result.NoEvidence {
		t.Error("question-only input should yield no evidence")
	}
	if len(result.Facts) != 0 {
		t.Errorf("facts = %d, want 0", len(result.Facts))
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	p := newTestPipeline(t, nil)

	a, err := p.Analyze(context.Background(), "case-1", caseWindows(), "190")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := p.Analyze(context.Background(), "case-1", caseWindows(), "190")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(a.Facts, b.Facts) {
		t.Error("fact sets differ between identical runs")
	}
	if !reflect.DeepEqual(a.Classification, b.Classification) {
		t.Error("classification differs between identical runs")
	}
}

func TestAnalyzeCacheRoundTrip(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = true
	p := newTestPipeline(t, cfg)

	a, err := p.Analyze(context.Background(), "case-1", caseWindows(), "190")
	if err != nil {
		t.Fatalf("cold run: %v", err)
	}
	// second run answers from the tokenization cache
	b, err := p.Analyze(context.Background(), "case-1", caseWindows(), "190")
	if err != nil {
		t.Fatalf("warm run: %v", err)
	}

	if !reflect.DeepEqual(a.Facts, b.Facts) {
		t.Error("cached tokenization changed the fact set")
	}
}

func TestAnalyzeDirMissing(t *testing.T) {
	p := newTestPipeline(t, nil)

	if _, err := p.AnalyzeDir(context.Background(), "case-x", filepath.Join(t.TempDir(), "nope"), ""); err == nil {
		t.Fatal("expected error for missing case directory")
	}
}

func TestAnalyzeDirLoadsFiles(t *testing.T) {
	dir := t.TempDir()
	content := "Подозреваемый пояснил обстоятельства дела. Иванов перевел 500 000 тенге 12.03.2024 путем обмана."
	if err := os.WriteFile(filepath.Join(dir, "protocol.txt"), []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	p := newTestPipeline(t, nil)
	result, err := p.AnalyzeDir(context.Background(), "case-3", dir, "")
	if err != nil {
		t.Fatalf("AnalyzeDir: %v", err)
	}
	if result.Windows != 1 || len(result.Facts) == 0 {
		t.Errorf("windows=%d facts=%d, want 1 window with facts", result.Windows, len(result.Facts))
	}
}

func TestRenderWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline(t, nil)

	result, err := p.Analyze(context.Background(), "case-1", caseWindows(), "190")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	jsonPath := filepath.Join(dir, "report.json")
	mdPath := filepath.Join(dir, "report.md")
	if err := p.Render(result, jsonPath, mdPath); err != nil {
		t.Fatalf("Render: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read JSON: %v", err)
	}
	var decoded Result
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if decoded.CaseID != "case-1" || len(decoded.Facts) != len(result.Facts) {
		t.Errorf("JSON round trip lost data: %q, %d facts", decoded.CaseID, len(decoded.Facts))
	}

	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read Markdown: %v", err)
	}
	if len(md) == 0 {
		t.Error("empty Markdown report")
	}
}

package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/evidentia/internal/pipeline"
)

// MockAnalyzer implements Analyzer
type MockAnalyzer struct {
	ShouldError bool
}

func (m *MockAnalyzer) AnalyzeDir(ctx context.Context, caseID, dir, targetArticle string) (*pipeline.Result, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("analyze error")
	}
	return &pipeline.Result{
		CaseID:  caseID,
		Windows: 3,
	}, nil
}

func TestBatchProcessorProcessDirs(t *testing.T) {
	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2)

	dirs := []string{"/cases/case-1", "/cases/case-2", "/cases/case-3"}
	ctx := context.Background()

	results := processor.ProcessDirs(ctx, dirs, "")

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	seen := make(map[string]bool)
	for _, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Dir, res.Error)
			continue
		}
		if res.Result == nil {
			t.Errorf("no result for %s", res.Dir)
			continue
		}
		seen[res.CaseID] = true
	}
	for _, id := range []string{"case-1", "case-2", "case-3"} {
		if !seen[id] {
			t.Errorf("missing result for %s", id)
		}
	}
}

func TestBatchProcessorErrors(t *testing.T) {
	analyzer := &MockAnalyzer{ShouldError: true}
	processor := NewBatchProcessor(analyzer, 2)

	results := processor.ProcessDirs(context.Background(), []string{"/cases/case-1"}, "")

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error to be captured in the result")
	}
}

func TestBatchProcessorEmptyInput(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 2)

	results := processor.ProcessDirs(context.Background(), nil, "")
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestReadDirsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.txt")
	content := "/cases/case-1\n" +
		"# comment line\n" +
		"\n" +
		"/cases/case-2\n" +
		"/cases/case-1\n" // duplicate
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write list file: %v", err)
	}

	dirs, err := ReadDirsFromFile(path)
	if err != nil {
		t.Fatalf("ReadDirsFromFile failed: %v", err)
	}
	want := []string{"/cases/case-1", "/cases/case-2"}
	if len(dirs) != len(want) {
		t.Fatalf("dirs = %v, want %v", dirs, want)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("dirs = %v, want %v", dirs, want)
			break
		}
	}
}

func TestReadDirsFromFileMissing(t *testing.T) {
	if _, err := ReadDirsFromFile("/nonexistent/cases.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBatchProcessorFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.txt")
	if err := os.WriteFile(path, []byte("/cases/case-1\n/cases/case-2\n"), 0644); err != nil {
		t.Fatalf("write list file: %v", err)
	}

	processor := NewBatchProcessor(&MockAnalyzer{}, 2)
	results, err := processor.ProcessFile(context.Background(), path, "190")
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

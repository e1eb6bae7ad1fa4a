package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/evidentia/internal/pipeline"
)

// Analyzer defines the interface for analyzing one case directory
type Analyzer interface {
	AnalyzeDir(ctx context.Context, caseID, dir, targetArticle string) (*pipeline.Result, error)
}

// CaseJob represents one case-directory analysis job
type CaseJob struct {
	CaseID        string
	Dir           string
	TargetArticle string
	Analyzer      Analyzer
}

// Execute executes the analysis job
func (j *CaseJob) Execute(ctx context.Context) Result {
	result, err := j.Analyzer.AnalyzeDir(ctx, j.CaseID, j.Dir, j.TargetArticle)
	return &CaseResult{
		CaseID: j.CaseID,
		Dir:    j.Dir,
		Result: result,
		Error:  err,
	}
}

// CaseResult represents the result of a case analysis job
type CaseResult struct {
	CaseID string
	Dir    string
	Result *pipeline.Result
	Error  error
}

// GetError returns the error from the case result
func (r *CaseResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple case directories concurrently. Cases are
// independent, so the only shared state is the analyzer itself.
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessDirs analyzes multiple case directories concurrently. The case id
// is the directory base name.
func (b *BatchProcessor) ProcessDirs(ctx context.Context, dirs []string, targetArticle string) []*CaseResult {
	if len(dirs) == 0 {
		return []*CaseResult{}
	}

	// Create worker pool
	pool := NewPool(b.concurrency)
	pool.Start()

	// Submit jobs
	for _, dir := range dirs {
		job := &CaseJob{
			CaseID:        filepath.Base(filepath.Clean(dir)),
			Dir:           dir,
			TargetArticle: targetArticle,
			Analyzer:      b.analyzer,
		}
		pool.Submit(job)
	}

	// Wait for all jobs to complete
	results := pool.Wait()

	// Convert to CaseResults
	caseResults := make([]*CaseResult, len(results))
	for i, result := range results {
		caseResults[i] = result.(*CaseResult)
	}

	return caseResults
}

// ProcessFile reads case directories from a list file and analyzes them
// concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath, targetArticle string) ([]*CaseResult, error) {
	dirs, err := ReadDirsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read case list: %w", err)
	}

	return b.ProcessDirs(ctx, dirs, targetArticle), nil
}

// ReadDirsFromFile reads case directories from a file (one per line)
func ReadDirsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var dirs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate directories
		if !seen[line] {
			seen[line] = true
			dirs = append(dirs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return dirs, nil
}

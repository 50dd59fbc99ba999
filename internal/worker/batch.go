package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
)

var errNotRun = errors.New("job did not run")

// RunFunc grounds one transcript and returns its report
type RunFunc func(ctx context.Context, transcriptID string) (*model.Report, error)

// RunJob grounds a single transcript
type RunJob struct {
	TranscriptID string
	Run          RunFunc
}

// Execute executes the run job
func (j *RunJob) Execute(ctx context.Context) Result {
	report, err := j.Run(ctx, j.TranscriptID)
	return &RunResult{
		TranscriptID: j.TranscriptID,
		Report:       report,
		Error:        err,
	}
}

// RunResult represents the result of a run job
type RunResult struct {
	TranscriptID string
	Report       *model.Report
	Error        error
}

// GetError returns the error from the run result
func (r *RunResult) GetError() error {
	return r.Error
}

// BatchProcessor grounds multiple transcripts concurrently
type BatchProcessor struct {
	run         RunFunc
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(run RunFunc, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		run:         run,
		concurrency: concurrency,
	}
}

// ProcessIDs grounds every transcript and returns one result per ID in input
// order. Transcripts skipped because ctx ended carry the context error.
func (b *BatchProcessor) ProcessIDs(ctx context.Context, ids []string) []*RunResult {
	if len(ids) == 0 {
		return []*RunResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, id := range ids {
		pool.Submit(&RunJob{TranscriptID: id, Run: b.run})
	}

	results := pool.Wait()

	runResults := make([]*RunResult, len(ids))
	for i, id := range ids {
		if rr, ok := results[i].(*RunResult); ok && rr != nil {
			runResults[i] = rr
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = errNotRun
		}
		runResults[i] = &RunResult{TranscriptID: id, Error: fmt.Errorf("transcript not processed: %w", err)}
	}

	return runResults
}

// ProcessFile reads transcript IDs from a file and grounds them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*RunResult, error) {
	ids, err := ReadIDsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read transcript IDs: %w", err)
	}

	return b.ProcessIDs(ctx, ids), nil
}

// ReadIDsFromFile reads transcript IDs from a file (one per line)
func ReadIDsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ids, nil
}

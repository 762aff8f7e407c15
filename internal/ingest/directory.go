package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gyeh/chargefeed/internal/detect"
	"github.com/gyeh/chargefeed/internal/model"
)

// FileResult pairs a file path with its pipeline outcome.
type FileResult struct {
	Path   string
	Result *model.IngestResult
	Err    error
}

// ProcessDir runs the pipeline over every supported file in dir that
// matches pattern, with at most workers files in flight. One file's
// failure never aborts the others.
func (p *Pipeline) ProcessDir(ctx context.Context, dir, pattern string, workers int) ([]FileResult, error) {
	if pattern == "" {
		pattern = "*"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("expand pattern %q: %w", pattern, err)
	}

	var paths []string
	for _, m := range matches {
		if detect.IsSupported(m) {
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no supported files in %s matching %q", dir, pattern)
	}

	if workers <= 0 {
		workers = 1
	}
	p.Log.Info().
		Int("files", len(paths)).
		Int("workers", workers).
		Msg("processing directory")

	results := make([]FileResult, len(paths))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(idx int, fp string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[idx] = FileResult{Path: fp, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			res, err := p.ProcessFile(ctx, fp)
			results[idx] = FileResult{Path: fp, Result: res, Err: err}
		}(i, path)
	}

	wg.Wait()
	return results, nil
}

// FailureCount reports how many files ended in error.
func FailureCount(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

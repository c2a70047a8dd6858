// Package pipeline orchestrates fixture loading, caching, budget analysis
// and the list views built on top of it.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Projects    []model.Project
	TotalFiles  int
	ParsedFiles int
	ParseErrors int
	FileErrors  int
	Duplicates  int // records dropped for reusing an earlier project ID

	// Problems describes each skipped record or unreadable file from this
	// run. Cached files contribute only to ParseErrors.
	Problems []error

	ManualApplied  int
	ManualOrphaned int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses every fixture file under dataDir.
// It uses a bounded worker pool for parallel parsing.
func Load(dataDir string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	for _, pr := range parseFiles(files, 0, len(files), progressFn) {
		result.collect(pr)
	}
	result.finish()

	return result, nil
}

// collect folds one parse result into the load result.
func (r *LoadResult) collect(pr source.ParseResult) {
	if pr.Err != nil {
		r.FileErrors++
		r.Problems = append(r.Problems, pr.Err)
		return
	}
	r.ParsedFiles++
	r.ParseErrors += pr.ParseErrors
	r.Problems = append(r.Problems, pr.Problems...)
	r.Projects = append(r.Projects, pr.Projects...)
}

// finish orders projects by file, keeping each file's record order, then
// drops any project whose ID was already seen. The first record wins, so
// cached and uncached loads agree on which one survives.
func (r *LoadResult) finish() {
	sort.SliceStable(r.Projects, func(i, j int) bool {
		return r.Projects[i].FilePath < r.Projects[j].FilePath
	})

	firstFile := make(map[string]string, len(r.Projects))
	kept := r.Projects[:0]
	for _, p := range r.Projects {
		if prev, dup := firstFile[p.ID]; dup {
			r.Duplicates++
			r.Problems = append(r.Problems,
				fmt.Errorf("%s: project %s: duplicate id, already defined in %s", p.FilePath, p.ID, prev))
			continue
		}
		firstFile[p.ID] = p.FilePath
		kept = append(kept, p)
	}
	r.Projects = kept
}

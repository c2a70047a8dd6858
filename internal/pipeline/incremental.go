package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/pburn/internal/source"
	"github.com/theirongolddev/pburn/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
	Evicted   int
}

// LoadWithCache discovers fixture files, diffs them against the cache,
// parses only changed files and merges the manual expense ledger into the
// combined project set.
func LoadWithCache(dataDir string, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{TotalFiles: len(files)},
	}

	// Diff: partition into changed and unchanged
	var toReparse []source.DiscoveredFile
	var stats []os.FileInfo
	unchanged := make(map[string]struct{})
	seen := make(map[string]struct{}, len(files))

	for _, f := range files {
		seen[f.Path] = struct{}{}
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}

		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == info.ModTime().UnixNano() && cached.SizeBytes == info.Size() {
			unchanged[f.Path] = struct{}{}
			result.ParseErrors += cached.ParseErrors
		} else {
			toReparse = append(toReparse, f)
			stats = append(stats, info)
		}
	}

	// Files that disappeared since the last run
	for path := range tracked {
		if _, ok := seen[path]; ok {
			continue
		}
		if err := cache.DeleteFile(path); err != nil {
			return nil, fmt.Errorf("evicting %s: %w", path, err)
		}
		result.Evicted++
	}

	result.CacheHits = len(unchanged)
	result.Reparsed = len(toReparse)

	if len(unchanged) > 0 {
		cached, err := cache.LoadAllProjects()
		if err != nil {
			return nil, fmt.Errorf("loading cached projects: %w", err)
		}
		for _, p := range cached {
			if _, ok := unchanged[p.FilePath]; ok {
				result.Projects = append(result.Projects, p)
			}
		}
		result.ParsedFiles += len(unchanged)
		if progressFn != nil {
			progressFn(result.CacheHits, result.TotalFiles)
		}
	}

	for i, pr := range parseFiles(toReparse, result.CacheHits, result.TotalFiles, progressFn) {
		result.collect(pr)

		path := toReparse[i].Path
		if pr.Err != nil {
			_ = cache.DeleteFile(path)
			continue
		}
		_ = cache.SaveFile(path, pr.Projects, store.FileInfo{
			MtimeNs:     stats[i].ModTime().UnixNano(),
			SizeBytes:   stats[i].Size(),
			ParseErrors: pr.ParseErrors,
		})
	}

	result.finish()

	if err := MergeManualExpenses(&result.LoadResult, cache); err != nil {
		return nil, err
	}
	return result, nil
}

// MergeManualExpenses applies the cache's manual expense ledger to a load
// result. Uncached loads use it so recorded expenses still count.
func MergeManualExpenses(result *LoadResult, cache *store.Cache) error {
	manual, err := cache.ManualExpenses()
	if err != nil {
		return fmt.Errorf("loading manual expenses: %w", err)
	}
	result.ManualApplied, result.ManualOrphaned = ApplyManualExpenses(result.Projects, manual)
	return nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "pburn")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "pburn")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "projects.db")
}

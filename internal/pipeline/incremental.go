package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/model"
	"github.com/theirongolddev/flightrec/internal/source"
	"github.com/theirongolddev/flightrec/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Replayed  int
}

// LoadWithCache discovers event logs, diffs them against the cache, replays
// only changed files, and returns the combined result set.
func LoadWithCache(dataDir string, cfg config.Config, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{TotalFiles: len(files)},
	}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	// Diff: partition into changed and unchanged
	var toReplay []source.DiscoveredFile
	var unchanged []string

	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}

		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == info.ModTime().UnixNano() && cached.SizeBytes == info.Size() {
			unchanged = append(unchanged, f.Path)
		} else {
			toReplay = append(toReplay, f)
		}
	}

	result.CacheHits = len(unchanged)
	result.Replayed = len(toReplay)

	if len(unchanged) > 0 {
		cachedReports, err := cache.LoadAllReports()
		if err != nil {
			return nil, fmt.Errorf("loading cached reports: %w", err)
		}

		unchangedSet := make(map[string]struct{}, len(unchanged))
		for _, p := range unchanged {
			unchangedSet[p] = struct{}{}
		}
		for _, r := range cachedReports {
			if _, ok := unchangedSet[r.FilePath]; ok {
				result.Reports = append(result.Reports, r)
				result.ParsedFiles++
			}
		}
	}

	if len(toReplay) > 0 {
		pricing := cfg.BuildPricingTable()

		numWorkers := runtime.GOMAXPROCS(0)
		if numWorkers < 1 {
			numWorkers = 4
		}
		if numWorkers > len(toReplay) {
			numWorkers = len(toReplay)
		}

		type replayOutcome struct {
			report      model.SessionReport
			parseErrors int
			err         error
		}

		work := make(chan int, len(toReplay))
		results := make([]replayOutcome, len(toReplay))
		var wg sync.WaitGroup
		var processed atomic.Int64

		for i := range toReplay {
			work <- i
		}
		close(work)

		wg.Add(numWorkers)
		for w := 0; w < numWorkers; w++ {
			go func() {
				defer wg.Done()
				for idx := range work {
					report, parseErrors, err := Replay(toReplay[idx], cfg, pricing)
					results[idx] = replayOutcome{report, parseErrors, err}
					n := processed.Add(1)
					if progressFn != nil {
						progressFn(int(n)+result.CacheHits, result.TotalFiles)
					}
				}
			}()
		}

		wg.Wait()

		for i, out := range results {
			if out.err != nil {
				result.FileErrors++
				continue
			}
			result.ParsedFiles++
			result.ParseErrors += out.parseErrors

			if out.report.Turns > 0 || len(out.report.Tools) > 0 {
				result.Reports = append(result.Reports, out.report)

				info, err := os.Stat(toReplay[i].Path)
				if err == nil {
					_ = cache.SaveReport(out.report, info.ModTime().UnixNano(), info.Size())
				}
			}
		}
	}

	return result, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "flightrec")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "flightrec")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "reports.db")
}

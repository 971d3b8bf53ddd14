package pipeline

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/model"
	"github.com/theirongolddev/flightrec/internal/source"
)

// LoadResult holds the output of the full replay pipeline.
type LoadResult struct {
	Reports     []model.SessionReport
	TotalFiles  int
	ParsedFiles int
	ParseErrors int
	FileErrors  int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Replay feeds one recorded event log through a fresh dispatcher and returns
// the resulting session report. Handler timing comes from the recorded
// timestamps, so replaying an old log reproduces the live session's numbers.
func Replay(df source.DiscoveredFile, cfg config.Config, pricing *config.PricingTable) (model.SessionReport, int, error) {
	pr := source.ParseFile(df)
	if pr.Err != nil {
		return model.SessionReport{}, 0, pr.Err
	}

	d := NewDispatcher(cfg, pricing, nil)
	for _, ev := range pr.Events {
		d.Dispatch(ev)
	}

	report := d.Snapshot()
	if report.SessionID == "" {
		report.SessionID = pr.SessionID
	}
	report.FilePath = df.Path

	return report, pr.ParseErrors, nil
}

// Load discovers and replays all event logs under the flightrec data
// directory. It uses a bounded worker pool for parallel replay.
func Load(dataDir string, cfg config.Config, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	pricing := cfg.BuildPricingTable()

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	type replayOutcome struct {
		report      model.SessionReport
		parseErrors int
		err         error
	}

	work := make(chan int, len(files))
	results := make([]replayOutcome, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				report, parseErrors, err := Replay(files[idx], cfg, pricing)
				results[idx] = replayOutcome{report, parseErrors, err}
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}

	wg.Wait()

	for _, out := range results {
		if out.err != nil {
			result.FileErrors++
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += out.parseErrors
		if out.report.Turns > 0 || len(out.report.Tools) > 0 {
			result.Reports = append(result.Reports, out.report)
		}
	}

	return result, nil
}

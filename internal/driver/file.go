package driver

import (
	"context"
	"fmt"
	"os"

	"xclower/internal/diag"
	"xclower/internal/hirio"
	"xclower/internal/lir"
	"xclower/internal/pipeline"
	"xclower/internal/source"
	"xclower/internal/types"
)

// FileOptions configures LowerFile.
type FileOptions struct {
	Options
	Format hirio.Format
	Model  types.DataModel
	// Cache is optional; nil disables result caching.
	Cache *DiskCache
}

// FileResult is a lowering result together with the files its spans
// refer to.
type FileResult struct {
	*Result
	Files *source.FileSet
	// Rejected is set when the input document itself was invalid; Program
	// is then empty and Bag holds the input diagnostics.
	Rejected bool
	Cached   bool
}

// LowerFile reads a front-end document and lowers it. Invalid declarations
// in the document stop the run before any lowering starts.
func LowerFile(ctx context.Context, path string, opts FileOptions) (*FileResult, error) {
	pipeline.Emit(opts.Progress, pipeline.Event{Unit: path, Stage: pipeline.StageLoad, Status: pipeline.StatusWorking})
	done := opts.Timer.Track(string(pipeline.StageLoad))

	data, err := os.ReadFile(path)
	if err != nil {
		done("")
		return nil, err
	}
	f := opts.Format
	if f == hirio.FormatAuto {
		f = hirio.FormatForPath(path)
	}
	doc, err := hirio.Decode(data, f)
	if err != nil {
		done("")
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	key := CacheKey(data, opts.Model, opts.MaxTemplateDepth, opts.MaxAlign)
	var payload DiskPayload
	if hit, cerr := opts.Cache.Get(key, &payload); cerr == nil && hit {
		done("cached")
		pipeline.Emit(opts.Progress, pipeline.Event{Unit: path, Stage: pipeline.StageLoad, Status: pipeline.StatusDone})
		bag := diag.NewBag(opts.MaxDiagnostics)
		for _, d := range payload.Diagnostics {
			bag.Add(d)
		}
		return &FileResult{
			Result: &Result{Program: payload.Program, Bag: bag, Stats: payload.Stats},
			Files:  hirio.FileSet(doc),
			Cached: true,
		}, nil
	}

	tab, berr := hirio.Build(doc, opts.Model)
	done("")
	pipeline.Emit(opts.Progress, pipeline.Event{Unit: path, Stage: pipeline.StageLoad, Status: pipeline.StatusDone})
	if berr != nil {
		bag := diag.NewBag(opts.MaxDiagnostics)
		r := diag.BagReporter{Bag: bag}
		for _, de := range diag.Errors(berr) {
			de.Report(r)
		}
		if bag.Len() == 0 {
			return nil, berr
		}
		bag.Sort()
		return &FileResult{
			Result:   &Result{Program: &lir.Program{}, Bag: bag},
			Files:    tab.Files,
			Rejected: true,
		}, nil
	}

	res, err := Lower(ctx, tab, opts.Options)
	if err != nil {
		return nil, err
	}
	out := &FileResult{Result: res, Files: tab.Files}
	if opts.Cache != nil {
		// a failed write only costs the next run a recomputation
		_ = opts.Cache.Put(key, &DiskPayload{Program: res.Program, Diagnostics: res.Bag.Items(), Stats: res.Stats})
	}
	return out, nil
}

package driver

import (
	"context"
	"errors"
	"runtime"
	"time"

	"xclower/internal/diag"
	"xclower/internal/layout"
	"xclower/internal/lifetime"
	"xclower/internal/lir"
	"xclower/internal/mangle"
	"xclower/internal/mono"
	"xclower/internal/observ"
	"xclower/internal/pipeline"
	"xclower/internal/resolve"
	"xclower/internal/rewrite"
	"xclower/internal/symbols"
	"xclower/internal/trace"
)

// Options configures one lowering run.
type Options struct {
	// Jobs bounds concurrently lowered units; 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	// MaxTemplateDepth bounds nested instantiation; 0 means the default.
	MaxTemplateDepth int
	// MaxAlign caps aggregate alignment in bytes; 0 packs to one byte.
	MaxAlign int
	// Tracer defaults to the one attached to the run's context.
	Tracer   trace.Tracer
	Timer    *observ.Timer
	Progress pipeline.ProgressSink
}

// Stats counts what happened to the units of a run.
type Stats struct {
	Classes   int `json:"classes"`
	Procs     int `json:"procs"`
	Instances int `json:"instances"`
	Failed    int `json:"failed"`
	Dropped   int `json:"dropped"`
}

// Result is the lowered program with the run's diagnostics. A unit that
// failed contributes nothing to Program.
type Result struct {
	Program *lir.Program
	Bag     *diag.Bag
	Stats   Stats
	Timings pipeline.Timings
}

type lowering struct {
	ctx  context.Context
	opts Options
	jobs int
	tab  *symbols.Table

	mangler  *mangle.Mangler
	inst     *mono.Table
	resolver *resolve.Resolver
	layouts  *layout.Engine
	planner  *lifetime.Planner
	rw       *rewrite.Rewriter

	tr       trace.Tracer
	root     *trace.Span
	bag      *diag.Bag
	reporter diag.Reporter
	timings  pipeline.Timings

	units   []*unit
	failed  map[string]bool
	statics []rewrite.SlotOutput
	// staticsOut carries the directives of the static plan; its globals and
	// procedure are rebuilt from the surviving slots.
	staticsOut *rewrite.Output
	stats      Stats
}

// Lower lowers every class, function and reachable template instance of
// tab. The returned error is reserved for cancellation; lowering failures
// end up in Result.Bag.
func Lower(ctx context.Context, tab *symbols.Table, opts Options) (*Result, error) {
	lw := newLowering(ctx, tab, opts)
	lw.root = trace.Begin(lw.tr, trace.ScopeDriver, "lower", 0)

	lw.phase(pipeline.StageLayout, lw.flattenAll)
	lw.phase(pipeline.StagePlan, lw.planStatics)
	var err error
	lw.phase(pipeline.StageRewrite, func() string {
		err = lw.lowerUnits()
		return ""
	})
	if err != nil {
		lw.root.End("cancelled")
		return nil, err
	}
	lw.poison()
	prog := lw.assemble()
	lw.bag.Sort()
	lw.root.WithExtra("procs", itoa(len(prog.Procs))).End("")
	return &Result{Program: prog, Bag: lw.bag, Stats: lw.stats, Timings: lw.timings}, nil
}

func newLowering(ctx context.Context, tab *symbols.Table, opts Options) *lowering {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tr := opts.Tracer
	if tr == nil {
		tr = trace.FromContext(ctx)
	}
	m := mangle.New()
	m.Reserve(lifetime.StaticInitName)
	inst := mono.NewTable(tab, m, opts.MaxTemplateDepth)
	res := resolve.New(tab, m, inst, tr)
	lay := layout.New(tab, m, layout.TargetFor(tab.Types.Model(), opts.MaxAlign))
	bag := diag.NewBag(opts.MaxDiagnostics)
	return &lowering{
		ctx:      ctx,
		opts:     opts,
		jobs:     jobs,
		tab:      tab,
		mangler:  m,
		inst:     inst,
		resolver: res,
		layouts:  lay,
		planner:  lifetime.New(tab, res, lay, m),
		rw:       rewrite.New(tab, lay, m),
		tr:       tr,
		bag:      bag,
		reporter: diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
		failed:   make(map[string]bool),
	}
}

// phase runs fn as one timed, traced stage.
func (lw *lowering) phase(stage pipeline.Stage, fn func() string) {
	span := trace.Begin(lw.tr, trace.ScopePass, string(stage), lw.root.ID())
	done := lw.opts.Timer.Track(string(stage))
	pipeline.Emit(lw.opts.Progress, pipeline.Event{Stage: stage, Status: pipeline.StatusWorking})
	start := time.Now()
	note := fn()
	elapsed := time.Since(start)
	lw.timings.Add(stage, elapsed)
	done(note)
	span.End(note)
	pipeline.Emit(lw.opts.Progress, pipeline.Event{Stage: stage, Status: pipeline.StatusDone, Elapsed: elapsed})
}

// report forwards the located diagnostics of err. Failures that only
// repeat an earlier failure carry no diagnostic and are dropped here.
func (lw *lowering) report(err error) {
	for _, de := range diag.Errors(err) {
		de.Report(lw.reporter)
	}
}

// flattenAll computes every class layout up front so units only read the
// layout cache.
func (lw *lowering) flattenAll() string {
	failed := 0
	for _, c := range lw.tab.Classes() {
		if _, err := lw.layouts.Flatten(c.ID); err != nil {
			failed++
			if errors.Is(err, diag.ErrPoisoned) {
				// the failing base was reported on its own
				lw.stats.Dropped++
			} else {
				lw.report(err)
				lw.stats.Failed++
			}
			lw.markFailed(lw.classNames(c))
			for _, id := range c.Methods {
				if name, err := lw.resolver.Callee(lw.tab.Func(id)); err == nil {
					lw.failed[name] = true
				}
			}
		}
	}
	return itoa(len(lw.tab.Classes())) + " classes, " + itoa(failed) + " failed"
}

func (lw *lowering) markFailed(names []string) {
	for _, n := range names {
		lw.failed[n] = true
	}
}

// planStatics plans the program-wide slots. It runs before any procedure
// is rewritten: main needs to know whether __static_init exists.
func (lw *lowering) planStatics() string {
	sp, err := lw.planner.PlanStatics()
	lw.report(err)
	lw.markFailed(sp.Failed)
	lw.rw.StaticInit = sp.Init != nil
	out, slots, err := lw.rw.Statics(sp)
	if err != nil {
		lw.report(err)
		for _, so := range slots {
			lw.failed[so.Slot.Name] = true
		}
		lw.failed[lifetime.StaticInitName] = true
		return "failed"
	}
	lw.staticsOut = out
	lw.statics = slots
	return itoa(len(slots)) + " slots"
}

package driver

import (
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"xclower/internal/diag"
	"xclower/internal/mangle"
	"xclower/internal/mono"
	"xclower/internal/pipeline"
	"xclower/internal/rewrite"
	"xclower/internal/symbols"
	"xclower/internal/trace"
)

type unitKind uint8

const (
	unitClass unitKind = iota
	unitFunc
	unitInstance
)

// unit is one independently lowered piece: a class (aggregate, init and
// cleanup procedures), a procedure, or a template instance.
type unit struct {
	kind  unitKind
	class *symbols.Class
	fn    *symbols.Func
	inst  *mono.Instance
	label string
	// provides are the names the unit defines; they are known before it
	// runs so a failure can poison users of names it never produced.
	provides []string

	out     *rewrite.Output
	err     error
	dropped bool
}

func itoa(n int) string { return strconv.Itoa(n) }

func (u *unit) failed() bool { return u.err != nil || u.dropped }

func (lw *lowering) classNames(c *symbols.Class) []string {
	var names []string
	if n, err := lw.mangler.Mangle(mangle.StructKey(c)); err == nil {
		names = append(names, n)
	}
	for _, id := range c.Ctors {
		if n, err := lw.resolver.Callee(lw.tab.Func(id)); err == nil {
			names = append(names, n)
		}
	}
	if n, err := lw.planner.CleanupName(c); err == nil {
		names = append(names, n)
	}
	return names
}

// initialUnits lists classes in declaration order, then every defined
// non-template procedure in declaration order.
func (lw *lowering) initialUnits() []*unit {
	var units []*unit
	for _, c := range lw.tab.Classes() {
		if _, ok := lw.layouts.Cached(c.ID); !ok {
			continue
		}
		units = append(units, &unit{kind: unitClass, class: c, label: c.QualifiedName(), provides: lw.classNames(c)})
	}
	for _, f := range lw.tab.Funcs() {
		if f.IsTemplate() || f.Body == nil || f.Kind == symbols.FuncCtor || f.Kind == symbols.FuncDtor {
			continue
		}
		if c := lw.tab.Class(f.Class); c != nil {
			if _, ok := lw.layouts.Cached(c.ID); !ok {
				continue
			}
		}
		u := &unit{kind: unitFunc, fn: f, label: lw.tab.OverloadKey(f)}
		if n, err := lw.resolver.Callee(f); err == nil {
			u.provides = []string{n}
		}
		units = append(units, u)
	}
	return units
}

func (lw *lowering) instanceUnits(insts []*mono.Instance) []*unit {
	units := make([]*unit, 0, len(insts))
	for _, in := range insts {
		units = append(units, &unit{
			kind:     unitInstance,
			fn:       in.Func(lw.tab),
			inst:     in,
			label:    in.Display(lw.tab),
			provides: []string{in.Name},
		})
	}
	return units
}

// lowerUnits lowers the initial units, then the template instances they
// requested, round after round until no new instance appears. Results are
// settled in unit order, so diagnostics do not depend on scheduling.
func (lw *lowering) lowerUnits() error {
	round := lw.initialUnits()
	for len(round) > 0 {
		for _, u := range round {
			pipeline.Emit(lw.opts.Progress, pipeline.Event{Unit: u.label, Stage: pipeline.StagePlan, Status: pipeline.StatusQueued})
		}
		if err := lw.runRound(round); err != nil {
			return err
		}
		for _, u := range round {
			lw.settle(u)
		}
		lw.units = append(lw.units, round...)
		round = lw.instanceUnits(lw.inst.Drain())
	}
	return nil
}

func (lw *lowering) runRound(units []*unit) error {
	g, gctx := errgroup.WithContext(lw.ctx)
	g.SetLimit(min(lw.jobs, len(units)))
	for _, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lw.run(u)
			return nil
		})
	}
	return g.Wait()
}

// run plans and rewrites one unit. It touches only u and the shared
// memo tables, which are safe for concurrent use.
func (lw *lowering) run(u *unit) {
	span := trace.Begin(lw.tr, trace.ScopeUnit, "unit:"+u.label, lw.root.ID())
	pipeline.Emit(lw.opts.Progress, pipeline.Event{Unit: u.label, Stage: pipeline.StagePlan, Status: pipeline.StatusWorking})
	start := time.Now()

	var finish func() (*rewrite.Output, error)
	switch u.kind {
	case unitClass:
		cp, err := lw.planner.PlanClass(u.class)
		u.err = err
		finish = func() (*rewrite.Output, error) { return lw.rw.Class(cp) }
	default:
		plan, err := lw.planner.PlanFunc(u.fn, u.inst)
		u.err = err
		finish = func() (*rewrite.Output, error) { return lw.rw.Func(plan) }
	}
	if u.err != nil {
		status, note := failStatus(u.err)
		span.End(note)
		pipeline.Emit(lw.opts.Progress, pipeline.Event{Unit: u.label, Stage: pipeline.StagePlan, Status: status, Err: u.err, Elapsed: time.Since(start)})
		return
	}
	pipeline.Emit(lw.opts.Progress, pipeline.Event{Unit: u.label, Stage: pipeline.StagePlan, Status: pipeline.StatusDone, Elapsed: time.Since(start)})

	start = time.Now()
	pipeline.Emit(lw.opts.Progress, pipeline.Event{Unit: u.label, Stage: pipeline.StageRewrite, Status: pipeline.StatusWorking})
	u.out, u.err = finish()
	status, note := pipeline.StatusDone, ""
	if u.err != nil {
		status, note = failStatus(u.err)
	}
	span.End(note)
	pipeline.Emit(lw.opts.Progress, pipeline.Event{Unit: u.label, Stage: pipeline.StageRewrite, Status: status, Err: u.err, Elapsed: time.Since(start)})
}

func failStatus(err error) (pipeline.Status, string) {
	if len(diag.Errors(err)) == 0 && errors.Is(err, diag.ErrPoisoned) {
		return pipeline.StatusDropped, "poisoned"
	}
	return pipeline.StatusError, "failed"
}

// settle reports a finished unit's diagnostics and records its names as
// failed when it produced nothing.
func (lw *lowering) settle(u *unit) {
	if u.err == nil {
		return
	}
	lw.report(u.err)
	lw.markFailed(u.provides)
	if len(diag.Errors(u.err)) == 0 {
		lw.stats.Dropped++
		return
	}
	lw.stats.Failed++
}

package driver

import (
	"xclower/internal/lifetime"
	"xclower/internal/lir"
	"xclower/internal/pipeline"
	"xclower/internal/rewrite"
)

// outputRefs lists the names an output depends on.
func outputRefs(out *rewrite.Output) []string {
	var refs []string
	for _, s := range out.Structs {
		for _, f := range s.Fields {
			refs = append(refs, f.Type.Base())
		}
	}
	for _, g := range out.Globals {
		refs = append(refs, g.Type.Base())
	}
	for _, p := range out.Procs {
		refs = append(refs, p.Refs()...)
	}
	return refs
}

func slotRefs(so rewrite.SlotOutput) []string {
	refs := []string{so.Global.Type.Base()}
	pr := &lir.Proc{Body: so.Init}
	return append(refs, pr.Refs()...)
}

func (lw *lowering) anyFailed(refs []string) bool {
	for _, r := range refs {
		if lw.failed[r] {
			return true
		}
	}
	return false
}

// poison drops, transitively, every unit and static slot that references a
// procedure, aggregate or slot of a failed unit. Dropped units are not
// reported again.
func (lw *lowering) poison() {
	refs := make([][]string, len(lw.units))
	for i, u := range lw.units {
		if !u.failed() {
			refs[i] = outputRefs(u.out)
		}
	}
	slotDropped := make([]bool, len(lw.statics))
	for changed := true; changed; {
		changed = false
		for i, u := range lw.units {
			if u.failed() || !lw.anyFailed(refs[i]) {
				continue
			}
			u.dropped = true
			lw.markFailed(u.provides)
			lw.stats.Dropped++
			pipeline.Emit(lw.opts.Progress, pipeline.Event{Unit: u.label, Stage: pipeline.StageRewrite, Status: pipeline.StatusDropped})
			changed = true
		}
		for i, so := range lw.statics {
			if slotDropped[i] || !lw.anyFailed(slotRefs(so)) {
				continue
			}
			slotDropped[i] = true
			lw.failed[so.Slot.Name] = true
			changed = true
		}
	}
	kept := lw.statics[:0]
	gone := map[string]bool{}
	for i, so := range lw.statics {
		if slotDropped[i] {
			gone[so.Slot.Name] = true
			if so.Slot.Guard != "" {
				gone[so.Slot.Guard] = true
			}
			continue
		}
		kept = append(kept, so)
	}
	lw.statics = kept
	if lw.staticsOut != nil && len(gone) > 0 {
		dirs := lw.staticsOut.Directives[:0]
		for _, d := range lw.staticsOut.Directives {
			if !gone[d.To] {
				dirs = append(dirs, d)
			}
		}
		lw.staticsOut.Directives = dirs
	}
}

// assemble concatenates surviving outputs: classes, the static slots and
// __static_init, procedures, then template instances, each in unit order.
func (lw *lowering) assemble() *lir.Program {
	prog := &lir.Program{}
	seq := 0
	add := func(out *rewrite.Output) {
		prog.Structs = append(prog.Structs, out.Structs...)
		prog.Globals = append(prog.Globals, out.Globals...)
		for _, p := range out.Procs {
			p.Seq = seq
			seq++
		}
		prog.Procs = append(prog.Procs, out.Procs...)
		prog.Directives = append(prog.Directives, out.Directives...)
	}
	emitStatics := func() {
		out := &rewrite.Output{}
		if lw.staticsOut != nil {
			out.Directives = lw.staticsOut.Directives
		}
		var body []*lir.Stmt
		for _, so := range lw.statics {
			out.Globals = append(out.Globals, so.Global)
			body = append(body, so.Init...)
		}
		if lw.rw.StaticInit && !lw.failed[lifetime.StaticInitName] {
			out.Procs = append(out.Procs, rewrite.StaticInitProc(body))
		}
		add(out)
	}

	staticsDone := false
	for _, u := range lw.units {
		if u.kind != unitClass && !staticsDone {
			emitStatics()
			staticsDone = true
		}
		if u.failed() {
			continue
		}
		add(u.out)
		switch u.kind {
		case unitClass:
			lw.stats.Classes++
		case unitInstance:
			lw.stats.Instances++
		}
	}
	if !staticsDone {
		emitStatics()
	}
	lw.stats.Procs = len(prog.Procs)
	return prog
}

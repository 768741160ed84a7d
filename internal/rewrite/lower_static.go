package rewrite

import (
	"xclower/internal/lifetime"
	"xclower/internal/lir"
)

// SlotOutput is the storage and the guarded initialization of one static
// slot. Init is empty for load-time initialized slots.
type SlotOutput struct {
	Slot   *lifetime.StaticSlot
	Global *lir.Global
	Init   []*lir.Stmt
}

// Statics declares the program-wide slots and, when some need code, the
// static initialization procedure running their initializers in plan
// order.
func (rw *Rewriter) Statics(sp *lifetime.StaticPlan) (*Output, []SlotOutput, error) {
	plan := sp.Init
	if plan == nil {
		plan = &lifetime.FuncPlan{Name: lifetime.StaticInitName}
	}
	fl := rw.newFuncLowerer(plan)
	out := &Output{}
	slots := make([]SlotOutput, 0, len(sp.Slots))
	var body []*lir.Stmt
	for _, s := range sp.Slots {
		so := SlotOutput{Slot: s, Global: fl.global(s), Init: fl.guarded(s)}
		slots = append(slots, so)
		out.Globals = append(out.Globals, so.Global)
		body = append(body, so.Init...)
	}
	if sp.Init != nil {
		out.Procs = append(out.Procs, StaticInitProc(body))
	}
	out.Directives = fl.dirs
	return out, slots, fl.err
}

// StaticInitProc wraps guarded slot initializers into __static_init.
func StaticInitProc(body []*lir.Stmt) *lir.Proc {
	return &lir.Proc{
		Name:   lifetime.StaticInitName,
		Kind:   lir.ProcStaticInit,
		Source: "static initialization",
		Result: "void",
		Body:   body,
	}
}

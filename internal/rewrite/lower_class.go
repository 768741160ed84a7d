package rewrite

import (
	"strings"

	"xclower/internal/lifetime"
	"xclower/internal/lir"
)

// Class emits the aggregate of a planned class with its init and cleanup
// procedures.
func (rw *Rewriter) Class(cp *lifetime.ClassPlan) (*Output, error) {
	c := cp.Class
	s := rw.Struct(cp.Layout)
	out := &Output{Structs: []*lir.Struct{s}}
	out.Directives = append(out.Directives, lir.Directive{
		Kind: lir.DirRestructure, From: c.QualifiedName(), To: s.Name, Detail: "struct", Span: c.Span,
	})
	for _, ip := range cp.Inits {
		proc, dirs, err := rw.initProc(cp, ip)
		if err != nil {
			return nil, err
		}
		out.Procs = append(out.Procs, proc)
		out.Directives = append(out.Directives, dirs...)
	}
	if cp.Cleanup != nil {
		proc, dirs, err := rw.cleanupProc(cp)
		if err != nil {
			return nil, err
		}
		out.Procs = append(out.Procs, proc)
		out.Directives = append(out.Directives, dirs...)
	}
	return out, nil
}

func (rw *Rewriter) initProc(cp *lifetime.ClassPlan, ip *lifetime.InitPlan) (*lir.Proc, []lir.Directive, error) {
	fl := rw.newFuncLowerer(ip.Body)
	src := rw.display(ip.Body)
	proc := &lir.Proc{Name: ip.Name, Kind: lir.ProcInit, Source: src, Params: fl.params(), Result: "void"}
	fl.directive(lir.DirRename, src, ip.Name, "init", ip.Ctor.Span)

	if b := ip.Base; b != nil {
		self := lir.Cast(rw.classType(b.Class).Ptr(), fl.self())
		args := append([]*lir.Expr{self}, fl.arguments(b.Call, b.Args)...)
		proc.Body = append(proc.Body, lir.Do(lir.Call(b.Call.Name, "void", args...)))
	}
	for _, m := range ip.Members {
		target := fl.member(m.Name, rw.Type(m.Type))
		if m.Zero {
			proc.Body = append(proc.Body, lir.Do(lir.Assign("=", target, lir.Lit("0", target.Type))))
			continue
		}
		proc.Body = append(proc.Body, fl.initInto(target, &m.Decl)...)
	}
	if len(ip.Written) > 0 {
		var declared []string
		for _, m := range ip.Members {
			for _, w := range ip.Written {
				if w == m.Field.Name {
					declared = append(declared, w)
				}
			}
		}
		fl.directive(lir.DirReorder, strings.Join(ip.Written, ", "), strings.Join(declared, ", "), cp.Class.QualifiedName(), ip.Ctor.Span)
	}
	if ip.Ctor.Body != nil {
		proc.Body = append(proc.Body, fl.block(ip.Ctor.Body)...)
	} else {
		proc.Body = append(proc.Body, fl.cleanups(ip.Body.Owned, ip.Ctor.Span)...)
	}
	return proc, fl.dirs, fl.err
}

// cleanupProc runs the destructor body, then member cleanups in reverse
// declaration order, then the base cleanup. Classes without a destructor
// still get the procedure so every object can be cleaned up uniformly.
func (rw *Rewriter) cleanupProc(cp *lifetime.ClassPlan) (*lir.Proc, []lir.Directive, error) {
	cl := cp.Cleanup
	self := rw.classType(cp.Class).Ptr()
	plan := cl.Body
	if plan == nil {
		plan = &lifetime.FuncPlan{Name: cl.Name, Class: cp.Class}
	}
	fl := rw.newFuncLowerer(plan)
	fl.selfType = self
	proc := &lir.Proc{
		Name:   cl.Name,
		Kind:   lir.ProcCleanup,
		Source: cp.Class.QualifiedName() + "::~" + cp.Class.Name + "()",
		Params: []lir.Param{{Name: "self", Type: self}},
		Result: "void",
	}
	span := cp.Class.Span
	if cl.Body != nil {
		span = cl.Body.Func.Span
		proc.Body = append(proc.Body, fl.block(cl.Body.Func.Body)...)
		if cl.Body.Returns {
			proc.Body = append(proc.Body, lir.Label(lifetime.MemberCleanupLabel))
		}
	}
	fl.directive(lir.DirRename, proc.Source, cl.Name, "cleanup", span)
	for _, m := range cl.Members {
		obj := fl.member(m.Name, rw.classType(m.Class))
		proc.Body = append(proc.Body, lir.Do(lir.Call(m.Cleanup, "void", lir.AddrOf(obj))))
	}
	if base := rw.Table.Base(cp.Class); base != nil && cl.Base != "" {
		proc.Body = append(proc.Body, lir.Do(lir.Call(cl.Base, "void", lir.Cast(rw.classType(base).Ptr(), fl.self()))))
	}
	return proc, fl.dirs, fl.err
}

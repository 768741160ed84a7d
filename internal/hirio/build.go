package hirio

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"xclower/internal/diag"
	"xclower/internal/hir"
	"xclower/internal/source"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// Build turns doc into a symbol table over a fresh interner. Declarations
// that fail to convert are left out; their errors are joined into the
// returned error, which callers treat as fatal for the run.
func Build(doc *Document, model types.DataModel) (*symbols.Table, error) {
	tab := symbols.NewTable(types.NewInterner(model), FileSet(doc))
	l := &loader{tab: tab, in: tab.Types, files: len(doc.Files)}
	l.load(doc)
	return l.tab, errors.Join(l.errs...)
}

// FileSet registers the document's files in order, so FileID i is
// doc.Files[i].
func FileSet(doc *Document) *source.FileSet {
	files := source.NewFileSet()
	for _, f := range doc.Files {
		if f.Content != "" {
			files.Add(f.Path, []byte(f.Content), source.FileVirtual)
		} else {
			files.AddPath(f.Path)
		}
	}
	return files
}

type loader struct {
	tab   *symbols.Table
	in    *types.Interner
	files int
	errs  []error
	// failed counts errors of the declaration being converted
	failed int
}

// scope is what names resolve against inside one declaration.
type scope struct {
	ns     []string
	class  *symbols.Class
	params []symbols.TemplateParam
}

func (sc *scope) templateParam(name string) (symbols.TemplateParam, bool) {
	for _, p := range sc.params {
		if p.Name == name {
			return p, true
		}
	}
	if sc.class != nil {
		for _, p := range sc.class.TemplateParams {
			if p.Name == name {
				return p, true
			}
		}
	}
	return symbols.TemplateParam{}, false
}

func (l *loader) failf(code diag.Code, sp source.Span, format string, args ...any) {
	l.errs = append(l.errs, diag.Errorf(code, sp, format, args...))
	l.failed++
}

func (l *loader) span(s Span) source.Span {
	if l.files > 0 {
		if n, err := safecast.Conv[int](s.File); err != nil || n >= l.files {
			l.failf(diag.InputMalformed, source.Span{}, "span refers to file %d of %d", s.File, l.files)
			return source.Span{}
		}
	}
	if s.End < s.Start {
		l.failf(diag.InputMalformed, source.Span{File: source.FileID(s.File), Start: s.Start, End: s.Start}, "span ends before it starts")
		return source.Span{File: source.FileID(s.File), Start: s.Start, End: s.Start}
	}
	return source.Span{File: source.FileID(s.File), Start: s.Start, End: s.End}
}

func (l *loader) typ(spelling string, sc *scope, sp source.Span) types.TypeID {
	if spelling == "" {
		return l.in.Builtins().Void
	}
	id, err := l.in.Parse(spelling, func(name string) (types.TypeID, bool) {
		if _, ok := sc.templateParam(name); ok {
			return l.in.Param(name), true
		}
		cid, ok := l.tab.LookupClass(name, sc.ns)
		if !ok {
			return types.NoTypeID, false
		}
		return l.in.Class(l.tab.Class(cid).QualifiedName()), true
	})
	if err != nil {
		l.failf(diag.InputBadType, sp, "%v", err)
		return types.NoTypeID
	}
	return id
}

func (l *loader) templateParams(ps []TemplateParam, sc *scope, sp source.Span) []symbols.TemplateParam {
	var out []symbols.TemplateParam
	for _, p := range ps {
		tp := symbols.TemplateParam{Name: p.Name}
		if p.Type != "" {
			tp.IsValue = true
			tp.Type = l.typ(p.Type, sc, sp)
		}
		out = append(out, tp)
	}
	return out
}

// load registers classes first so member types may name any of them, then
// globals and functions.
func (l *loader) load(doc *Document) {
	classes := make([]*symbols.Class, len(doc.Classes))
	for i := range doc.Classes {
		wc := &doc.Classes[i]
		c := &symbols.Class{
			Name:        wc.Name,
			Scope:       wc.Scope,
			BaseNames:   wc.Bases,
			VirtualBase: wc.VirtualBase,
			Span:        l.span(wc.Span),
		}
		if wc.Name == "" {
			l.failf(diag.InputMalformed, c.Span, "class without a name")
			continue
		}
		if _, dup := l.tab.ClassByName(c.QualifiedName()); dup {
			l.failf(diag.InputMalformed, c.Span, "class %s declared twice", c.QualifiedName())
			continue
		}
		l.tab.AddClass(c)
		classes[i] = c
	}
	l.tab.ResolveBases()

	for i, c := range classes {
		if c != nil {
			l.members(c, &doc.Classes[i])
		}
	}
	for i := range doc.Globals {
		l.global(&doc.Globals[i])
	}
	for i, c := range classes {
		if c == nil {
			continue
		}
		for j := range doc.Classes[i].Methods {
			l.function(&doc.Classes[i].Methods[j], c)
		}
	}
	for i := range doc.Functions {
		l.function(&doc.Functions[i], nil)
	}
	for _, c := range classes {
		if c != nil {
			l.tab.EnsureImplicitCtor(c)
		}
	}
}

func (l *loader) members(c *symbols.Class, wc *Class) {
	sc := &scope{ns: c.Scope, class: c}
	c.TemplateParams = l.templateParams(wc.TemplateParams, sc, c.Span)
	for i := range wc.Fields {
		v := &wc.Fields[i]
		sp := l.span(v.Span)
		if c.HasMember(v.Name) {
			l.failf(diag.InputMalformed, sp, "%s declares %s twice", c.QualifiedName(), v.Name)
			continue
		}
		f := symbols.Field{Name: v.Name, Type: l.typ(v.Type, sc, sp), Span: sp}
		if v.Init != nil {
			f.Init = l.expr(v.Init, sc)
		}
		c.Fields = append(c.Fields, f)
	}
	for i := range wc.Statics {
		v := &wc.Statics[i]
		sp := l.span(v.Span)
		if c.HasMember(v.Name) {
			l.failf(diag.InputMalformed, sp, "%s declares %s twice", c.QualifiedName(), v.Name)
			continue
		}
		c.Statics = append(c.Statics, l.static(v, sc, sp))
	}
}

func (l *loader) static(v *Variable, sc *scope, sp source.Span) symbols.Static {
	s := symbols.Static{Name: v.Name, Type: l.typ(v.Type, sc, sp), Direct: v.Direct, Span: sp}
	if v.Init != nil {
		s.Init = l.expr(v.Init, sc)
	}
	s.Args = l.exprs(v.Args, sc)
	if len(s.Args) > 0 {
		s.Direct = true
	}
	return s
}

func (l *loader) global(v *Variable) {
	l.failed = 0
	sp := l.span(v.Span)
	sc := &scope{ns: v.Scope}
	g := &symbols.Global{Scope: v.Scope, Static: l.static(v, sc, sp)}
	if _, dup := l.tab.LookupGlobal(symbols.Qualify(v.Scope, v.Name), nil); dup {
		l.failf(diag.InputMalformed, sp, "global %s declared twice", g.QualifiedName())
	}
	if l.failed == 0 {
		l.tab.AddGlobal(g)
	}
}

func funcKind(k string, inClass bool) (symbols.FuncKind, error) {
	switch k {
	case "":
		if inClass {
			return symbols.FuncMethod, nil
		}
		return symbols.FuncFree, nil
	case KindFunction:
		if inClass {
			return symbols.FuncStatic, nil
		}
		return symbols.FuncFree, nil
	case KindMethod:
		return symbols.FuncMethod, nil
	case KindStatic:
		return symbols.FuncStatic, nil
	case KindCtor:
		return symbols.FuncCtor, nil
	case KindDtor:
		return symbols.FuncDtor, nil
	}
	return symbols.FuncFree, fmt.Errorf("unknown function kind %q", k)
}

func (l *loader) function(wf *Func, c *symbols.Class) {
	l.failed = 0
	sp := l.span(wf.Span)
	kind, err := funcKind(wf.Kind, c != nil)
	if err != nil {
		l.failf(diag.InputMalformed, sp, "%v", err)
		return
	}
	if c == nil && kind != symbols.FuncFree {
		l.failf(diag.InputMalformed, sp, "%s %s outside a class", kind, wf.Name)
		return
	}
	f := &symbols.Func{
		Name:     wf.Name,
		Operator: wf.Operator,
		Postfix:  wf.Postfix,
		Kind:     kind,
		Scope:    wf.Scope,
		Virtual:  wf.Virtual,
		Const:    wf.Const,
		Span:     sp,
	}
	sc := &scope{ns: wf.Scope}
	if c != nil {
		f.Class = c.ID
		f.Scope = c.Scope
		sc = &scope{ns: c.Scope, class: c}
	}
	switch {
	case kind == symbols.FuncCtor:
		f.Name = c.Name
	case kind == symbols.FuncDtor:
		f.Name = "~" + c.Name
	case f.Operator != "" && f.Name == "":
		f.Name = "operator" + f.Operator
	case f.Name == "":
		l.failf(diag.InputMalformed, sp, "function without a name")
		return
	}
	f.TemplateParams = l.templateParams(wf.TemplateParams, sc, sp)
	sc.params = f.TemplateParams

	for _, p := range wf.Params {
		psp := l.span(p.Span)
		f.Params = append(f.Params, symbols.Param{Name: p.Name, Type: l.typ(p.Type, sc, psp), Span: psp})
	}
	if kind == symbols.FuncCtor || kind == symbols.FuncDtor {
		f.Result = l.in.Builtins().Void
	} else {
		f.Result = l.typ(wf.Result, sc, sp)
	}
	l.stripPostfixDummy(f)

	if wf.BaseInit != nil {
		f.BaseInit = l.initializer(wf.BaseInit, sc)
	}
	for i := range wf.MemberInits {
		f.MemberInits = append(f.MemberInits, *l.initializer(&wf.MemberInits[i], sc))
	}
	if (f.BaseInit != nil || len(f.MemberInits) > 0) && kind != symbols.FuncCtor {
		l.failf(diag.InputMalformed, sp, "initializer list on %s %s", kind, f.Name)
	}
	if wf.Body != nil {
		f.Body = l.block(wf.Body, sc)
	}
	if kind == symbols.FuncDtor && c.Dtor.IsValid() {
		l.failf(diag.InputMalformed, sp, "%s has two destructors", c.QualifiedName())
	}
	if l.failed == 0 {
		l.tab.AddFunc(f)
	}
}

// stripPostfixDummy drops the int parameter that only tells postfix ++/--
// apart from the prefix form.
func (l *loader) stripPostfixDummy(f *symbols.Func) {
	if f.Operator != "++" && f.Operator != "--" {
		return
	}
	want := 2
	if f.Kind == symbols.FuncMethod {
		want = 1
	}
	n := len(f.Params)
	if n == want && l.in.Unqualified(f.Params[n-1].Type) == l.in.Builtins().Int {
		f.Params = f.Params[:n-1]
		f.Postfix = true
	}
}

func (l *loader) initializer(wi *Initializer, sc *scope) *hir.Initializer {
	return &hir.Initializer{Name: wi.Name, Args: l.exprs(wi.Args, sc), Span: l.span(wi.Span)}
}

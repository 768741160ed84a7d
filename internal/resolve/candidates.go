package resolve

import (
	"slices"
	"strconv"
	"strings"

	"xclower/internal/symbols"
)

type candidate struct {
	fn *symbols.Func
	// receiverArg marks member operators: the first operand is the object.
	receiverArg bool
	implicit    bool
}

// memberSet collects name from the class chain starting at start. A base
// member whose signature a more derived member already declares is hidden.
func (r *Resolver) memberSet(start symbols.ClassID, name string) []*symbols.Func {
	var out []*symbols.Func
	seenSig := map[string]bool{}
	seenClass := map[symbols.ClassID]bool{}
	for c := r.Table.Class(start); c != nil && !seenClass[c.ID]; c = r.Table.Base(c) {
		seenClass[c.ID] = true
		var here []*symbols.Func
		for _, id := range r.Table.Overloads(c.QualifiedName() + "::" + name) {
			f := r.Table.Func(id)
			if f == nil || seenSig[signature(f)] {
				continue
			}
			here = append(here, f)
		}
		for _, f := range here {
			seenSig[signature(f)] = true
		}
		out = append(out, here...)
	}
	return out
}

func signature(f *symbols.Func) string {
	var b strings.Builder
	for i, p := range f.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(p.Type), 10))
	}
	if f.Postfix {
		b.WriteString("|post")
	}
	return b.String()
}

// namespaceSet searches the enclosing namespaces of scope, innermost first,
// and returns the first non-empty overload set of name.
func (r *Resolver) namespaceSet(scope []string, name string) []*symbols.Func {
	for i := len(scope); i >= 0; i-- {
		ids := r.Table.Overloads(symbols.Qualify(scope[:i], name))
		if len(ids) == 0 {
			continue
		}
		out := make([]*symbols.Func, 0, len(ids))
		for _, id := range ids {
			if f := r.Table.Func(id); f != nil && !f.Class.IsValid() {
				out = append(out, f)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func callerScope(f *symbols.Func) []string {
	if f == nil {
		return nil
	}
	return f.Scope
}

func (r *Resolver) callerClass(f *symbols.Func) symbols.ClassID {
	if f == nil {
		return symbols.NoClassID
	}
	return f.Class
}

func (r *Resolver) candidates(site *CallSite) []candidate {
	switch site.Kind {
	case CallFree:
		return r.freeCandidates(site)
	case CallMethod:
		return r.methodCandidates(site)
	case CallOperator:
		return r.operatorCandidates(site)
	case CallCtor:
		c := r.Table.Class(site.Class)
		if c == nil {
			return nil
		}
		out := make([]candidate, 0, len(c.Ctors))
		for _, id := range c.Ctors {
			if f := r.Table.Func(id); f != nil {
				out = append(out, candidate{fn: f})
			}
		}
		return out
	}
	return nil
}

func (r *Resolver) freeCandidates(site *CallSite) []candidate {
	scope := callerScope(site.Caller)
	if len(site.Scope) > 0 {
		q := strings.Join(site.Scope, "::")
		if cid, ok := r.Table.LookupClass(q, scope); ok {
			return r.wrapMembers(r.memberSet(cid, site.Name), site, true)
		}
		return wrapFree(r.namespaceSet(scope, symbols.Qualify(site.Scope, site.Name)))
	}
	if cls := r.callerClass(site.Caller); cls.IsValid() {
		if set := r.memberSet(cls, site.Name); len(set) > 0 {
			return r.wrapMembers(set, site, true)
		}
	}
	return wrapFree(r.namespaceSet(scope, site.Name))
}

func (r *Resolver) wrapMembers(set []*symbols.Func, site *CallSite, implicit bool) []candidate {
	out := make([]candidate, 0, len(set))
	for _, f := range set {
		out = append(out, candidate{fn: f, implicit: implicit && f.HasReceiver()})
	}
	return out
}

func wrapFree(set []*symbols.Func) []candidate {
	out := make([]candidate, 0, len(set))
	for _, f := range set {
		out = append(out, candidate{fn: f})
	}
	return out
}

func (r *Resolver) methodCandidates(site *CallSite) []candidate {
	c := r.Table.ClassOfType(site.Receiver)
	if c == nil {
		return nil
	}
	start := c.ID
	if site.Qualifier != "" {
		id, ok := r.Table.LookupClass(site.Qualifier, c.Scope)
		if !ok {
			return nil
		}
		start = id
	}
	return r.wrapMembers(r.memberSet(start, site.Name), site, false)
}

func (r *Resolver) operatorCandidates(site *CallSite) []candidate {
	if len(site.Args) == 0 {
		return nil
	}
	name := "operator" + site.Name
	var out []candidate
	if c := r.Table.ClassOfType(site.Args[0].Type); c != nil {
		for _, f := range r.memberSet(c.ID, name) {
			if len(f.Params) == len(site.Args)-1 && f.Postfix == site.Postfix {
				out = append(out, candidate{fn: f, receiverArg: true})
			}
		}
	}
	free := r.namespaceSet(callerScope(site.Caller), name)
	// operand classes contribute the operators of their own namespaces
	for _, a := range site.Args {
		if c := r.Table.ClassOfType(a.Type); c != nil {
			free = append(free, r.namespaceSet(c.Scope, name)...)
		}
	}
	seen := map[symbols.FuncID]bool{}
	for _, f := range free {
		if seen[f.ID] || len(f.Params) != len(site.Args) || f.Postfix != site.Postfix {
			continue
		}
		seen[f.ID] = true
		out = append(out, candidate{fn: f})
	}
	slices.SortStableFunc(out, func(a, b candidate) int { return int(a.fn.ID) - int(b.fn.ID) })
	return out
}

package types

// Subst maps template parameter names to the concrete types of one
// instantiation.
type Subst struct {
	Types *Interner
	Args  map[string]TypeID
}

// NewSubst builds a substitution over in.
func NewSubst(in *Interner, args map[string]TypeID) *Subst {
	return &Subst{Types: in, Args: args}
}

// Type applies the substitution. Unbound parameters are left in place.
func (s *Subst) Type(id TypeID) TypeID {
	if s == nil || s.Types == nil || len(s.Args) == 0 || id == NoTypeID {
		return id
	}
	tt, ok := s.Types.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindParam:
		repl, ok := s.Args[tt.Name]
		if !ok || repl == NoTypeID {
			return id
		}
		if tt.Const {
			return s.Types.WithConst(repl, true)
		}
		return repl
	case KindPointer, KindReference, KindArray:
		elem := s.Type(tt.Elem)
		if elem == tt.Elem {
			return id
		}
		clone := tt
		clone.Elem = elem
		return s.Types.Intern(clone)
	}
	return id
}

// ContainsParam reports whether id mentions a template type parameter.
func (in *Interner) ContainsParam(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindParam:
		return true
	case KindPointer, KindReference, KindArray:
		return in.ContainsParam(tt.Elem)
	}
	return false
}

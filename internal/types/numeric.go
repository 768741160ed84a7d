package types

// Widens reports a value-preserving implicit conversion from one numeric
// type to another distinct numeric type: integer promotion, bool to integer,
// integer to floating point and float to double.
func (in *Interner) Widens(from, to TypeID) bool {
	f, ok := in.Lookup(in.Unqualified(from))
	if !ok {
		return false
	}
	t, ok := in.Lookup(in.Unqualified(to))
	if !ok {
		return false
	}
	switch {
	case f.Kind == KindBool:
		return t.Kind.IsInteger() || t.Kind == KindFloat
	case f.Kind == KindInt && t.Kind == KindInt:
		return t.Width >= f.Width
	case f.Kind == KindUint && t.Kind == KindUint:
		return t.Width >= f.Width
	case f.Kind == KindUint && t.Kind == KindInt:
		return t.Width > f.Width
	case f.Kind.IsInteger() && t.Kind == KindFloat:
		return true
	case f.Kind == KindFloat && t.Kind == KindFloat:
		return t.Width >= f.Width
	}
	return false
}

// LiteralFits reports whether the integer literal v is representable in to.
func (in *Interner) LiteralFits(v int64, to TypeID) bool {
	t, ok := in.Lookup(in.Unqualified(to))
	if !ok {
		return false
	}
	switch t.Kind {
	case KindFloat:
		return true
	case KindInt:
		if t.Width >= Width64 {
			return true
		}
		limit := int64(1) << (t.Width - 1)
		return v >= -limit && v < limit
	case KindUint:
		if v < 0 {
			return false
		}
		if t.Width >= Width64 {
			return true
		}
		return v < int64(1)<<t.Width
	}
	return false
}

// SizeOf returns the storage size in bytes of a scalar or pointer type.
// Classes are sized by the layout package.
func (in *Interner) SizeOf(id TypeID) uint32 {
	tt, ok := in.Lookup(id)
	if !ok {
		return 0
	}
	switch tt.Kind {
	case KindBool:
		return 1
	case KindInt, KindUint, KindFloat:
		return uint32(tt.Width) / 8
	case KindPointer, KindReference:
		return uint32(in.model.PointerWidth) / 8
	case KindArray:
		return tt.Count * in.SizeOf(tt.Elem)
	}
	return 0
}

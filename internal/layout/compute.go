package layout

import (
	"xclower/internal/types"
)

// SizeOf returns size and alignment of any member type on the target.
func (e *Engine) SizeOf(t types.TypeID) (size, align int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, a, le := e.sizeOf(t, newLayoutState())
	if le != nil {
		return 0, 1, le
	}
	return s, a, nil
}

func (e *Engine) sizeOf(t types.TypeID, state *layoutState) (size, align int, err *LayoutError) {
	in := e.Table.Types
	tt, ok := in.Lookup(t)
	if !ok {
		return 0, 1, nil
	}
	switch tt.Kind {
	case types.KindPointer, types.KindReference:
		return e.scalar(e.Target.PtrSize)
	case types.KindArray:
		es, ea, err := e.sizeOf(tt.Elem, state)
		if err != nil {
			return 0, 1, err
		}
		return roundUp(es, ea) * int(tt.Count), ea, nil
	case types.KindClass:
		c := e.Table.ClassOfType(t)
		if c == nil {
			return 0, 1, nil
		}
		l, err := e.flatten(c.ID, state, false)
		if err != nil {
			return 0, 1, err
		}
		return l.Size, l.Align, nil
	}
	return e.scalar(int(in.SizeOf(t)))
}

func (e *Engine) scalar(size int) (int, int, *LayoutError) {
	if size <= 0 {
		return 0, 1, nil
	}
	return size, min(size, max(e.Target.MaxAlign, 1)), nil
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

package layout

import (
	"fmt"
	"strings"

	"xclower/internal/diag"
	"xclower/internal/symbols"
)

// LayoutErrorKind enumerates reasons a class cannot be flattened.
type LayoutErrorKind uint8

const (
	LayoutErrInheritanceCycle LayoutErrorKind = iota + 1
	LayoutErrMultipleBases
	LayoutErrVirtualBase
	LayoutErrVirtualDispatch
	LayoutErrClassTemplate
	LayoutErrUnknownBase
	LayoutErrRecursiveValue
	// LayoutErrPoisoned marks a class whose base (or by-value member class)
	// failed on its own.
	LayoutErrPoisoned
)

// LayoutError represents an error during flattening.
type LayoutError struct {
	Kind  LayoutErrorKind
	Class symbols.ClassID
	Cycle []string // qualified class names, first == last
	Diag  *diag.Error
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Kind == LayoutErrPoisoned {
		return fmt.Sprintf("class#%d: %v", e.Class, diag.ErrPoisoned)
	}
	if e.Diag != nil {
		return e.Diag.Error()
	}
	return fmt.Sprintf("layout error kind=%d class#%d", e.Kind, e.Class)
}

// Unwrap exposes the located diagnostic, or ErrPoisoned.
func (e *LayoutError) Unwrap() error {
	if e.Kind == LayoutErrPoisoned {
		return diag.ErrPoisoned
	}
	return e.Diag
}

func (e *Engine) fail(kind LayoutErrorKind, c *symbols.Class, code diag.Code, format string, args ...any) *LayoutError {
	return &LayoutError{
		Kind:  kind,
		Class: c.ID,
		Diag:  diag.Errorf(code, c.Span, format, args...),
	}
}

func (e *Engine) cycleError(c *symbols.Class, cycle []symbols.ClassID) *LayoutError {
	names := make([]string, 0, len(cycle))
	for _, id := range cycle {
		names = append(names, e.Table.Class(id).QualifiedName())
	}
	le := e.fail(LayoutErrInheritanceCycle, c, diag.LowInheritanceCycle,
		"class %s inherits from itself: %s", c.QualifiedName(), strings.Join(names, " -> "))
	le.Cycle = names
	for _, id := range cycle[1 : len(cycle)-1] {
		other := e.Table.Class(id)
		le.Diag.WithNote(other.Span, other.QualifiedName()+" is part of the cycle")
	}
	return le
}

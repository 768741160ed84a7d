package diag

import (
	"errors"
	"fmt"

	"xclower/internal/source"
)

// Error carries a located diagnostic through ordinary error returns.
// Lowering components fail with *Error; the driver unwraps it into a Bag.
type Error struct {
	Diag Diagnostic
}

// Errorf builds an error-severity diagnostic.
func Errorf(code Code, sp source.Span, format string, args ...any) *Error {
	return &Error{Diag: NewError(code, sp, fmt.Sprintf(format, args...))}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Diag.Code.Name(), e.Diag.Message)
}

// Code returns the taxonomy code of the error.
func (e *Error) Code() Code {
	return e.Diag.Code
}

// WithNote attaches a secondary location.
func (e *Error) WithNote(sp source.Span, msg string) *Error {
	e.Diag = e.Diag.WithNote(sp, msg)
	return e
}

// Report forwards the diagnostic to r.
func (e *Error) Report(r Reporter) {
	if e == nil || r == nil {
		return
	}
	r.Report(e.Diag.Code, e.Diag.Severity, e.Diag.Primary, e.Diag.Message, e.Diag.Notes)
}

// AsError unwraps err into *Error.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the taxonomy code carried by err, or UnknownCode.
func CodeOf(err error) Code {
	if de, ok := AsError(err); ok {
		return de.Code()
	}
	return UnknownCode
}

// ErrPoisoned marks failures caused by an earlier failure that has already
// been reported (a derived class of a broken base, a caller of a dropped
// procedure). The driver drops such units without a second diagnostic.
var ErrPoisoned = errors.New("depends on a failed declaration")

// Errors flattens err, including errors.Join trees, into the located
// diagnostics it carries, in order. Other errors are skipped.
func Errors(err error) []*Error {
	if err == nil {
		return nil
	}
	if de, ok := err.(*Error); ok {
		return []*Error{de}
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*Error
		for _, e := range multi.Unwrap() {
			out = append(out, Errors(e)...)
		}
		return out
	}
	if de, ok := AsError(err); ok {
		return []*Error{de}
	}
	return nil
}

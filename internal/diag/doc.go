// Package diag defines the diagnostic model shared by every lowering phase.
//
// Diagnostic is the central record: severity, a compact numeric Code (see
// codes.go for the taxonomy and its stable string forms), a short message, the
// primary source.Span and optional notes pointing at related declarations.
//
// Lowering components do not write diagnostics themselves. They fail with a
// located *Error, and the driver turns each failed unit's error into a Bag
// entry. Phases that need to emit several findings use a Reporter (BagReporter,
// DedupReporter) and a ReportBuilder.
//
// The package does no formatting beyond FormatShort, which exists for tests
// and the CLI's short mode; colored and JSON output live in internal/diagfmt.
package diag

// Package trace records what the lowering does and how long it takes.
//
// Tracing is off by default and costs one interface call per event when
// disabled. Enable it from the CLI:
//
//	xclower lower --trace=- --trace-level=phase program.json
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: reserved for failure reports
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: one event per lowering unit
//   - LevelDebug: everything, including each resolved call
//
// # Scopes
//
//   - ScopeDriver: top-level CLI operations
//   - ScopePass: layout, plan, rewrite, instance rounds
//   - ScopeUnit: one class, function or template instance
//   - ScopeNode: single call sites
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "layout", parentID)
//	defer span.End("")
package trace

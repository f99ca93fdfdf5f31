// Package trace records spans of work done by shadec: loading dialect
// tables, checking manifests, and resolving individual calls.
//
// # Usage
//
//	shadec check calls.yaml --trace=- --trace-level=detail
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: ring buffer only, dumped when a command fails
//   - LevelPhase: driver and table-loading spans
//   - LevelDetail: one span per overload lookup
//   - LevelDebug: one span per candidate overload
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeDriver, "check", 0)
//	defer span.End("")
package trace

// Package trace records what the safety layer does over time: parallel
// regions opening and closing, passes running over root operations, handles
// being invalidated and calls being refused.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	irguard stress --trace=- --trace-level=detail
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer, dumped when a run fails
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only refused calls
//   - LevelPhase: context lifecycle and parallel regions
//   - LevelDetail: pass executions
//   - LevelDebug: every invalidated handle
//
// # Scopes
//
//   - ScopeContext: context lifecycle and policy changes
//   - ScopeRegion: parallel regions and subtree claims
//   - ScopePass: one pass over one root operation
//   - ScopeHandle: invalidations
//
// Violations are emitted as points with Error set, so they pass every level
// above LevelOff.
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "pass:annotate", parentID)
//	defer span.End("")
package trace

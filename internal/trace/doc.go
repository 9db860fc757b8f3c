// Package trace records what the flux driver is doing: passes, packages
// and individual declarations.
//
// Enable tracing from the command line:
//
//	flux check --trace=- --trace-level=detail flux.toml
//
// Tracers:
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes every event immediately (text or NDJSON)
//   - RingTracer: keeps the last N events for a dump after a failure
//   - MultiTracer: fans out to several tracers
//
// Levels select scopes: phase emits driver and pass spans, detail adds
// per-package spans and debug adds per-declaration spans.
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "check", 0)
//	defer span.End("")
package trace

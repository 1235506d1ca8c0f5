// Package parser turns a provisioning-tool debug log into a trace.Trace.
//
// The parser is a single-pass state machine over log lines. Each well-formed
// line has the shape
//
//	2023-10-27T10:30:00.123Z [DEBUG] provider.stdio: grpc: SERVER_US: /plugin.Provider/ReadResource body={...}
//
// and is dispatched by its source tag:
//
//   - provider.stdio: provider RPC correlation (request/response pairing per method)
//   - provider-*: ProviderHandler extension point (no-op by default)
//   - http.Tracer: HTTP correlation (request/response pairing per "METHOD URL")
//   - anything else: core log handling (resource-operation start markers)
//
// Phase transitions are driven by a marker table (PhaseMarker) checked against
// every well-formed line before dispatch.
//
// # State
//
// A Parser owns its cross-line state: the open phase, the current resource
// operation and FIFO queues of requests waiting for their response. Parsers
// share nothing, so independent inputs can be parsed concurrently with one
// Parser each.
//
// # Failure Semantics
//
//   - Lines not matching the log shape are skipped (Stats.SkippedLines)
//   - Responses with no pending request are dropped (Stats.UnmatchedResponses)
//   - Completed calls with no current resource are dropped (Stats.OrphanEvents)
//   - Malformed embedded bodies decode to an empty object (Stats.MalformedBodies)
//   - Requests still pending at end of input are discarded (Stats.PendingDiscarded)
//
// Only I/O errors from the underlying reader are returned.
package parser

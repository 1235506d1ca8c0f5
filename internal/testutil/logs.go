package testutil

import (
	"fmt"
	"io"
	"strings"
)

// Source tags used by the builder. They mirror the tags the parser dispatches on.
const (
	SourceCore        = "terraform"
	SourceProviderRPC = "provider.stdio"
	SourceHTTPTracer  = "http.Tracer"
)

// LogBuilder assembles provisioning-tool debug logs line by line.
//
// Example:
//
//	logs := testutil.NewLogBuilder().
//	    Core("backend/local: starting plan operation").
//	    Core(`Applied resource "aws_instance.foo"`).
//	    RPCRequest("/plugin.Provider/ApplyResourceChange", `{"id":"1"}`).
//	    RPCResponse("/plugin.Provider/ApplyResourceChange", `{"id":"1","status":"ok"}`).
//	    Core("Apply complete! Resources: 1 added, 0 changed, 0 destroyed.").
//	    String()
type LogBuilder struct {
	clock *DeterministicClock
	lines []string
}

// NewLogBuilder creates a builder with a fresh deterministic clock.
func NewLogBuilder() *LogBuilder {
	return &LogBuilder{clock: NewDeterministicClock()}
}

// Line appends a well-formed line with an explicit level and source tag.
func (b *LogBuilder) Line(level, source, message string) *LogBuilder {
	b.lines = append(b.lines, fmt.Sprintf("%s [%s] %s: %s", b.clock.Next(), level, source, message))
	return b
}

// Raw appends a line verbatim (for malformed input).
func (b *LogBuilder) Raw(line string) *LogBuilder {
	b.lines = append(b.lines, line)
	return b
}

// Core appends a core tool line.
func (b *LogBuilder) Core(message string) *LogBuilder {
	return b.Line("INFO", SourceCore, message)
}

// PlanStart appends the plan phase marker.
func (b *LogBuilder) PlanStart() *LogBuilder {
	return b.Core("backend/local: starting plan operation")
}

// ApplyComplete appends the apply completion marker.
func (b *LogBuilder) ApplyComplete() *LogBuilder {
	return b.Core("Apply complete! Resources: 1 added, 0 changed, 0 destroyed.")
}

// Resource appends a resource-operation start marker.
func (b *LogBuilder) Resource(address string) *LogBuilder {
	return b.Core(fmt.Sprintf("Applied resource %q", address))
}

// RPCRequest appends a provider RPC request line.
func (b *LogBuilder) RPCRequest(method, body string) *LogBuilder {
	return b.Line("DEBUG", SourceProviderRPC, fmt.Sprintf("grpc: SERVER_US: %s body=%s", method, body))
}

// RPCResponse appends a provider RPC response line.
func (b *LogBuilder) RPCResponse(method, body string) *LogBuilder {
	return b.Line("DEBUG", SourceProviderRPC, fmt.Sprintf("grpc: CLIENT_US: %s body=%s", method, body))
}

// RPCCall appends a request immediately followed by its response.
func (b *LogBuilder) RPCCall(method, request, response string) *LogBuilder {
	return b.RPCRequest(method, request).RPCResponse(method, response)
}

// HTTPRequest appends an HTTP tracer request line.
func (b *LogBuilder) HTTPRequest(method, url, headers, body string) *LogBuilder {
	return b.Line("DEBUG", SourceHTTPTracer,
		fmt.Sprintf("HTTP Request: %s %s headers=%s body=%s", method, url, headers, body))
}

// HTTPResponse appends an HTTP tracer response line.
func (b *LogBuilder) HTTPResponse(method, url string, status int, headers, body string) *LogBuilder {
	return b.Line("DEBUG", SourceHTTPTracer,
		fmt.Sprintf("HTTP Response: %s %s status=%d headers=%s body=%s", method, url, status, headers, body))
}

// Lines returns the lines built so far.
func (b *LogBuilder) Lines() []string {
	return append([]string(nil), b.lines...)
}

// String returns the log as newline-terminated text.
func (b *LogBuilder) String() string {
	if len(b.lines) == 0 {
		return ""
	}
	return strings.Join(b.lines, "\n") + "\n"
}

// Reader returns the log as an io.Reader.
func (b *LogBuilder) Reader() io.Reader {
	return strings.NewReader(b.String())
}

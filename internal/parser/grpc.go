package parser

import (
	"regexp"

	"github.com/roach88/tftrace/internal/trace"
)

// Provider RPC directions as they appear in provider.stdio lines.
const (
	rpcRequest  = "SERVER_US"
	rpcResponse = "CLIENT_US"
)

// rpcPattern matches "grpc: <direction>: <method> body=<json>"; the body is optional.
var rpcPattern = regexp.MustCompile(
	`^grpc:\s+(?P<direction>` + rpcRequest + `|` + rpcResponse + `):\s+` +
		`(?P<method>/[\w.]+/\w+)(?:\s+body=(?P<body>.*))?$`,
)

var (
	rpcDirectionIdx = rpcPattern.SubexpIndex("direction")
	rpcMethodIdx    = rpcPattern.SubexpIndex("method")
	rpcBodyIdx      = rpcPattern.SubexpIndex("body")
)

// handleRPC pairs provider RPC requests and responses by method, FIFO.
func (p *Parser) handleRPC(line LogLine) {
	match := rpcPattern.FindStringSubmatch(line.Message)
	if match == nil {
		return
	}

	method := match[rpcMethodIdx]
	payload, ok := decodeBody(match[rpcBodyIdx])
	if !ok {
		p.stats.MalformedBodies++
		p.logger.Debug("malformed rpc body", "method", method)
	}

	switch match[rpcDirectionIdx] {
	case rpcRequest:
		p.pendingCalls[method] = append(p.pendingCalls[method], &trace.ProviderCall{
			Method:         method,
			RequestPayload: payload,
		})

	case rpcResponse:
		call, found := popFront(p.pendingCalls, method)
		if !found {
			p.stats.UnmatchedResponses++
			p.logger.Debug("rpc response without request", "method", method)
			return
		}
		call.ResponsePayload = payload
		p.appendEvent(call)
	}
}

// popFront removes and returns the oldest pending entry for key.
func popFront[T any](pending map[string][]T, key string) (T, bool) {
	var zero T
	queue := pending[key]
	if len(queue) == 0 {
		return zero, false
	}
	head := queue[0]
	if len(queue) == 1 {
		delete(pending, key)
	} else {
		pending[key] = queue[1:]
	}
	return head, true
}

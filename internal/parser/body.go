package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/roach88/tftrace/internal/trace"
)

// bodyMarker precedes an embedded JSON body in request/response messages.
const bodyMarker = "body="

// decodeBody parses an embedded body. Empty or malformed input degrades to an
// empty object; ok reports whether the body was well-formed.
func decodeBody(raw string) (v trace.Value, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return trace.EmptyObject(), true
	}
	v, err := trace.ParseJSON([]byte(raw))
	if err != nil {
		return trace.EmptyObject(), false
	}
	return v, true
}

// decodeObject is decodeBody for values that must be objects (headers).
func decodeObject(raw string) (trace.Value, bool) {
	v, ok := decodeBody(raw)
	if _, isObj := v.(trace.Object); !isObj {
		return trace.EmptyObject(), false
	}
	return v, ok
}

// segments holds the key=value parts trailing an HTTP tracer message.
type segments struct {
	headers string
	body    string
}

// splitSegments parses ` headers=<json> body=<json>` where both parts are optional.
// The headers value is delimited by decoding exactly one JSON value, so a
// literal "body=" inside a header value does not split it. body runs to end of line.
func splitSegments(rest string) (segments, bool) {
	var seg segments
	rest = strings.TrimSpace(rest)

	if after, found := strings.CutPrefix(rest, "headers="); found {
		dec := json.NewDecoder(strings.NewReader(after))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			// Cannot find the end of headers; treat the remainder as malformed headers.
			seg.headers = after
			return seg, false
		}
		seg.headers = string(bytes.TrimSpace(raw))
		rest = strings.TrimSpace(after[dec.InputOffset():])
	}

	if after, found := strings.CutPrefix(rest, bodyMarker); found {
		seg.body = after
		return seg, true
	}

	return seg, rest == ""
}

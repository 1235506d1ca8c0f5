package parser

import (
	"regexp"
	"strings"
)

// Source tags with dedicated handlers.
const (
	SourceProviderRPC    = "provider.stdio"
	SourceProviderPrefix = "provider-"
	SourceHTTPTracer     = "http.Tracer"
)

// logLinePattern matches "<timestamp> [<level>] <source>: <message>".
// Timestamps are RFC 3339 with millisecond precision, UTC or with an offset.
var logLinePattern = regexp.MustCompile(
	`^(?P<timestamp>\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}(?:Z|[+-]\d{2}:?\d{2}))\s+` +
		`\[(?P<level>\w+)\]\s+(?P<source>[^:]+):\s+(?P<message>.*)$`,
)

var (
	timestampIdx = logLinePattern.SubexpIndex("timestamp")
	levelIdx     = logLinePattern.SubexpIndex("level")
	sourceIdx    = logLinePattern.SubexpIndex("source")
	messageIdx   = logLinePattern.SubexpIndex("message")
)

// LogLine is one well-formed log line split into its parts.
type LogLine struct {
	Timestamp string
	Level     string
	Source    string
	Message   string
}

// ParseLogLine splits a raw line. Surrounding whitespace (including a trailing
// carriage return) is ignored. ok is false when the line does not have the
// expected shape.
func ParseLogLine(raw string) (line LogLine, ok bool) {
	match := logLinePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return LogLine{}, false
	}
	return LogLine{
		Timestamp: match[timestampIdx],
		Level:     match[levelIdx],
		Source:    strings.TrimSpace(match[sourceIdx]),
		Message:   match[messageIdx],
	}, true
}

// sourceKind classifies a source tag into one of the four handlers.
type sourceKind int

const (
	sourceCore sourceKind = iota
	sourceRPC
	sourceProvider
	sourceHTTP
)

func classifySource(source string) sourceKind {
	switch {
	case source == SourceProviderRPC:
		return sourceRPC
	case strings.HasPrefix(source, SourceProviderPrefix):
		return sourceProvider
	case source == SourceHTTPTracer:
		return sourceHTTP
	default:
		return sourceCore
	}
}

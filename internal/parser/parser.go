package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/roach88/tftrace/internal/trace"
)

// ErrConsumed is returned when Parse is called a second time on the same Parser.
var ErrConsumed = errors.New("parser: input already consumed")

// Stats counts anomalies absorbed during a parse.
// None of them are fatal; they are reported for diagnostics only.
type Stats struct {
	Lines              int `json:"lines"`
	SkippedLines       int `json:"skipped_lines"`
	Events             int `json:"events"`
	UnmatchedResponses int `json:"unmatched_responses"`
	OrphanEvents       int `json:"orphan_events"`
	MalformedBodies    int `json:"malformed_bodies"`
	PendingDiscarded   int `json:"pending_discarded"`
}

// ProviderHandler receives provider plugin log lines (source tag "provider-*").
// Returning a non-nil event appends it to the current resource operation.
type ProviderHandler interface {
	HandleProviderLog(line LogLine) trace.Event
}

// ProviderHandlerFunc adapts a function to ProviderHandler.
type ProviderHandlerFunc func(line LogLine) trace.Event

// HandleProviderLog implements ProviderHandler.
func (f ProviderHandlerFunc) HandleProviderLog(line LogLine) trace.Event {
	return f(line)
}

type nopProviderHandler struct{}

func (nopProviderHandler) HandleProviderLog(LogLine) trace.Event { return nil }

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for anomaly diagnostics (Debug level).
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPhaseMarkers adds phase markers checked before the defaults.
func WithPhaseMarkers(markers ...PhaseMarker) Option {
	return func(p *Parser) {
		p.extraPhaseMarkers = append(p.extraPhaseMarkers, markers...)
	}
}

// WithResourceMarkers adds resource start markers checked after the defaults.
func WithResourceMarkers(markers ...ResourceMarker) Option {
	return func(p *Parser) {
		p.resourceMarkers = append(p.resourceMarkers, markers...)
	}
}

// WithProviderHandler installs a handler for provider plugin log lines.
func WithProviderHandler(h ProviderHandler) Option {
	return func(p *Parser) {
		if h != nil {
			p.providerHandler = h
		}
	}
}

// Parser builds a trace.Trace from one log stream.
// A Parser is single-use and not safe for concurrent use; create one per input.
type Parser struct {
	r      *bufio.Reader
	logger *slog.Logger

	extraPhaseMarkers []PhaseMarker
	phases            phaseTable
	resourceMarkers   []ResourceMarker
	providerHandler   ProviderHandler

	trace           *trace.Trace
	currentPhase    *trace.Phase
	currentResource *trace.ResourceOperation
	phaseUses       map[string]int
	pendingCalls    map[string][]*trace.ProviderCall
	pendingHTTP     map[string][]*trace.ApiRequest

	stats    Stats
	consumed bool
}

// New creates a parser reading from r.
func New(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		r:               bufio.NewReader(r),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		resourceMarkers: DefaultResourceMarkers(),
		providerHandler: nopProviderHandler{},
		trace:           trace.New(),
		phaseUses:       make(map[string]int),
		pendingCalls:    make(map[string][]*trace.ProviderCall),
		pendingHTTP:     make(map[string][]*trace.ApiRequest),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.phases = newPhaseTable(append(append([]PhaseMarker{}, p.extraPhaseMarkers...), DefaultPhaseMarkers()...))
	return p
}

// Parse is a convenience wrapper for New(r, opts...).Parse().
func Parse(r io.Reader, opts ...Option) (*trace.Trace, error) {
	return New(r, opts...).Parse()
}

// Parse consumes the input and returns the trace.
// Only I/O errors from the reader are returned; malformed content is absorbed.
func (p *Parser) Parse() (*trace.Trace, error) {
	if p.consumed {
		return nil, ErrConsumed
	}
	p.consumed = true

	for {
		raw, err := p.r.ReadString('\n')
		if len(raw) > 0 {
			p.handleLine(raw)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read log line %d: %w", p.stats.Lines+1, err)
		}
	}

	p.finish()
	return p.trace, nil
}

// Stats returns the anomaly counters. Valid after Parse returns.
func (p *Parser) Stats() Stats {
	return p.stats
}

// handleLine runs the per-line algorithm.
func (p *Parser) handleLine(raw string) {
	p.stats.Lines++

	line, ok := ParseLogLine(raw)
	if !ok {
		p.stats.SkippedLines++
		return
	}

	p.detectPhaseChange(line.Message)

	switch classifySource(line.Source) {
	case sourceRPC:
		p.handleRPC(line)
	case sourceProvider:
		p.handleProvider(line)
	case sourceHTTP:
		p.handleHTTP(line)
	default:
		p.handleCore(line)
	}
}

func (p *Parser) detectPhaseChange(message string) {
	marker, ok := p.phases.lookup(message)
	if !ok {
		return
	}

	switch marker.Action {
	case PhaseOpen:
		p.openPhase(marker.Phase)
	case PhaseClose:
		p.closePhase()
	}
}

// openPhase closes any open phase and appends a new one.
// Closed phases are never re-opened: a repeated name gets a "#n" suffix.
func (p *Parser) openPhase(name string) {
	p.closePhase()

	p.phaseUses[name]++
	if n := p.phaseUses[name]; n > 1 {
		name = name + "#" + strconv.Itoa(n)
	}

	p.currentPhase = p.trace.AddPhase(name)
	p.logger.Debug("phase opened", "phase", name)
}

func (p *Parser) closePhase() {
	if p.currentPhase != nil {
		p.logger.Debug("phase closed", "phase", p.currentPhase.Name)
	}
	p.currentPhase = nil
	p.currentResource = nil
}

// handleCore looks for a resource start marker and makes that resource current.
func (p *Parser) handleCore(line LogLine) {
	for _, m := range p.resourceMarkers {
		address, ok := m.Find(line.Message)
		if !ok {
			continue
		}
		if p.currentPhase == nil {
			p.logger.Debug("resource marker outside any phase", "address", address)
			return
		}
		p.currentResource = p.currentPhase.Operation(address)
		return
	}
}

func (p *Parser) handleProvider(line LogLine) {
	if e := p.providerHandler.HandleProviderLog(line); e != nil {
		p.appendEvent(e)
	}
}

// appendEvent attaches a completed event to the current resource.
func (p *Parser) appendEvent(e trace.Event) {
	if p.currentResource == nil {
		p.stats.OrphanEvents++
		p.logger.Debug("completed event with no current resource", "kind", e.Kind(), "id", e.Identifier())
		return
	}
	p.currentResource.Append(e)
	p.stats.Events++
}

// finish discards requests that never saw a response.
func (p *Parser) finish() {
	for method, queue := range p.pendingCalls {
		p.stats.PendingDiscarded += len(queue)
		p.logger.Debug("discarding pending provider calls", "method", method, "count", len(queue))
	}
	for key, queue := range p.pendingHTTP {
		p.stats.PendingDiscarded += len(queue)
		p.logger.Debug("discarding pending http requests", "request", key, "count", len(queue))
	}
	clear(p.pendingCalls)
	clear(p.pendingHTTP)
	p.closePhase()
}

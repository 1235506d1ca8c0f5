// Package config loads the optional .tftrace.yaml settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tftrace/internal/compare"
	"github.com/roach88/tftrace/internal/parser"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = ".tftrace.yaml"

// Config holds user-tunable parser and comparator settings.
//
//	ignore:
//	  - "**/request_id"
//	phase_markers:
//	  - match: "Refreshing state"
//	    action: open
//	    phase: refresh
//	resource_markers:
//	  - '(?P<address>\S+): Creating\.\.\.'
type Config struct {
	// Ignore lists doublestar globs over slash-joined diff paths.
	Ignore []string `yaml:"ignore"`

	// PhaseMarkers are checked before the built-in table.
	PhaseMarkers []PhaseMarker `yaml:"phase_markers"`

	// ResourceMarkers are regular expressions with an (?P<address>...) group,
	// checked after the built-in marker.
	ResourceMarkers []string `yaml:"resource_markers"`

	resourceMarkers []parser.ResourceMarker
}

// PhaseMarker is the YAML form of parser.PhaseMarker.
type PhaseMarker struct {
	Match  string `yaml:"match"`
	Action string `yaml:"action"`
	Phase  string `yaml:"phase,omitempty"`
}

func (m PhaseMarker) toParser() parser.PhaseMarker {
	return parser.PhaseMarker{Match: m.Match, Action: parser.PhaseAction(m.Action), Phase: m.Phase}
}

// Default returns an empty configuration: built-in markers, nothing ignored.
func Default() *Config {
	return &Config{}
}

// Load reads and validates a config file.
// Unknown keys are rejected so typos surface instead of being silently ignored.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML config data. Empty input yields Default().
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Resolve loads path when set. Otherwise it loads DefaultFile if present and
// falls back to Default() when it is not.
func Resolve(path string, logger *slog.Logger) (*Config, error) {
	if path != "" {
		return Load(path)
	}

	cfg, err := Load(DefaultFile)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debug("loaded config", "path", DefaultFile)
	}
	return cfg, nil
}

// Validate checks every entry and compiles the resource markers.
func (c *Config) Validate() error {
	for i, pattern := range c.Ignore {
		if err := compare.ValidatePattern(pattern); err != nil {
			return fmt.Errorf("ignore[%d]: %w", i, err)
		}
	}

	for i, m := range c.PhaseMarkers {
		if err := m.toParser().Validate(); err != nil {
			return fmt.Errorf("phase_markers[%d]: %w", i, err)
		}
	}

	c.resourceMarkers = c.resourceMarkers[:0]
	for i, pattern := range c.ResourceMarkers {
		m, err := parser.NewResourceMarker(pattern)
		if err != nil {
			return fmt.Errorf("resource_markers[%d]: %w", i, err)
		}
		c.resourceMarkers = append(c.resourceMarkers, m)
	}
	return nil
}

// AddIgnore appends patterns after validating them.
func (c *Config) AddIgnore(patterns ...string) error {
	for _, pattern := range patterns {
		if err := compare.ValidatePattern(pattern); err != nil {
			return err
		}
	}
	c.Ignore = append(c.Ignore, patterns...)
	return nil
}

// ParserOptions converts the marker settings to parser options.
// Call Validate (Load does) before using it.
func (c *Config) ParserOptions() []parser.Option {
	var opts []parser.Option
	if len(c.PhaseMarkers) > 0 {
		markers := make([]parser.PhaseMarker, len(c.PhaseMarkers))
		for i, m := range c.PhaseMarkers {
			markers[i] = m.toParser()
		}
		opts = append(opts, parser.WithPhaseMarkers(markers...))
	}
	if len(c.resourceMarkers) > 0 {
		opts = append(opts, parser.WithResourceMarkers(c.resourceMarkers...))
	}
	return opts
}

// CompareOptions converts the ignore settings to comparator options.
func (c *Config) CompareOptions() []compare.Option {
	if len(c.Ignore) == 0 {
		return nil
	}
	return []compare.Option{compare.WithIgnore(c.Ignore...)}
}

package compare

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Option configures a comparison.
type Option func(*options)

type options struct {
	ignore []string
}

// WithIgnore suppresses diffs whose slash-joined path matches any of the
// doublestar patterns, together with everything below that path.
//
//	phase/*/resource/*/events/*/response_payload/request_id
//	**/headers/Date
//
// Invalid patterns never match; call ValidatePattern first to reject them.
func WithIgnore(patterns ...string) Option {
	return func(o *options) {
		o.ignore = append(o.ignore, patterns...)
	}
}

// ValidatePattern reports whether pattern is a well-formed ignore glob.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("ignore pattern is empty")
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid ignore pattern %q", pattern)
	}
	return nil
}

// ignored reports whether p or any of its ancestors matches an ignore pattern.
func (o *options) ignored(p Path) bool {
	if len(o.ignore) == 0 {
		return false
	}
	for i := len(p); i > 0; i-- {
		name := p[:i].Slash()
		for _, pattern := range o.ignore {
			if ok, err := doublestar.Match(pattern, name); err == nil && ok {
				return true
			}
		}
	}
	return false
}

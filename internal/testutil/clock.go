package testutil

import (
	"sync"
	"time"
)

// TimestampLayout is the log timestamp format: RFC 3339 with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DefaultBase is the first instant handed out by NewDeterministicClock.
var DefaultBase = time.Date(2023, 10, 27, 10, 30, 0, 0, time.UTC)

// DeterministicClock hands out log timestamps exactly one millisecond apart.
//
// Two builders with fresh clocks produce byte-identical timestamps, which keeps
// golden files stable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	base time.Time
	seq  int64
}

// NewDeterministicClock creates a clock starting at DefaultBase.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultBase)
}

// NewDeterministicClockAt creates a clock starting at base.
// The first call to Next() returns base + 1ms.
func NewDeterministicClockAt(base time.Time) *DeterministicClock {
	return &DeterministicClock{base: base}
}

// Next advances by one millisecond and returns the formatted timestamp.
func (c *DeterministicClock) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.base.Add(time.Duration(c.seq) * time.Millisecond).Format(TimestampLayout)
}

// Current returns the number of timestamps handed out.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to its base.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

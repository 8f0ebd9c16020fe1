// Package incrementer implements a standalone monotonic identifier
// service: named counters that hand out unique, strictly increasing
// identifiers to callers (Pick and Origin identifiers, in this module,
// rather than UUIDs, so they stay totally ordered and dense per stream).
package incrementer

import (
	"sync"

	"github.com/pkg/errors"
)

// DefaultInitialValue is the first value a fresh Counter hands out.
const DefaultInitialValue uint64 = 1

// DefaultIncrement is how much a Counter advances per Next call.
const DefaultIncrement uint64 = 1

// Counter is a single named, monotonically increasing identifier stream.
type Counter struct {
	mu        sync.Mutex
	value     uint64
	increment uint64
}

// NewCounter constructs a Counter starting at initialValue and advancing
// by increment on each call to Next.
func NewCounter(initialValue, increment uint64) (*Counter, error) {
	if increment == 0 {
		return nil, errors.New("increment must be non-zero")
	}
	return &Counter{value: initialValue, increment: increment}, nil
}

// Next returns the counter's current value then advances it.
func (c *Counter) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.value
	c.value += c.increment
	return v
}

// Current returns the next value Next would return, without advancing.
func (c *Counter) Current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

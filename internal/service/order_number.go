package service

import (
	"fmt"
	"sync"
	"time"
)

// OrderNumberGenerator produces ORD-<epochMillis> numbers that never repeat
// within one process
type OrderNumberGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewOrderNumberGenerator creates a generator backed by the wall clock
func NewOrderNumberGenerator() *OrderNumberGenerator {
	return &OrderNumberGenerator{now: time.Now}
}

// Next returns the next order number
func (g *OrderNumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	millis := g.now().UnixMilli()
	if millis <= g.last {
		millis = g.last + 1
	}
	g.last = millis
	return fmt.Sprintf("ORD-%d", millis)
}

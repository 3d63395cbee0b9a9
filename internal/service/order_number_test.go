package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderNumberGenerator(t *testing.T) {
	clock := time.UnixMilli(1700000000000)
	g := &OrderNumberGenerator{now: func() time.Time { return clock }}

	assert.Equal(t, "ORD-1700000000000", g.Next())
	assert.Equal(t, "ORD-1700000000001", g.Next())

	clock = clock.Add(time.Second)
	assert.Equal(t, "ORD-1700000001000", g.Next())

	clock = clock.Add(-time.Minute)
	assert.Equal(t, "ORD-1700000001001", g.Next())
}

package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockOrderedAndDeduplicated(t *testing.T) {
	c := NewClock([]string{"2020/03/17 17:01:30", "2020/03/17 17:01:24", "2020/03/17 17:01:30", ""}, false)
	assert.Equal(t, 2, c.Len())
	first, ok := c.First()
	assert.True(t, ok)
	assert.Equal(t, "2020/03/17 17:01:24", first)

	next, ok := c.Next(first)
	assert.True(t, ok)
	assert.Equal(t, "2020/03/17 17:01:30", next)
	assert.True(t, c.IsLast(next))

	_, ok = c.Next(next)
	assert.False(t, ok)
}

func TestClockWrap(t *testing.T) {
	c := NewClock([]string{"a", "b"}, true)
	next, ok := c.Next("b")
	assert.True(t, ok)
	assert.Equal(t, "a", next)
}

func TestClockNextFromUnknownTimestamp(t *testing.T) {
	c := NewClock([]string{"a", "c"}, false)
	next, ok := c.Next("b")
	assert.True(t, ok)
	assert.Equal(t, "c", next)
}

func TestClockEmpty(t *testing.T) {
	c := NewClock(nil, true)
	_, ok := c.First()
	assert.False(t, ok)
	_, ok = c.Next("x")
	assert.False(t, ok)
}

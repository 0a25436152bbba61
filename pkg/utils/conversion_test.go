package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool(1))
	assert.True(t, ToBool(int64(1)))
	assert.True(t, ToBool("true"))
	assert.True(t, ToBool("YES"))
	assert.True(t, ToBool([]byte("1")))

	assert.False(t, ToBool(nil))
	assert.False(t, ToBool(false))
	assert.False(t, ToBool(0))
	assert.False(t, ToBool("0"))
	assert.False(t, ToBool("nope"))
}

func TestToInt64(t *testing.T) {
	n, ok := ToInt64("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	n, ok = ToInt64([]byte(" 7 "))
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	n, ok = ToInt64(3.0)
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)

	_, ok = ToInt64("abc")
	assert.False(t, ok)

	_, ok = ToInt64(nil)
	assert.False(t, ok)
}

func TestToFloat64(t *testing.T) {
	f, ok := ToFloat64("3.14")
	assert.True(t, ok)
	assert.InDelta(t, 3.14, f, 0.001)

	f, ok = ToFloat64(int64(5))
	assert.True(t, ok)
	assert.Equal(t, 5.0, f)

	_, ok = ToFloat64("x")
	assert.False(t, ok)
}

package lua

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberToString(t *testing.T) {
	assert.Equal(t, "3", LNumber(3).String())
	assert.Equal(t, "3.5", LNumber(3.5).String())
	assert.Equal(t, "-2", LNumber(-2).String())
	assert.Equal(t, "inf", LNumber(math.Inf(1)).String())
	assert.Equal(t, "-inf", LNumber(math.Inf(-1)).String())
}

func TestToNumberCoercion(t *testing.T) {
	n, ok := ToNumber(LString("42"))
	require.True(t, ok)
	assert.Equal(t, LNumber(42), n)

	n, ok = ToNumber(LString("0x1A"))
	require.True(t, ok)
	assert.Equal(t, LNumber(26), n)

	_, ok = ToNumber(LString("not a number"))
	assert.False(t, ok)

	n, ok = ToNumber(LNumber(7))
	require.True(t, ok)
	assert.Equal(t, LNumber(7), n)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(LNil))
	assert.False(t, Truthy(LFalse))
	assert.True(t, Truthy(LTrue))
	assert.True(t, Truthy(LNumber(0)))
	assert.True(t, Truthy(LString("")))
}


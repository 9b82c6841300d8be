package lua

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableInsertAppendAndPositional(t *testing.T) {
	vm := NewVM()
	tb := newTable(0, 0)
	tb.RawSetInt(1, LNumber(1))
	tb.RawSetInt(2, LNumber(2))

	callGlobalTableFn(t, vm, "table", "insert", tb, LNumber(3))
	assert.Equal(t, 3, tb.Len())
	assert.Equal(t, LNumber(3), tb.RawGetInt(3))

	callGlobalTableFn(t, vm, "table", "insert", tb, LNumber(1), LNumber(0))
	require.Equal(t, 4, tb.Len())
	assert.Equal(t, LNumber(0), tb.RawGetInt(1))
	assert.Equal(t, LNumber(1), tb.RawGetInt(2))
}

func TestTableRemove(t *testing.T) {
	vm := NewVM()
	tb := newTable(0, 0)
	tb.RawSetInt(1, LNumber(10))
	tb.RawSetInt(2, LNumber(20))
	tb.RawSetInt(3, LNumber(30))

	res := callGlobalTableFn(t, vm, "table", "remove", tb)
	assert.Equal(t, LNumber(30), res[0])
	assert.Equal(t, 2, tb.Len())

	res = callGlobalTableFn(t, vm, "table", "remove", tb, LNumber(1))
	assert.Equal(t, LNumber(10), res[0])
	assert.Equal(t, LNumber(20), tb.RawGetInt(1))
}

func TestTableConcat(t *testing.T) {
	vm := NewVM()
	tb := newTable(0, 0)
	tb.RawSetInt(1, LString("a"))
	tb.RawSetInt(2, LString("b"))
	tb.RawSetInt(3, LString("c"))

	res := callGlobalTableFn(t, vm, "table", "concat", tb, LString(","))
	assert.Equal(t, LString("a,b,c"), res[0])
}

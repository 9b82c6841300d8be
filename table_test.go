package lua

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableArrayPart(t *testing.T) {
	tb := newTable(0, 0)
	tb.RawSetInt(1, LNumber(10))
	tb.RawSetInt(2, LNumber(20))
	tb.RawSetInt(3, LNumber(30))

	assert.Equal(t, 3, tb.Len())
	assert.Equal(t, LNumber(20), tb.RawGetInt(2))
}

func TestTableHashPart(t *testing.T) {
	tb := newTable(0, 0)
	tb.RawSet(LString("x"), LNumber(1))
	tb.RawSet(LString("y"), LNumber(2))

	assert.Equal(t, LNumber(1), tb.RawGet(LString("x")))
	assert.Equal(t, LNil, tb.RawGet(LString("z")))
}

// TestTableNilAssignmentKeepsKey pins a deliberate deviation from
// standard Lua: writing nil to a table key does not remove it here.
// next() still never yields a nil-valued entry (matching standard
// Lua's next()), but using the nil-valued key itself as a pivot does
// not error, because the key's slot in the insertion-order log was
// never reclaimed.
func TestTableNilAssignmentKeepsKey(t *testing.T) {
	tb := newTable(0, 0)
	tb.RawSet(LString("k"), LNumber(1))
	tb.RawSet(LString("other"), LNumber(2))
	tb.RawSet(LString("k"), LNil)

	assert.Contains(t, tb.keyIdx, LValue(LString("k")))

	k, v, ok := tb.Next(LString("k"))
	require.True(t, ok)
	assert.Equal(t, LString("other"), k)
	assert.Equal(t, LNumber(2), v)
}

func TestTableLengthWithTrailingNil(t *testing.T) {
	tb := newTable(0, 0)
	tb.RawSetInt(1, LNumber(1))
	tb.RawSetInt(2, LNumber(2))
	tb.RawSetInt(3, LNumber(3))
	tb.array[2] = LNil // simulate t[3] = nil without shrinking

	assert.Equal(t, 2, tb.Len())
}

func TestTableNextInsertionOrder(t *testing.T) {
	tb := newTable(0, 0)
	tb.RawSet(LString("b"), LNumber(2))
	tb.RawSet(LString("a"), LNumber(1))
	tb.RawSet(LString("c"), LNumber(3))

	var order []string
	k, v, ok := tb.Next(LNil)
	for ok && k != LNil {
		order = append(order, string(k.(LString)))
		k, v, ok = tb.Next(k)
	}
	_ = v
	assert.Equal(t, []string{"b", "a", "c"}, order)
}

func TestTableNextUnknownKeyErrors(t *testing.T) {
	tb := newTable(0, 0)
	tb.RawSet(LString("a"), LNumber(1))
	_, _, ok := tb.Next(LString("nope"))
	assert.False(t, ok)
}

func TestTableIntegralFloatKeyAliasing(t *testing.T) {
	tb := newTable(0, 0)
	tb.RawSet(LNumber(1), LString("one"))
	assert.Equal(t, LString("one"), tb.RawGet(LNumber(1.0)))
}

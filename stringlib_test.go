package lua

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSub(t *testing.T) {
	vm := NewVM()
	res := callGlobalTableFn(t, vm, "string", "sub", LString("hello world"), LNumber(1), LNumber(5))
	assert.Equal(t, LString("hello"), res[0])

	res = callGlobalTableFn(t, vm, "string", "sub", LString("hello world"), LNumber(-5))
	assert.Equal(t, LString("world"), res[0])
}

func TestStringCase(t *testing.T) {
	vm := NewVM()
	res := callGlobalTableFn(t, vm, "string", "upper", LString("MixedCase"))
	assert.Equal(t, LString("MIXEDCASE"), res[0])
	res = callGlobalTableFn(t, vm, "string", "lower", LString("MixedCase"))
	assert.Equal(t, LString("mixedcase"), res[0])
}

func TestStringRep(t *testing.T) {
	vm := NewVM()
	res := callGlobalTableFn(t, vm, "string", "rep", LString("ab"), LNumber(3))
	assert.Equal(t, LString("ababab"), res[0])
}

func TestStringByteAndChar(t *testing.T) {
	vm := NewVM()
	res := callGlobalTableFn(t, vm, "string", "byte", LString("A"))
	assert.Equal(t, LNumber(65), res[0])

	res = callGlobalTableFn(t, vm, "string", "char", LNumber(72), LNumber(105))
	assert.Equal(t, LString("Hi"), res[0])
}

func TestStringLen(t *testing.T) {
	vm := NewVM()
	res := callGlobalTableFn(t, vm, "string", "len", LString("hello"))
	assert.Equal(t, LNumber(5), res[0])
}

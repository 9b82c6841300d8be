package lua

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nativeCoroutineFunc(fn GoFunction) *LFunction {
	return newGoFunction("test", fn)
}

func TestCoroutineResumeYieldRoundTrip(t *testing.T) {
	vm := NewVM()
	body := nativeCoroutineFunc(func(vm *VM, args []LValue) ([]LValue, error) {
		got := vm.current.Yield([]LValue{LNumber(1)})
		require.Equal(t, []LValue{LNumber(2)}, got)
		return []LValue{LNumber(3)}, nil
	})
	co := NewCoroutine(vm, body)

	ok, vals := co.Resume(nil)
	assert.True(t, ok)
	assert.Equal(t, []LValue{LNumber(1)}, vals)
	assert.Equal(t, CoSuspended, co.status)

	ok, vals = co.Resume([]LValue{LNumber(2)})
	assert.True(t, ok)
	assert.Equal(t, []LValue{LNumber(3)}, vals)
	assert.Equal(t, CoDead, co.status)
}

func TestCoroutineResumeAfterDeadFails(t *testing.T) {
	vm := NewVM()
	body := nativeCoroutineFunc(func(vm *VM, args []LValue) ([]LValue, error) {
		return nil, nil
	})
	co := NewCoroutine(vm, body)

	ok, _ := co.Resume(nil)
	require.True(t, ok)
	require.Equal(t, CoDead, co.status)

	ok, vals := co.Resume(nil)
	assert.False(t, ok)
	require.Len(t, vals, 1)
	assert.Contains(t, string(vals[0].(LString)), "dead")
}

// TestCoroutineErrorPropagatesAsFailedResume pins the contract that an
// uncaught runtime error inside a coroutine surfaces as resume
// returning (false, message), not as a panic escaping to the caller.
func TestCoroutineErrorPropagatesAsFailedResume(t *testing.T) {
	vm := NewVM()
	body := nativeCoroutineFunc(func(vm *VM, args []LValue) ([]LValue, error) {
		vm.raiseRuntimeNoFrame(vm.current, "boom")
		return nil, nil
	})
	co := NewCoroutine(vm, body)

	ok, vals := co.Resume(nil)
	assert.False(t, ok)
	require.Len(t, vals, 1)
	assert.Contains(t, string(vals[0].(LString)), "boom")
	assert.Equal(t, CoDead, co.status)
}

func TestCoroutineStatusString(t *testing.T) {
	vm := NewVM()
	body := nativeCoroutineFunc(func(vm *VM, args []LValue) ([]LValue, error) {
		return nil, nil
	})
	co := NewCoroutine(vm, body)
	assert.Equal(t, "suspended", co.status.String())
	co.Resume(nil)
	assert.Equal(t, "dead", co.status.String())
}

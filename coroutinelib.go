package lua

import "fmt"

// openCoroutineLib registers coroutine.create/resume/yield, plus a
// status accessor that's a natural companion to them and costs nothing
// extra once Coroutine tracks its own state.
func openCoroutineLib(vm *VM) {
	tbl := newTable(0, 4)
	reg := func(name string, fn GoFunction) { tbl.RawSet(LString(name), newGoFunction("coroutine."+name, fn)) }

	reg("create", coroutineCreate)
	reg("resume", coroutineResume)
	reg("yield", coroutineYield)
	reg("status", coroutineStatus)

	vm.Globals.RawSet(LString("coroutine"), tbl)
}

func coroutineCreate(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("bad argument #1 to 'create' (function expected, got no value)")
	}
	fn, ok := args[0].(*LFunction)
	if !ok {
		return nil, fmt.Errorf("bad argument #1 to 'create' (function expected, got %s)", args[0].Type())
	}
	return []LValue{NewCoroutine(vm, fn)}, nil
}

// coroutineResume implements coroutine.resume(co, args...): the
// boolean/value(s) pair is returned directly, never as a Go error,
// since a failed resume is a normal (not exceptional) result.
func coroutineResume(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("bad argument #1 to 'resume' (coroutine expected, got no value)")
	}
	co, ok := args[0].(*Coroutine)
	if !ok {
		return nil, fmt.Errorf("bad argument #1 to 'resume' (coroutine expected, got %s)", args[0].Type())
	}
	ok2, values := co.Resume(args[1:])
	return append([]LValue{LBool(ok2)}, values...), nil
}

// coroutineYield implements coroutine.yield(vals...).
func coroutineYield(vm *VM, args []LValue) ([]LValue, error) {
	if vm.current == vm.root {
		return nil, fmt.Errorf("attempt to yield from outside a coroutine")
	}
	return vm.current.Yield(args), nil
}

func coroutineStatus(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("bad argument #1 to 'status' (coroutine expected, got no value)")
	}
	co, ok := args[0].(*Coroutine)
	if !ok {
		return nil, fmt.Errorf("bad argument #1 to 'status' (coroutine expected, got %s)", args[0].Type())
	}
	return []LValue{LString(co.status.String())}, nil
}

package lua

import (
	"fmt"
	"io"
	"os"
)

// ApiError is the runtime-error family: it carries the (source_name,
// line) position of the faulting instruction and, once it has
// propagated past at least one frame, a stack traceback. Distinct from
// *FormatError, which only the binary reader raises.
type ApiError struct {
	Value     LValue
	Traceback []string
}

func (e *ApiError) Error() string {
	msg := e.Value.String()
	if len(e.Traceback) == 0 {
		return msg
	}
	out := msg + "\nstack traceback:"
	for _, l := range e.Traceback {
		out += "\n\t" + l
	}
	return out
}

func newApiError(message string) *ApiError {
	return &ApiError{Value: LString(message)}
}

// VM is one Lua universe: one global table, one set of registered host
// functions, nothing process-wide shared between VMs.
type VM struct {
	Globals *LTable
	Stdout  io.Writer

	stringLibMetatable LValue
	current            *Coroutine
	root               *Coroutine
}

// NewVM constructs a VM with an empty global table and the core host
// globals installed. The embedder may register more.
func NewVM() *VM {
	vm := &VM{
		Globals:            newTable(0, 64),
		Stdout:             os.Stdout,
		stringLibMetatable: LNil,
	}
	vm.root = newRootCoroutine(vm)
	vm.current = vm.root
	openBaseLib(vm)
	openMathLib(vm)
	openStringLib(vm)
	openTableLib(vm)
	openCoroutineLib(vm)
	return vm
}

// RegisterFunc installs a host function as a global.
func (vm *VM) RegisterFunc(name string, fn GoFunction) {
	vm.Globals.RawSet(LString(name), newGoFunction(name, fn))
}

// SetGlobal/GetGlobal expose the global table.
func (vm *VM) SetGlobal(name string, v LValue) { vm.Globals.RawSet(LString(name), v) }
func (vm *VM) GetGlobal(name string) LValue    { return vm.Globals.RawGet(LString(name)) }

// Load reads a .luac byte stream and wraps its top-level prototype in a
// zero-upvalue closure, ready to Run.
func (vm *VM) Load(r io.Reader) (*LFunction, error) {
	proto, err := Undump(r)
	if err != nil {
		return nil, err
	}
	return newClosure(proto, nil), nil
}

// Run executes the main chunk to completion and returns its result
// tuple. The main chunk runs as the implicit root coroutine; an
// uncaught runtime error propagates to the embedder as an *ApiError.
func (vm *VM) Run(main *LFunction) (results []LValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ae, ok := r.(*ApiError); ok {
				err = ae
				return
			}
			panic(r)
		}
	}()
	results = vm.callClosure(vm.root, main, nil)
	return results, nil
}

// metatableOf returns the metatable of v, honoring __metatable
// protection unless raw is requested.
func (vm *VM) metatableOf(v LValue, raw bool) LValue {
	var mt LValue = LNil
	switch o := v.(type) {
	case *LTable:
		mt = o.Metatable
	case LString:
		mt = vm.stringLibMetatable
	default:
		return LNil
	}
	if raw || mt == LNil {
		return mt
	}
	if tb, ok := mt.(*LTable); ok {
		if prot := tb.RawGet(LString("__metatable")); prot != LNil {
			return prot
		}
	}
	return mt
}

// metamethod looks up event on v's metatable.
func (vm *VM) metamethod(v LValue, event string) LValue {
	mt := vm.metatableOf(v, true)
	tb, ok := mt.(*LTable)
	if !ok {
		return LNil
	}
	return tb.RawGet(LString(event))
}

// metamethodEither tries the left operand's metamethod, then the
// right's, matching the arithmetic dispatch rule.
func (vm *VM) metamethodEither(a, b LValue, event string) LValue {
	if m := vm.metamethod(a, event); m != LNil {
		return m
	}
	return vm.metamethod(b, event)
}

func (vm *VM) setMetatable(v LValue, mt LValue) error {
	tb, ok := v.(*LTable)
	if !ok {
		return fmt.Errorf("cannot set metatable on a %s value", v.Type())
	}
	if old, ok := tb.Metatable.(*LTable); ok {
		if old.RawGet(LString("__metatable")) != LNil {
			return fmt.Errorf("cannot change a protected metatable")
		}
	}
	if mt == LNil {
		tb.Metatable = LNil
		return nil
	}
	if _, ok := mt.(*LTable); !ok {
		return fmt.Errorf("metatable must be a table or nil")
	}
	tb.Metatable = mt
	return nil
}

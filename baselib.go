package lua

import (
	"fmt"
	"strings"
)

// openBaseLib registers the core host globals that are not namespaced
// under a table: print, tostring, tonumber, pairs, next, select,
// setmetatable, getmetatable.
func openBaseLib(vm *VM) {
	vm.RegisterFunc("print", baseVMPrint)
	vm.RegisterFunc("tostring", baseVMToString)
	vm.RegisterFunc("tonumber", baseVMToNumber)
	vm.RegisterFunc("pairs", baseVMPairs)
	vm.RegisterFunc("next", baseVMNext)
	vm.RegisterFunc("select", baseVMSelect)
	vm.RegisterFunc("setmetatable", baseVMSetMetatable)
	vm.RegisterFunc("getmetatable", baseVMGetMetatable)
}

// toPrint renders a value the way print formats it: numbers as decimal
// text, strings decoded, booleans as true/false, nil as "nil", anything
// else as "type: 0x<hex>".
func toPrint(v LValue) string {
	switch lv := v.(type) {
	case *LNilType:
		return "nil"
	case LBool:
		return lv.String()
	case LNumber:
		return lv.String()
	case LString:
		return string(lv)
	default:
		return fmt.Sprintf("%s: %p", v.Type().String(), v)
	}
}

func baseVMPrint(vm *VM, args []LValue) ([]LValue, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = toPrint(a)
	}
	fmt.Fprintln(vm.Stdout, strings.Join(parts, "\t"))
	return nil, nil
}

func baseVMToString(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return []LValue{LString("nil")}, nil
	}
	return []LValue{LString(ToStringValue(args[0]))}, nil
}

func baseVMToNumber(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return []LValue{LNil}, nil
	}
	n, ok := ToNumber(args[0])
	if !ok {
		return []LValue{LNil}, nil
	}
	return []LValue{n}, nil
}

// pairs(t) returns (next, t, nil).
func baseVMPairs(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("bad argument #1 to 'pairs' (table expected, got no value)")
	}
	return []LValue{vm.GetGlobal("next"), args[0], LNil}, nil
}

// next(t, k) walks the table's insertion-order key log.
func baseVMNext(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("bad argument #1 to 'next' (table expected, got no value)")
	}
	tbl, ok := args[0].(*LTable)
	if !ok {
		return nil, fmt.Errorf("bad argument #1 to 'next' (table expected, got %s)", args[0].Type())
	}
	var key LValue = LNil
	if len(args) > 1 {
		key = args[1]
	}
	k, v, ok := tbl.Next(key)
	if !ok {
		return nil, fmt.Errorf("invalid key to 'next'")
	}
	if k == LNil {
		return []LValue{LNil}, nil
	}
	return []LValue{k, v}, nil
}

// select("#", ...) / select(n, ...): argument count or tail slice,
// negative indices count from the end.
func baseVMSelect(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("bad argument #1 to 'select' (number expected, got no value)")
	}
	rest := args[1:]
	if s, ok := args[0].(LString); ok && string(s) == "#" {
		return []LValue{LNumber(len(rest))}, nil
	}
	n, ok := ToNumber(args[0])
	if !ok {
		return nil, fmt.Errorf("bad argument #1 to 'select' (number expected, got %s)", args[0].Type())
	}
	idx := int(n)
	if idx < 0 {
		idx = len(rest) + idx + 1
	}
	if idx < 1 {
		return nil, fmt.Errorf("bad argument #1 to 'select' (index out of range)")
	}
	if idx > len(rest) {
		return nil, nil
	}
	return rest[idx-1:], nil
}

func baseVMSetMetatable(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("bad argument #1 to 'setmetatable' (table expected, got no value)")
	}
	var mt LValue = LNil
	if len(args) > 1 {
		mt = args[1]
	}
	if err := vm.setMetatable(args[0], mt); err != nil {
		return nil, err
	}
	return []LValue{args[0]}, nil
}

func baseVMGetMetatable(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return []LValue{LNil}, nil
	}
	return []LValue{vm.metatableOf(args[0], false)}, nil
}

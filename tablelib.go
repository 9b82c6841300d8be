package lua

import (
	"fmt"
	"strings"
)

// openTableLib registers table.insert/remove/concat, the growth
// operations a table needs beyond what NEWTABLE/SETLIST table literals
// alone provide, grounded on gopher-lua's tablelib.go.
func openTableLib(vm *VM) {
	tbl := newTable(0, 4)
	reg := func(name string, fn GoFunction) { tbl.RawSet(LString(name), newGoFunction("table."+name, fn)) }

	reg("insert", tableInsert)
	reg("remove", tableRemove)
	reg("concat", tableConcat)

	vm.Globals.RawSet(LString("table"), tbl)
}

func checkTableArg(fname string, args []LValue, idx int) (*LTable, error) {
	if idx >= len(args) {
		return nil, fmt.Errorf("bad argument #%d to '%s' (table expected, got no value)", idx+1, fname)
	}
	tb, ok := args[idx].(*LTable)
	if !ok {
		return nil, fmt.Errorf("bad argument #%d to '%s' (table expected, got %s)", idx+1, fname, args[idx].Type())
	}
	return tb, nil
}

func tableInsert(vm *VM, args []LValue) ([]LValue, error) {
	tb, err := checkTableArg("insert", args, 0)
	if err != nil {
		return nil, err
	}
	n := tb.Len()
	switch len(args) {
	case 2:
		tb.RawSetInt(n+1, args[1])
	case 3:
		pos, ok := ToNumber(args[1])
		if !ok {
			return nil, fmt.Errorf("bad argument #2 to 'insert' (number expected, got %s)", args[1].Type())
		}
		p := int(pos)
		for i := n + 1; i > p; i-- {
			tb.RawSetInt(i, tb.RawGetInt(i-1))
		}
		tb.RawSetInt(p, args[2])
	default:
		return nil, fmt.Errorf("wrong number of arguments to 'insert'")
	}
	return nil, nil
}

func tableRemove(vm *VM, args []LValue) ([]LValue, error) {
	tb, err := checkTableArg("remove", args, 0)
	if err != nil {
		return nil, err
	}
	n := tb.Len()
	pos := n
	if len(args) > 1 {
		p, ok := ToNumber(args[1])
		if !ok {
			return nil, fmt.Errorf("bad argument #2 to 'remove' (number expected, got %s)", args[1].Type())
		}
		pos = int(p)
	}
	if n == 0 {
		return []LValue{LNil}, nil
	}
	removed := tb.RawGetInt(pos)
	for i := pos; i < n; i++ {
		tb.RawSetInt(i, tb.RawGetInt(i+1))
	}
	tb.RawSetInt(n, LNil)
	return []LValue{removed}, nil
}

func tableConcat(vm *VM, args []LValue) ([]LValue, error) {
	tb, err := checkTableArg("concat", args, 0)
	if err != nil {
		return nil, err
	}
	sep := ""
	if len(args) > 1 {
		s, ok := args[1].(LString)
		if !ok {
			return nil, fmt.Errorf("bad argument #2 to 'concat' (string expected, got %s)", args[1].Type())
		}
		sep = string(s)
	}
	i := 1
	if len(args) > 2 {
		n, ok := ToNumber(args[2])
		if !ok {
			return nil, fmt.Errorf("bad argument #3 to 'concat' (number expected, got %s)", args[2].Type())
		}
		i = int(n)
	}
	j := tb.Len()
	if len(args) > 3 {
		n, ok := ToNumber(args[3])
		if !ok {
			return nil, fmt.Errorf("bad argument #4 to 'concat' (number expected, got %s)", args[3].Type())
		}
		j = int(n)
	}
	var b strings.Builder
	for k := i; k <= j; k++ {
		v := tb.RawGetInt(k)
		switch vv := v.(type) {
		case LString:
			b.WriteString(string(vv))
		case LNumber:
			b.WriteString(vv.String())
		default:
			return nil, fmt.Errorf("invalid value (%s) at index %d in table for 'concat'", v.Type(), k)
		}
		if k != j {
			b.WriteString(sep)
		}
	}
	return []LValue{LString(b.String())}, nil
}

package lua

import "fmt"

// openStringLib registers the string.* table: the `sub`/`len` core plus
// the bread-and-butter entries gopher-lua's stringlib.go also carries
// (upper, lower, rep, byte, char).
func openStringLib(vm *VM) {
	tbl := newTable(0, 8)
	reg := func(name string, fn GoFunction) { tbl.RawSet(LString(name), newGoFunction("string."+name, fn)) }

	reg("sub", stringSub)
	reg("len", stringLen)
	reg("upper", stringUpper)
	reg("lower", stringLower)
	reg("rep", stringRep)
	reg("byte", stringByte)
	reg("char", stringChar)

	vm.Globals.RawSet(LString("string"), tbl)
}

func checkStringArg(fname string, args []LValue, idx int) (string, error) {
	if idx >= len(args) {
		return "", fmt.Errorf("bad argument #%d to '%s' (string expected, got no value)", idx+1, fname)
	}
	switch v := args[idx].(type) {
	case LString:
		return string(v), nil
	case LNumber:
		return v.String(), nil
	}
	return "", fmt.Errorf("bad argument #%d to '%s' (string expected, got %s)", idx+1, fname, args[idx].Type())
}

// strIndex converts a 1-based, possibly negative Lua string index into a
// 0-based Go byte offset clamped to [0, length].
func strIndex(i, length int) int {
	if i < 0 {
		i = length + i + 1
	}
	if i < 1 {
		i = 1
	}
	if i > length+1 {
		i = length + 1
	}
	return i - 1
}

func stringSub(vm *VM, args []LValue) ([]LValue, error) {
	s, err := checkStringArg("sub", args, 0)
	if err != nil {
		return nil, err
	}
	i, j := 1, -1
	if len(args) > 1 {
		n, ok := ToNumber(args[1])
		if !ok {
			return nil, fmt.Errorf("bad argument #2 to 'sub' (number expected, got %s)", args[1].Type())
		}
		i = int(n)
	}
	if len(args) > 2 {
		n, ok := ToNumber(args[2])
		if !ok {
			return nil, fmt.Errorf("bad argument #3 to 'sub' (number expected, got %s)", args[2].Type())
		}
		j = int(n)
	}
	length := len(s)
	start := strIndex(i, length)
	var end int
	if j < 0 {
		end = length + j + 2
	} else {
		end = j + 1
	}
	if end > length+1 {
		end = length + 1
	}
	end--
	if start > end || start >= length {
		return []LValue{LString("")}, nil
	}
	if end > length {
		end = length
	}
	return []LValue{LString(s[start:end])}, nil
}

func stringLen(vm *VM, args []LValue) ([]LValue, error) {
	s, err := checkStringArg("len", args, 0)
	if err != nil {
		return nil, err
	}
	return []LValue{LNumber(len(s))}, nil
}

func stringUpper(vm *VM, args []LValue) ([]LValue, error) {
	s, err := checkStringArg("upper", args, 0)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return []LValue{LString(out)}, nil
}

func stringLower(vm *VM, args []LValue) ([]LValue, error) {
	s, err := checkStringArg("lower", args, 0)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return []LValue{LString(out)}, nil
}

func stringRep(vm *VM, args []LValue) ([]LValue, error) {
	s, err := checkStringArg("rep", args, 0)
	if err != nil {
		return nil, err
	}
	n, err := checkNumberArg("rep", args, 1)
	if err != nil {
		return nil, err
	}
	count := int(n)
	if count <= 0 {
		return []LValue{LString("")}, nil
	}
	out := make([]byte, 0, len(s)*count)
	for i := 0; i < count; i++ {
		out = append(out, s...)
	}
	return []LValue{LString(out)}, nil
}

func stringByte(vm *VM, args []LValue) ([]LValue, error) {
	s, err := checkStringArg("byte", args, 0)
	if err != nil {
		return nil, err
	}
	i, j := 1, 1
	if len(args) > 1 {
		n, ok := ToNumber(args[1])
		if !ok {
			return nil, fmt.Errorf("bad argument #2 to 'byte' (number expected, got %s)", args[1].Type())
		}
		i, j = int(n), int(n)
	}
	if len(args) > 2 {
		n, ok := ToNumber(args[2])
		if !ok {
			return nil, fmt.Errorf("bad argument #3 to 'byte' (number expected, got %s)", args[2].Type())
		}
		j = int(n)
	}
	length := len(s)
	start := strIndex(i, length)
	end := j
	if end < 0 {
		end = length + end + 1
	}
	if end > length {
		end = length
	}
	if start >= end {
		return nil, nil
	}
	out := make([]LValue, 0, end-start)
	for k := start; k < end; k++ {
		out = append(out, LNumber(s[k]))
	}
	return out, nil
}

func stringChar(vm *VM, args []LValue) ([]LValue, error) {
	out := make([]byte, len(args))
	for i, a := range args {
		n, ok := ToNumber(a)
		if !ok {
			return nil, fmt.Errorf("bad argument #%d to 'char' (number expected, got %s)", i+1, a.Type())
		}
		out[i] = byte(int(n))
	}
	return []LValue{LString(out)}, nil
}

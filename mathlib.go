package lua

import (
	"fmt"
	"math"
	"math/rand"
)

// openMathLib registers the math.* table, one Go math package call per
// Lua function.
func openMathLib(vm *VM) {
	tbl := newTable(0, 24)
	tbl.RawSet(LString("pi"), LNumber(math.Pi))
	tbl.RawSet(LString("huge"), LNumber(math.Inf(1)))

	reg := func(name string, fn GoFunction) { tbl.RawSet(LString(name), newGoFunction("math."+name, fn)) }

	reg("abs", math1("abs", math.Abs))
	reg("sin", math1("sin", math.Sin))
	reg("cos", math1("cos", math.Cos))
	reg("tan", math1("tan", math.Tan))
	reg("asin", math1("asin", math.Asin))
	reg("acos", math1("acos", math.Acos))
	reg("atan", math1("atan", math.Atan))
	reg("floor", math1("floor", math.Floor))
	reg("ceil", math1("ceil", math.Ceil))
	reg("exp", math1("exp", math.Exp))
	reg("sqrt", math1("sqrt", math.Sqrt))
	reg("deg", math1("deg", func(x float64) float64 { return x * 180 / math.Pi }))
	reg("rad", math1("rad", func(x float64) float64 { return x * math.Pi / 180 }))
	reg("log", mathLog)
	reg("fmod", mathFmod)
	reg("modf", mathModf)
	reg("min", mathMin)
	reg("max", mathMax)
	reg("random", mathRandom)

	vm.Globals.RawSet(LString("math"), tbl)
}

func checkNumberArg(fname string, args []LValue, idx int) (LNumber, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("bad argument #%d to '%s' (number expected, got no value)", idx+1, fname)
	}
	n, ok := ToNumber(args[idx])
	if !ok {
		return 0, fmt.Errorf("bad argument #%d to '%s' (number expected, got %s)", idx+1, fname, args[idx].Type())
	}
	return n, nil
}

func math1(name string, fn func(float64) float64) GoFunction {
	return func(vm *VM, args []LValue) ([]LValue, error) {
		n, err := checkNumberArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return []LValue{LNumber(fn(float64(n)))}, nil
	}
}

func mathLog(vm *VM, args []LValue) ([]LValue, error) {
	x, err := checkNumberArg("log", args, 0)
	if err != nil {
		return nil, err
	}
	if len(args) > 1 {
		base, err := checkNumberArg("log", args, 1)
		if err != nil {
			return nil, err
		}
		return []LValue{LNumber(math.Log(float64(x)) / math.Log(float64(base)))}, nil
	}
	return []LValue{LNumber(math.Log(float64(x)))}, nil
}

func mathFmod(vm *VM, args []LValue) ([]LValue, error) {
	x, err := checkNumberArg("fmod", args, 0)
	if err != nil {
		return nil, err
	}
	y, err := checkNumberArg("fmod", args, 1)
	if err != nil {
		return nil, err
	}
	return []LValue{LNumber(math.Mod(float64(x), float64(y)))}, nil
}

func mathModf(vm *VM, args []LValue) ([]LValue, error) {
	x, err := checkNumberArg("modf", args, 0)
	if err != nil {
		return nil, err
	}
	i, f := math.Modf(float64(x))
	return []LValue{LNumber(i), LNumber(f)}, nil
}

func mathMin(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("bad argument #1 to 'min' (number expected, got no value)")
	}
	best, err := checkNumberArg("min", args, 0)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(args); i++ {
		n, err := checkNumberArg("min", args, i)
		if err != nil {
			return nil, err
		}
		if n < best {
			best = n
		}
	}
	return []LValue{best}, nil
}

func mathMax(vm *VM, args []LValue) ([]LValue, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("bad argument #1 to 'max' (number expected, got no value)")
	}
	best, err := checkNumberArg("max", args, 0)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(args); i++ {
		n, err := checkNumberArg("max", args, i)
		if err != nil {
			return nil, err
		}
		if n > best {
			best = n
		}
	}
	return []LValue{best}, nil
}

func mathRandom(vm *VM, args []LValue) ([]LValue, error) {
	switch len(args) {
	case 0:
		return []LValue{LNumber(rand.Float64())}, nil
	case 1:
		m, err := checkNumberArg("random", args, 0)
		if err != nil {
			return nil, err
		}
		return []LValue{LNumber(1 + rand.Intn(int(m)))}, nil
	default:
		lo, err := checkNumberArg("random", args, 0)
		if err != nil {
			return nil, err
		}
		hi, err := checkNumberArg("random", args, 1)
		if err != nil {
			return nil, err
		}
		return []LValue{LNumber(int(lo) + rand.Intn(int(hi)-int(lo)+1))}, nil
	}
}

package lua

import (
	"fmt"
	"math"
)

// callClosure runs fn (a host function or a Lua closure) to completion
// on co and returns its result tuple. Runtime errors are signalled by
// panicking with an *ApiError; callers that need a plain error value
// recover at a coroutine/Run boundary (state.go, coroutine.go).
func (vm *VM) callClosure(co *Coroutine, fn *LFunction, args []LValue) []LValue {
	if fn.IsGo {
		results, err := fn.GoFn(vm, args)
		if err != nil {
			vm.raiseHost(co, err)
		}
		return results
	}
	if len(co.callStack) >= CallStackSize {
		vm.raiseRuntimeNoFrame(co, "stack overflow")
	}
	fr := newFrame(fn, args)
	co.callStack = append(co.callStack, fr)
	results := vm.execute(co, fr)
	co.callStack = co.callStack[:len(co.callStack)-1]
	return results
}

// call is the generic call operation: only functions are directly
// callable; anything else must provide __call, which is invoked with
// the original value prepended to the argument list.
func (vm *VM) call(co *Coroutine, callee LValue, args []LValue) []LValue {
	if fn, ok := callee.(*LFunction); ok {
		return vm.callClosure(co, fn, args)
	}
	if m := vm.metamethod(callee, "__call"); m != LNil {
		return vm.call(co, m, append([]LValue{callee}, args...))
	}
	vm.raiseRuntimeNoFrame(co, "attempt to call a %s value", callee.Type())
	return nil
}

func first(vals []LValue) LValue {
	if len(vals) == 0 {
		return LNil
	}
	return vals[0]
}

// raise builds a "source:line: message" ApiError from the faulting
// frame's position and panics with it; caught by the nearest
// Run/Resume boundary.
func (vm *VM) raise(co *Coroutine, fr *Frame, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	pos := fmt.Sprintf("%s:%d: ", fr.closure.Proto.SourceName, fr.closure.Proto.LineAt(fr.pc))
	panic(&ApiError{Value: LString(pos + msg), Traceback: co.traceback()})
}

// raiseRuntimeNoFrame is used by call sites (vm.call, metamethod glue)
// that don't have a *Frame at hand; it takes position from the top of
// co's Lua call stack, if any.
func (vm *VM) raiseRuntimeNoFrame(co *Coroutine, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if n := len(co.callStack); n > 0 {
		fr := co.callStack[n-1]
		msg = fmt.Sprintf("%s:%d: %s", fr.closure.Proto.SourceName, fr.closure.Proto.LineAt(fr.pc), msg)
	}
	panic(&ApiError{Value: LString(msg), Traceback: co.traceback()})
}

func (vm *VM) raiseHost(co *Coroutine, err error) {
	msg := err.Error()
	if n := len(co.callStack); n > 0 {
		fr := co.callStack[n-1]
		msg = fmt.Sprintf("%s:%d: %s", fr.closure.Proto.SourceName, fr.closure.Proto.LineAt(fr.pc), msg)
	}
	panic(&ApiError{Value: LString(msg), Traceback: co.traceback()})
}

func (co *Coroutine) traceback() []string {
	out := make([]string, 0, len(co.callStack))
	for i := len(co.callStack) - 1; i >= 0; i-- {
		fr := co.callStack[i]
		p := fr.closure.Proto
		out = append(out, fmt.Sprintf("%s:%d: in function <%s:%d>", p.SourceName, p.LineAt(fr.pc), p.SourceName, p.LineDefined))
	}
	return out
}

func rk(fr *Frame, proto *FunctionProto, operand int) LValue {
	if rkIsConst(operand) {
		return proto.Constants[rkConstIndex(operand)]
	}
	return fr.regs[operand]
}

// execute drives one prototype's instruction stream against fr's
// register file until a RETURN (or an in-place TAILCALL loop) produces
// a result tuple.
func (vm *VM) execute(co *Coroutine, fr *Frame) []LValue {
	proto := fr.closure.Proto
	code := proto.Code

	for {
		instr := code[fr.pc]
		op := decodeOp(instr)

		switch op {
		case OpMove:
			fr.regs[decodeA(instr)] = fr.regs[decodeB(instr)]

		case OpLoadK:
			fr.regs[decodeA(instr)] = proto.Constants[decodeBx(instr)]

		case OpLoadBool:
			a, b, c := decodeA(instr), decodeB(instr), decodeC(instr)
			fr.regs[a] = LBool(b != 0)
			if c != 0 {
				fr.pc++
			}

		case OpLoadNil:
			a, b := decodeA(instr), decodeB(instr)
			for i := a; i <= b; i++ {
				fr.regs[i] = LNil
			}

		case OpGetUpval:
			fr.regs[decodeA(instr)] = fr.closure.Upvalues[decodeB(instr)].Get()

		case OpSetUpval:
			fr.closure.Upvalues[decodeB(instr)].Set(fr.regs[decodeA(instr)])

		case OpGetGlobal:
			key := proto.Constants[decodeBx(instr)]
			fr.regs[decodeA(instr)] = vm.Globals.RawGet(key)

		case OpSetGlobal:
			key := proto.Constants[decodeBx(instr)]
			vm.Globals.RawSet(key, fr.regs[decodeA(instr)])

		case OpGetTable:
			a, b, c := decodeA(instr), decodeB(instr), decodeC(instr)
			tbl, ok := fr.regs[b].(*LTable)
			if !ok {
				vm.raise(co, fr, "attempt to index a %s value", fr.regs[b].Type())
			}
			fr.regs[a] = tbl.RawGet(rk(fr, proto, c))

		case OpSetTable:
			a, b, c := decodeA(instr), decodeB(instr), decodeC(instr)
			tbl, ok := fr.regs[a].(*LTable)
			if !ok {
				vm.raise(co, fr, "attempt to index a %s value", fr.regs[a].Type())
			}
			tbl.RawSet(rk(fr, proto, b), rk(fr, proto, c))

		case OpNewTable:
			a, b, c := decodeA(instr), decodeB(instr), decodeC(instr)
			fr.regs[a] = newTable(floatingByteToInt(b), floatingByteToInt(c))

		case OpSelf:
			a, b, c := decodeA(instr), decodeB(instr), decodeC(instr)
			recv := fr.regs[b]
			fr.regs[a+1] = recv
			tbl, ok := recv.(*LTable)
			if !ok {
				vm.raise(co, fr, "attempt to index a %s value", recv.Type())
			}
			fr.regs[a] = tbl.RawGet(rk(fr, proto, c))

		case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow:
			a, b, c := decodeA(instr), decodeB(instr), decodeC(instr)
			fr.regs[a] = vm.arith(co, fr, op, rk(fr, proto, b), rk(fr, proto, c))

		case OpUnm:
			a, b := decodeA(instr), decodeB(instr)
			fr.regs[a] = vm.unm(co, fr, fr.regs[b])

		case OpNot:
			a, b := decodeA(instr), decodeB(instr)
			fr.regs[a] = LBool(!Truthy(fr.regs[b]))

		case OpLen:
			a, b := decodeA(instr), decodeB(instr)
			fr.regs[a] = vm.length(co, fr, fr.regs[b])

		case OpConcat:
			a, b, c := decodeA(instr), decodeB(instr), decodeC(instr)
			val := fr.regs[c]
			for i := c - 1; i >= b; i-- {
				val = vm.concat(co, fr, fr.regs[i], val)
			}
			fr.regs[a] = val

		case OpJmp:
			a, sbx := decodeA(instr), decodeSBx(instr)
			if a > 0 {
				fr.closeFrom(a - 1)
			}
			fr.pc += sbx

		case OpEq, OpLt, OpLe:
			a, b, c := decodeA(instr), decodeB(instr), decodeC(instr)
			x, y := rk(fr, proto, b), rk(fr, proto, c)
			var result bool
			switch op {
			case OpEq:
				result = vm.equals(co, fr, x, y)
			case OpLt:
				result = vm.lessThan(co, fr, x, y)
			case OpLe:
				result = vm.lessEq(co, fr, x, y)
			}
			if result != (a != 0) {
				fr.pc++
			}

		case OpTest:
			a, c := decodeA(instr), decodeC(instr)
			if Truthy(fr.regs[a]) != (c != 0) {
				fr.pc++
			}

		case OpTestSet:
			a, b, c := decodeA(instr), decodeB(instr), decodeC(instr)
			if Truthy(fr.regs[b]) != (c != 0) {
				fr.pc++
			} else {
				fr.regs[a] = fr.regs[b]
			}

		case OpCall:
			a, b, c := decodeA(instr), decodeB(instr), decodeC(instr)
			var nargs int
			if b == 0 {
				nargs = fr.top - (a + 1)
			} else {
				nargs = b - 1
			}
			args := append([]LValue(nil), fr.regs[a+1:a+1+nargs]...)
			results := vm.call(co, fr.regs[a], args)
			if c == 0 {
				fr.growTo(a + len(results))
				fr.top = a + len(results)
				copy(fr.regs[a:], results)
			} else {
				nret := c - 1
				fr.growTo(a + nret)
				for i := 0; i < nret; i++ {
					if i < len(results) {
						fr.regs[a+i] = results[i]
					} else {
						fr.regs[a+i] = LNil
					}
				}
			}

		case OpTailCall:
			a, b := decodeA(instr), decodeB(instr)
			var nargs int
			if b == 0 {
				nargs = fr.top - (a + 1)
			} else {
				nargs = b - 1
			}
			args := append([]LValue(nil), fr.regs[a+1:a+1+nargs]...)
			callee := fr.regs[a]
			fr.closeAll()
			if lf, ok := callee.(*LFunction); ok && !lf.IsGo {
				fr.reset(lf, args)
				proto = fr.closure.Proto
				code = proto.Code
				continue
			}
			return vm.call(co, callee, args)

		case OpReturn:
			a, b := decodeA(instr), decodeB(instr)
			fr.closeAll()
			switch {
			case b == 0:
				return append([]LValue(nil), fr.regs[a:fr.top]...)
			case b == 1:
				return nil
			default:
				return append([]LValue(nil), fr.regs[a:a+b-1]...)
			}

		case OpForPrep:
			a := decodeA(instr)
			init, ok1 := ToNumber(fr.regs[a])
			limit, ok2 := ToNumber(fr.regs[a+1])
			step, ok3 := ToNumber(fr.regs[a+2])
			if !ok1 || !ok2 || !ok3 {
				vm.raise(co, fr, "'for' initial value must be a number")
			}
			fr.regs[a], fr.regs[a+1], fr.regs[a+2] = init-step, limit, step
			fr.pc += decodeSBx(instr)

		case OpForLoop:
			a := decodeA(instr)
			counter := fr.regs[a].(LNumber) + fr.regs[a+2].(LNumber)
			step := fr.regs[a+2].(LNumber)
			limit := fr.regs[a+1].(LNumber)
			cont := (step > 0 && counter <= limit) || (step <= 0 && counter >= limit)
			fr.regs[a] = counter
			if cont {
				fr.regs[a+3] = counter
				fr.pc += decodeSBx(instr)
			}

		case OpTForLoop:
			a, c := decodeA(instr), decodeC(instr)
			results := vm.call(co, fr.regs[a], []LValue{fr.regs[a+1], fr.regs[a+2]})
			fr.growTo(a + 3 + c)
			if len(results) == 0 || results[0] == LNil {
				fr.pc++
			} else {
				for i := 0; i < c; i++ {
					if i < len(results) {
						fr.regs[a+3+i] = results[i]
					} else {
						fr.regs[a+3+i] = LNil
					}
				}
				fr.regs[a+2] = fr.regs[a+3]
			}

		case OpSetList:
			a, b, c := decodeA(instr), decodeB(instr), decodeC(instr)
			count := b
			if b == 0 {
				count = fr.top - (a + 1)
			}
			extra := c
			if c == 0 {
				fr.pc++
				extra = int(code[fr.pc])
			}
			tbl, ok := fr.regs[a].(*LTable)
			if !ok {
				vm.raise(co, fr, "attempt to index a %s value", fr.regs[a].Type())
			}
			base := (extra - 1) * FieldsPerFlush
			for i := 1; i <= count; i++ {
				tbl.RawSetInt(base+i, fr.regs[a+i])
			}

		case OpClose:
			fr.closeFrom(decodeA(instr))

		case OpClosure:
			a, bx := decodeA(instr), decodeBx(instr)
			nested := proto.Prototypes[bx]
			ups := make([]*Upvalue, nested.NumUpvalues)
			for i := 0; i < int(nested.NumUpvalues); i++ {
				fr.pc++
				pseudo := code[fr.pc]
				switch decodeOp(pseudo) {
				case OpMove:
					ups[i] = fr.findUpvalue(decodeB(pseudo))
				case OpGetUpval:
					ups[i] = fr.closure.Upvalues[decodeB(pseudo)]
				default:
					vm.raise(co, fr, "invalid upvalue binding instruction")
				}
			}
			fr.regs[a] = newClosure(nested, ups)

		case OpVararg:
			a, b := decodeA(instr), decodeB(instr)
			if b == 0 {
				n := len(fr.varargs)
				fr.growTo(a + n)
				copy(fr.regs[a:], fr.varargs)
				fr.top = a + n
			} else {
				n := b - 1
				fr.growTo(a + n)
				for i := 0; i < n; i++ {
					if i < len(fr.varargs) {
						fr.regs[a+i] = fr.varargs[i]
					} else {
						fr.regs[a+i] = LNil
					}
				}
			}

		default:
			vm.raise(co, fr, "unknown opcode %d", op)
		}

		fr.pc++
	}
}

func arithEvent(op int) string {
	switch op {
	case OpAdd:
		return "__add"
	case OpSub:
		return "__sub"
	case OpMul:
		return "__mul"
	case OpDiv:
		return "__div"
	case OpMod:
		return "__mod"
	case OpPow:
		return "__pow"
	}
	return ""
}

func applyArith(op int, x, y float64) float64 {
	switch op {
	case OpAdd:
		return x + y
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpDiv:
		return x / y
	case OpMod:
		m := math.Mod(x, y)
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return m
	case OpPow:
		return math.Pow(x, y)
	}
	return 0
}

// arith dispatches an arithmetic operator: native number operation
// first (numbers, or strings coercible to numbers), then __add/__sub/...
// on the left operand, then the right.
func (vm *VM) arith(co *Coroutine, fr *Frame, op int, x, y LValue) LValue {
	if xn, ok := ToNumber(x); ok {
		if yn, ok2 := ToNumber(y); ok2 {
			return LNumber(applyArith(op, float64(xn), float64(yn)))
		}
	}
	if m := vm.metamethodEither(x, y, arithEvent(op)); m != LNil {
		return first(vm.call(co, m, []LValue{x, y}))
	}
	bad := x
	if _, ok := ToNumber(x); ok {
		bad = y
	}
	vm.raise(co, fr, "attempt to perform arithmetic on a %s value", bad.Type())
	return LNil
}

func (vm *VM) unm(co *Coroutine, fr *Frame, x LValue) LValue {
	if xn, ok := ToNumber(x); ok {
		return -xn
	}
	if m := vm.metamethod(x, "__unm"); m != LNil {
		return first(vm.call(co, m, []LValue{x, x}))
	}
	vm.raise(co, fr, "attempt to perform arithmetic on a %s value", x.Type())
	return LNil
}

// concat handles the `..` operator: numbers decimal-formatted, strings
// concatenated byte-wise, otherwise __concat (left operand first).
func (vm *VM) concat(co *Coroutine, fr *Frame, a, b LValue) LValue {
	as, aOk := concatOperand(a)
	bs, bOk := concatOperand(b)
	if aOk && bOk {
		return LString(as + bs)
	}
	if m := vm.metamethodEither(a, b, "__concat"); m != LNil {
		return first(vm.call(co, m, []LValue{a, b}))
	}
	bad := a
	if aOk {
		bad = b
	}
	vm.raise(co, fr, "attempt to concatenate a %s value", bad.Type())
	return LNil
}

func concatOperand(v LValue) (string, bool) {
	switch lv := v.(type) {
	case LString:
		return string(lv), true
	case LNumber:
		return lv.String(), true
	}
	return "", false
}

// length implements the `#` operator: byte count for strings, array
// length (or __len) for tables.
func (vm *VM) length(co *Coroutine, fr *Frame, v LValue) LValue {
	switch lv := v.(type) {
	case LString:
		return LNumber(len(lv))
	case *LTable:
		if m := vm.metamethod(lv, "__len"); m != LNil {
			return first(vm.call(co, m, []LValue{v}))
		}
		return LNumber(lv.Len())
	}
	vm.raise(co, fr, "attempt to get length of a %s value", v.Type())
	return LNil
}

func sameFunc(a, b LValue) bool {
	fa, ok1 := a.(*LFunction)
	fb, ok2 := b.(*LFunction)
	return ok1 && ok2 && fa == fb
}

// equals implements `==`: different types are never equal; primitives
// by value; tables/functions/threads by identity unless a shared __eq
// metamethod says otherwise.
func (vm *VM) equals(co *Coroutine, fr *Frame, a, b LValue) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case *LNilType:
		return true
	case LBool:
		return av == b.(LBool)
	case LNumber:
		return av == b.(LNumber)
	case LString:
		return av == b.(LString)
	case *LTable:
		bv := b.(*LTable)
		if av == bv {
			return true
		}
		ma := vm.metamethod(av, "__eq")
		mb := vm.metamethod(bv, "__eq")
		if ma != LNil && mb != LNil && sameFunc(ma, mb) {
			return Truthy(first(vm.call(co, ma, []LValue{a, b})))
		}
		return false
	case *LFunction:
		return av == b.(*LFunction)
	case *Coroutine:
		return av == b.(*Coroutine)
	}
	return false
}

// lessThan implements the order comparison for `<`.
func (vm *VM) lessThan(co *Coroutine, fr *Frame, a, b LValue) bool {
	if an, ok := a.(LNumber); ok {
		if bn, ok2 := b.(LNumber); ok2 {
			return an < bn
		}
	}
	if as, ok := a.(LString); ok {
		if bs, ok2 := b.(LString); ok2 {
			return as < bs
		}
	}
	ma := vm.metamethod(a, "__lt")
	mb := vm.metamethod(b, "__lt")
	if ma != LNil && mb != LNil && sameFunc(ma, mb) {
		return Truthy(first(vm.call(co, ma, []LValue{a, b})))
	}
	vm.raise(co, fr, "attempt to compare %s with %s", a.Type(), b.Type())
	return false
}

// lessEq implements `<=`, falling back to `not (b < a)` via a shared
// __lt when __le is absent.
func (vm *VM) lessEq(co *Coroutine, fr *Frame, a, b LValue) bool {
	if an, ok := a.(LNumber); ok {
		if bn, ok2 := b.(LNumber); ok2 {
			return an <= bn
		}
	}
	if as, ok := a.(LString); ok {
		if bs, ok2 := b.(LString); ok2 {
			return as <= bs
		}
	}
	ma := vm.metamethod(a, "__le")
	mb := vm.metamethod(b, "__le")
	if ma != LNil && mb != LNil && sameFunc(ma, mb) {
		return Truthy(first(vm.call(co, ma, []LValue{a, b})))
	}
	ma = vm.metamethod(a, "__lt")
	mb = vm.metamethod(b, "__lt")
	if ma != LNil && mb != LNil && sameFunc(ma, mb) {
		return !Truthy(first(vm.call(co, ma, []LValue{b, a})))
	}
	vm.raise(co, fr, "attempt to compare %s with %s", a.Type(), b.Type())
	return false
}

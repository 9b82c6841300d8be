package lua

// Frame is one call's execution state: a register file sized to the
// prototype's max_stack_size, a program counter, a "top" watermark used
// by the multi-result opcodes (CALL/VARARG/SETLIST with B=0/C=0), the
// vararg overflow for a vararg function, and the open upvalues that
// still alias this frame's registers.
type Frame struct {
	closure *LFunction
	regs    []LValue
	pc      int
	top     int
	varargs []LValue
	open    []*Upvalue
}

func newFrame(closure *LFunction, args []LValue) *Frame {
	proto := closure.Proto
	size := int(proto.NumUsedRegisters)
	if size < int(proto.NumParameters) {
		size = int(proto.NumParameters)
	}
	fr := &Frame{
		closure: closure,
		regs:    make([]LValue, size),
		top:     size,
	}
	for i := range fr.regs {
		fr.regs[i] = LNil
	}
	np := int(proto.NumParameters)
	for i := 0; i < np && i < len(args); i++ {
		fr.regs[i] = args[i]
	}
	if proto.IsVarArg != 0 && len(args) > np {
		fr.varargs = append([]LValue(nil), args[np:]...)
	}
	return fr
}

// reset reinstalls fr in place for a new closure/args pair, used by
// TAILCALL to preserve constant stack depth.
func (fr *Frame) reset(closure *LFunction, args []LValue) {
	fr.closeAll()
	proto := closure.Proto
	size := int(proto.NumUsedRegisters)
	if size < int(proto.NumParameters) {
		size = int(proto.NumParameters)
	}
	if cap(fr.regs) < size {
		fr.regs = make([]LValue, size)
	} else {
		fr.regs = fr.regs[:size]
	}
	for i := range fr.regs {
		fr.regs[i] = LNil
	}
	fr.closure = closure
	fr.pc = 0
	fr.top = size
	fr.varargs = nil
	np := int(proto.NumParameters)
	for i := 0; i < np && i < len(args); i++ {
		fr.regs[i] = args[i]
	}
	if proto.IsVarArg != 0 && len(args) > np {
		fr.varargs = append([]LValue(nil), args[np:]...)
	}
}

// findUpvalue returns the open upvalue aliasing register index, creating
// one if this frame has none yet for that slot. Two CLOSURE pseudo-MOVE
// instructions naming the same register receive the same cell, so
// nested closures that capture the same local share one upvalue.
func (fr *Frame) findUpvalue(index int) *Upvalue {
	for _, uv := range fr.open {
		if !uv.closed && uv.index == index {
			return uv
		}
	}
	uv := newOpenUpvalue(fr, index)
	fr.open = append(fr.open, uv)
	return uv
}

// closeFrom closes every open upvalue with register index >= level, as
// RETURN, CLOSE and scope-ending JMP require.
func (fr *Frame) closeFrom(level int) {
	kept := fr.open[:0]
	for _, uv := range fr.open {
		if uv.index >= level {
			uv.Close()
		} else {
			kept = append(kept, uv)
		}
	}
	fr.open = kept
}

func (fr *Frame) closeAll() {
	for _, uv := range fr.open {
		uv.Close()
	}
	fr.open = nil
}

func (fr *Frame) growTo(n int) {
	if n <= len(fr.regs) {
		return
	}
	grown := make([]LValue, n)
	copy(grown, fr.regs)
	for i := len(fr.regs); i < n; i++ {
		grown[i] = LNil
	}
	fr.regs = grown
}

package lua

// Upvalue is a shared mutable cell. While open it aliases a register of
// a live Frame; closing copies the value out and severs the alias. Two
// closures created at the same source position in the same frame share
// the same *Upvalue (see Frame.findUpvalue).
type Upvalue struct {
	frame  *Frame
	index  int
	closed bool
	value  LValue
}

func newOpenUpvalue(fr *Frame, index int) *Upvalue {
	return &Upvalue{frame: fr, index: index}
}

func (uv *Upvalue) Get() LValue {
	if uv.closed {
		return uv.value
	}
	return uv.frame.regs[uv.index]
}

func (uv *Upvalue) Set(v LValue) {
	if uv.closed {
		uv.value = v
		return
	}
	uv.frame.regs[uv.index] = v
}

// Close transitions the cell from open to closed, copying the current
// value out of the frame's register file. One-way: it never reopens.
func (uv *Upvalue) Close() {
	if uv.closed {
		return
	}
	uv.value = uv.frame.regs[uv.index]
	uv.closed = true
	uv.frame = nil
}

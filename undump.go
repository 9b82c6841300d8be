package lua

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Signature is the fixed 4-byte magic every .luac file begins with.
var Signature = [4]byte{0x1B, 0x4C, 0x75, 0x61}

const luaVersion51 = 0x51
const luaFormatOfficial = 0

// FormatError is the chunk-format error family: raised by the binary
// reader, never recoverable inside the script, and distinct from a
// runtime ApiError.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return "bad binary chunk: " + e.Msg }

func formatErrorf(format string, args ...interface{}) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// header mirrors the 8 fixed bytes following the signature, as read by
// undumpState.readHeader. Grounded on lastvoidtemplar/golua51's
// disassembler header struct, generalized to honor every declared size
// instead of assuming 4/4/4/8.
type header struct {
	version      byte
	format       byte
	littleEndian bool
	sizeInt      int
	sizeSizeT    int
	sizeInstr    int
	sizeNumber   int
	integral     bool
}

// undumpState is the binary chunk reader: it owns the byte order and
// declared sizes for the rest of the stream and turns them into a tree
// of *FunctionProto.
type undumpState struct {
	in  io.Reader
	hdr header
}

func (ud *undumpState) order() binary.ByteOrder {
	if ud.hdr.littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (ud *undumpState) readBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(ud.in, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (ud *undumpState) readByte() (byte, error) {
	buf, err := ud.readBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (ud *undumpState) readBool() (bool, error) {
	b, err := ud.readByte()
	return b != 0, err
}

// readSizedUint reads a declared-width unsigned integer (used for the
// `int` and `size_t` fields, whose byte widths are header-declared).
func (ud *undumpState) readSizedUint(size int) (uint64, error) {
	buf, err := ud.readBytes(size)
	if err != nil {
		return 0, err
	}
	var v uint64
	order := ud.order()
	switch size {
	case 1:
		v = uint64(buf[0])
	case 2:
		v = uint64(order.Uint16(buf))
	case 4:
		v = uint64(order.Uint32(buf))
	case 8:
		v = order.Uint64(buf)
	default:
		return 0, formatErrorf("unsupported integer size %d", size)
	}
	return v, nil
}

func (ud *undumpState) readInt() (int, error) {
	v, err := ud.readSizedUint(ud.hdr.sizeInt)
	if err != nil {
		return 0, err
	}
	n := int(int32(v))
	if n < 0 {
		return 0, formatErrorf("negative count or position %d", n)
	}
	return n, nil
}

func (ud *undumpState) readSize() (int, error) {
	v, err := ud.readSizedUint(ud.hdr.sizeSizeT)
	return int(v), err
}

func (ud *undumpState) readInstruction() (uint32, error) {
	v, err := ud.readSizedUint(ud.hdr.sizeInstr)
	return uint32(v), err
}

// readNumber reads one Lua number, honoring the header's integral flag
// and declared width; every width is normalized to float64 here.
func (ud *undumpState) readNumber() (LNumber, error) {
	buf, err := ud.readBytes(ud.hdr.sizeNumber)
	if err != nil {
		return 0, err
	}
	order := ud.order()
	if ud.hdr.integral {
		var v int64
		switch ud.hdr.sizeNumber {
		case 4:
			v = int64(int32(order.Uint32(buf)))
		case 8:
			v = int64(order.Uint64(buf))
		default:
			return 0, formatErrorf("unsupported integral number size %d", ud.hdr.sizeNumber)
		}
		return LNumber(v), nil
	}
	switch ud.hdr.sizeNumber {
	case 4:
		bits := order.Uint32(buf)
		return LNumber(math.Float32frombits(bits)), nil
	case 8:
		bits := order.Uint64(buf)
		return LNumber(math.Float64frombits(bits)), nil
	default:
		return 0, formatErrorf("unsupported float number size %d", ud.hdr.sizeNumber)
	}
}

// readString reads a Lua string: a size_t-prefixed byte blob. Length 0
// denotes a nil string; otherwise length-1 payload bytes plus a trailing
// NUL follow.
func (ud *undumpState) readString() (string, error) {
	size, err := ud.readSize()
	if err != nil {
		return "", err
	}
	if size == 0 {
		return "", nil
	}
	buf, err := ud.readBytes(size)
	if err != nil {
		return "", err
	}
	return string(buf[:len(buf)-1]), nil
}

func (ud *undumpState) readHeader() error {
	sig, err := ud.readBytes(4)
	if err != nil {
		return formatErrorf("short header: %v", err)
	}
	if sig[0] != Signature[0] || sig[1] != Signature[1] || sig[2] != Signature[2] || sig[3] != Signature[3] {
		return formatErrorf("not a precompiled chunk (bad signature)")
	}
	rest, err := ud.readBytes(8)
	if err != nil {
		return formatErrorf("short header: %v", err)
	}
	version, format, endian := rest[0], rest[1], rest[2]
	if version != luaVersion51 {
		return formatErrorf("unsupported bytecode version 0x%02x (want 0x%02x)", version, luaVersion51)
	}
	if format != luaFormatOfficial {
		return formatErrorf("unsupported bytecode format %d", format)
	}
	if endian > 1 {
		return formatErrorf("invalid endianness byte %d", endian)
	}
	ud.hdr = header{
		version:      version,
		format:       format,
		littleEndian: endian == 1,
		sizeInt:      int(rest[3]),
		sizeSizeT:    int(rest[4]),
		sizeInstr:    int(rest[5]),
		sizeNumber:   int(rest[6]),
		integral:     rest[7] != 0,
	}
	return nil
}

func (ud *undumpState) readCode() ([]uint32, error) {
	n, err := ud.readInt()
	if err != nil {
		return nil, err
	}
	code := make([]uint32, n)
	for i := range code {
		if code[i], err = ud.readInstruction(); err != nil {
			return nil, err
		}
	}
	return code, nil
}

// constant tags: 0=nil, 1=bool, 3=number, 4=string.
const (
	constTagNil    = 0
	constTagBool   = 1
	constTagNumber = 3
	constTagString = 4
)

func (ud *undumpState) readConstants() ([]LValue, error) {
	n, err := ud.readInt()
	if err != nil {
		return nil, err
	}
	consts := make([]LValue, n)
	for i := 0; i < n; i++ {
		tag, err := ud.readByte()
		if err != nil {
			return nil, err
		}
		switch tag {
		case constTagNil:
			consts[i] = LNil
		case constTagBool:
			b, err := ud.readBool()
			if err != nil {
				return nil, err
			}
			consts[i] = LBool(b)
		case constTagNumber:
			n, err := ud.readNumber()
			if err != nil {
				return nil, err
			}
			consts[i] = n
		case constTagString:
			s, err := ud.readString()
			if err != nil {
				return nil, err
			}
			consts[i] = LString(s)
		default:
			return nil, formatErrorf("unknown constant tag %d", tag)
		}
	}
	return consts, nil
}

// stripSourceMarker drops the leading `@` (file source) or `=` (labelled
// source) marker Lua's compiler prefixes source names with, leaving the
// plain display name.
func stripSourceMarker(s string) string {
	if len(s) > 0 && (s[0] == '@' || s[0] == '=') {
		return s[1:]
	}
	return s
}

func (ud *undumpState) readFunction() (*FunctionProto, error) {
	p := newFunctionProto("")
	var err error

	if p.SourceName, err = ud.readString(); err != nil {
		return nil, err
	}
	p.SourceName = stripSourceMarker(p.SourceName)
	if p.LineDefined, err = ud.readInt(); err != nil {
		return nil, err
	}
	if p.LastLineDefined, err = ud.readInt(); err != nil {
		return nil, err
	}
	if p.NumUpvalues, err = ud.readByte(); err != nil {
		return nil, err
	}
	if p.NumParameters, err = ud.readByte(); err != nil {
		return nil, err
	}
	if p.IsVarArg, err = ud.readByte(); err != nil {
		return nil, err
	}
	if p.NumUsedRegisters, err = ud.readByte(); err != nil {
		return nil, err
	}
	if p.Code, err = ud.readCode(); err != nil {
		return nil, err
	}
	if p.Constants, err = ud.readConstants(); err != nil {
		return nil, err
	}

	numProtos, err := ud.readInt()
	if err != nil {
		return nil, err
	}
	p.Prototypes = make([]*FunctionProto, numProtos)
	for i := 0; i < numProtos; i++ {
		if p.Prototypes[i], err = ud.readFunction(); err != nil {
			return nil, err
		}
	}

	numLines, err := ud.readInt()
	if err != nil {
		return nil, err
	}
	p.DbgSourcePositions = make([]int, numLines)
	for i := 0; i < numLines; i++ {
		if p.DbgSourcePositions[i], err = ud.readInt(); err != nil {
			return nil, err
		}
	}

	numLocals, err := ud.readInt()
	if err != nil {
		return nil, err
	}
	p.DbgLocals = make([]*DbgLocalInfo, numLocals)
	for i := 0; i < numLocals; i++ {
		name, err := ud.readString()
		if err != nil {
			return nil, err
		}
		startPC, err := ud.readInt()
		if err != nil {
			return nil, err
		}
		endPC, err := ud.readInt()
		if err != nil {
			return nil, err
		}
		p.DbgLocals[i] = &DbgLocalInfo{Name: name, StartPC: startPC, EndPC: endPC}
	}

	numUpvalNames, err := ud.readInt()
	if err != nil {
		return nil, err
	}
	p.DbgUpvalues = make([]string, numUpvalNames)
	for i := 0; i < numUpvalNames; i++ {
		if p.DbgUpvalues[i], err = ud.readString(); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Undump parses a complete .luac byte stream into its top-level
// prototype. Any deviation from the expected layout is a *FormatError.
func Undump(r io.Reader) (*FunctionProto, error) {
	ud := &undumpState{in: r}
	if err := ud.readHeader(); err != nil {
		return nil, err
	}
	p, err := ud.readFunction()
	if err != nil {
		if _, ok := err.(*FormatError); !ok {
			return nil, formatErrorf("truncated chunk: %v", err)
		}
		return nil, err
	}
	return p, nil
}

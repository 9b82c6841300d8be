package lua

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// luacBuilder assembles a minimal valid .luac byte stream by hand,
// since this repo has no source compiler to produce one.
type luacBuilder struct {
	buf bytes.Buffer
}

func newLuacBuilder() *luacBuilder {
	b := &luacBuilder{}
	b.buf.Write(Signature[:])
	b.buf.Write([]byte{luaVersion51, luaFormatOfficial, 1, 4, 4, 4, 8, 0}) // little-endian, no integral numbers
	return b
}

func (b *luacBuilder) writeInt(v int32) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *luacBuilder) writeByte(v byte) { b.buf.WriteByte(v) }
func (b *luacBuilder) writeSize(v uint32) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *luacBuilder) writeNumber(v float64) { binary.Write(&b.buf, binary.LittleEndian, v) }

func (b *luacBuilder) writeString(s string) {
	if s == "" {
		b.writeSize(0)
		return
	}
	b.writeSize(uint32(len(s) + 1))
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
}

// writeProto writes one prototype with no nested functions, using code
// as the raw instruction stream and consts as its constant pool.
func (b *luacBuilder) writeProto(name string, nparams, isVararg, maxStack byte, code []uint32, consts []LValue) {
	b.writeString(name)
	b.writeInt(0)
	b.writeInt(0)
	b.writeByte(0) // upvalue count
	b.writeByte(nparams)
	b.writeByte(isVararg)
	b.writeByte(maxStack)

	b.writeInt(int32(len(code)))
	for _, w := range code {
		binary.Write(&b.buf, binary.LittleEndian, w)
	}

	b.writeInt(int32(len(consts)))
	for _, k := range consts {
		switch v := k.(type) {
		case *LNilType:
			b.writeByte(constTagNil)
		case LBool:
			b.writeByte(constTagBool)
			if v {
				b.writeByte(1)
			} else {
				b.writeByte(0)
			}
		case LNumber:
			b.writeByte(constTagNumber)
			b.writeNumber(float64(v))
		case LString:
			b.writeByte(constTagString)
			b.writeString(string(v))
		}
	}

	b.writeInt(0) // nested prototypes
	b.writeInt(int32(len(code)))
	for range code {
		b.writeInt(1)
	}
	b.writeInt(0) // locals
	b.writeInt(0) // upvalue names
}

func TestUndumpRejectsBadSignature(t *testing.T) {
	buf := []byte{0, 0, 0, 0}
	_, err := Undump(bytes.NewReader(buf))
	require.Error(t, err)
	_, ok := err.(*FormatError)
	assert.True(t, ok, "expected a *FormatError, got %T", err)
}

func TestUndumpRejectsUnsupportedVersion(t *testing.T) {
	b := &luacBuilder{}
	b.buf.Write(Signature[:])
	b.buf.Write([]byte{0x52, 0, 1, 4, 4, 4, 8, 0})
	_, err := Undump(&b.buf)
	require.Error(t, err)
	_, ok := err.(*FormatError)
	assert.True(t, ok)
}

func TestUndumpRoundTripsInstructionsAndConstants(t *testing.T) {
	b := newLuacBuilder()
	code := []uint32{
		encodeABx(OpLoadK, 0, 0),
		encodeABC(OpReturn, 0, 2, 0),
	}
	consts := []LValue{LNumber(42)}
	b.writeProto("@test.lua", 0, 0, 2, code, consts)

	proto, err := Undump(&b.buf)
	require.NoError(t, err)
	assert.Equal(t, "test.lua", proto.SourceName)
	require.Len(t, proto.Constants, 1)
	assert.Equal(t, LNumber(42), proto.Constants[0])
	require.Len(t, proto.Code, 2)
	assert.Equal(t, code[0], proto.Code[0])
	assert.Equal(t, code[1], proto.Code[1])
}

func TestUndumpBigEndianAndIntegralNumbers(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Signature[:])
	buf.Write([]byte{luaVersion51, luaFormatOfficial, 0, 4, 4, 4, 4, 1}) // big-endian, 4-byte integral numbers

	writeIntBE := func(v int32) { binary.Write(&buf, binary.BigEndian, v) }
	writeStringBE := func(s string) {
		if s == "" {
			writeIntBE(0)
			return
		}
		binary.Write(&buf, binary.BigEndian, uint32(len(s)+1))
		buf.WriteString(s)
		buf.WriteByte(0)
	}

	writeStringBE("@t.lua")
	writeIntBE(0)
	writeIntBE(0)
	buf.WriteByte(0)
	buf.WriteByte(0)
	buf.WriteByte(0)
	buf.WriteByte(1)

	code := []uint32{encodeABC(OpReturn, 0, 1, 0)}
	writeIntBE(int32(len(code)))
	for _, w := range code {
		binary.Write(&buf, binary.BigEndian, w)
	}
	writeIntBE(1)
	buf.WriteByte(constTagNumber)
	binary.Write(&buf, binary.BigEndian, int32(7))
	writeIntBE(0) // protos
	writeIntBE(1)
	writeIntBE(1)
	writeIntBE(0) // locals
	writeIntBE(0) // upvalue names

	proto, err := Undump(&buf)
	require.NoError(t, err)
	assert.Equal(t, "t.lua", proto.SourceName)
	require.Len(t, proto.Constants, 1)
	assert.Equal(t, LNumber(7), proto.Constants[0])
}

package lua

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LValueType tags the dynamic type of an LValue.
type LValueType int

const (
	LTNil LValueType = iota
	LTBoolean
	LTNumber
	LTString
	LTFunction
	LTTable
	LTThread
)

func (t LValueType) String() string {
	switch t {
	case LTNil:
		return "nil"
	case LTBoolean:
		return "boolean"
	case LTNumber:
		return "number"
	case LTString:
		return "string"
	case LTFunction:
		return "function"
	case LTTable:
		return "table"
	case LTThread:
		return "thread"
	}
	return "unknown"
}

// LValue is any Lua runtime value. Booleans, numbers and strings are
// represented by value and nil by the single LNil pointer, so that
// `v == LNil` comparisons work directly; tables, functions and threads
// are represented by pointer identity.
type LValue interface {
	String() string
	Type() LValueType
}

// LNilType is the dynamic type of the Lua nil singleton.
type LNilType struct{}

func (*LNilType) String() string   { return "nil" }
func (*LNilType) Type() LValueType { return LTNil }

// LNil is the one and only nil value. Because LNilType is comparable and
// zero-sized, `v == LNil` is a valid and cheap identity check.
var LNil = LValue(&LNilType{})

// LBool is a Lua boolean.
type LBool bool

const (
	LTrue  = LBool(true)
	LFalse = LBool(false)
)

func (b LBool) String() string {
	if bool(b) {
		return "true"
	}
	return "false"
}
func (LBool) Type() LValueType { return LTBoolean }

// LNumber is a Lua number: a 64-bit IEEE-754 double, the default width
// used regardless of whatever alternate width a chunk's header declares.
type LNumber float64

func (n LNumber) String() string {
	return numberToString(float64(n))
}
func (LNumber) Type() LValueType { return LTNumber }

func numberToString(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', 14, 64)
}

// LString is an immutable Lua string: a byte sequence, compared and
// concatenated byte-wise.
type LString string

func (s LString) String() string  { return string(s) }
func (LString) Type() LValueType  { return LTString }

// parseNumber implements the "string that parses as a number" coercion
// used by arithmetic and tonumber.
func parseNumber(s string) (LNumber, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") ||
		strings.HasPrefix(s, "-0x") || strings.HasPrefix(s, "-0X") {
		neg := false
		t := s
		if strings.HasPrefix(t, "-") {
			neg = true
			t = t[1:]
		}
		iv, err := strconv.ParseUint(t[2:], 16, 64)
		if err != nil {
			return 0, false
		}
		f := float64(iv)
		if neg {
			f = -f
		}
		return LNumber(f), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return LNumber(f), true
}

// ToNumber attempts the standard Lua numeric coercion for v (number as
// itself, string parsed as a number). It does not consult metamethods.
func ToNumber(v LValue) (LNumber, bool) {
	switch lv := v.(type) {
	case LNumber:
		return lv, true
	case LString:
		return parseNumber(string(lv))
	}
	return 0, false
}

// ToStringValue implements the "to-print"/tostring coercion for values;
// this core has no __tostring metamethod, so every value formats this way.
func ToStringValue(v LValue) string {
	switch lv := v.(type) {
	case *LNilType:
		return "nil"
	case LBool:
		return lv.String()
	case LNumber:
		return lv.String()
	case LString:
		return string(lv)
	case *LTable:
		return fmt.Sprintf("table: %p", lv)
	case *LFunction:
		return fmt.Sprintf("function: %p", lv)
	case *Coroutine:
		return fmt.Sprintf("thread: %p", lv)
	}
	return fmt.Sprintf("%v: %p", v.Type().String(), v)
}

// Truthy implements Lua truthiness: everything except nil and false is true.
func Truthy(v LValue) bool {
	switch lv := v.(type) {
	case *LNilType:
		return false
	case LBool:
		return bool(lv)
	}
	return true
}

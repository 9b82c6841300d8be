package lua

// LTable is a hybrid array+hash table: a dense array part for positive
// integer keys starting at 1, a hash part for everything else, and an
// insertion-order key log so pairs/next have a stable traversal.
// Grounded on gopher-lua's table.go/ltable.go, trimmed to a raw-access-
// only core (no __index/__newindex chase).
type LTable struct {
	Metatable LValue

	array []LValue
	dict  map[LValue]LValue
	keys  []LValue
	keyIdx map[LValue]int
}

const defaultArrayCap = 8
const defaultHashCap = 8

func newTable(acap, hcap int) *LTable {
	if acap < 0 {
		acap = 0
	}
	if hcap < 0 {
		hcap = 0
	}
	tb := &LTable{Metatable: LNil}
	if acap > 0 {
		tb.array = make([]LValue, 0, acap)
	}
	if hcap > 0 {
		tb.dict = make(map[LValue]LValue, hcap)
		tb.keys = make([]LValue, 0, hcap)
		tb.keyIdx = make(map[LValue]int, hcap)
	}
	return tb
}

// NewTable constructs an empty table, pre-sizing the array part to acap
// entries as NEWTABLE's floating-byte hint requests.
func NewTable(acap, hcap int) *LTable {
	return newTable(acap, hcap)
}

func (tb *LTable) String() string  { return "table" }
func (*LTable) Type() LValueType   { return LTTable }

// normalizeKey rebuilds an integral number key from its int value; the
// key stays an LNumber (float64), so 1 and 1.0 are the same key and -0
// becomes 0. A NaN key falls through as a plain map lookup miss rather
// than raising an error.
func normalizeKey(key LValue) LValue {
	if n, ok := key.(LNumber); ok {
		f := float64(n)
		if i := int(f); float64(i) == f {
			return LNumber(i)
		}
	}
	return key
}

func isArrayIndex(key LValue) (int, bool) {
	n, ok := key.(LNumber)
	if !ok {
		return 0, false
	}
	f := float64(n)
	i := int(f)
	if float64(i) != f || i < 1 {
		return 0, false
	}
	return i, true
}

func (tb *LTable) recordKey(key LValue) {
	if tb.keyIdx == nil {
		tb.keyIdx = make(map[LValue]int)
	}
	if _, ok := tb.keyIdx[key]; ok {
		return
	}
	tb.keyIdx[key] = len(tb.keys)
	tb.keys = append(tb.keys, key)
}

func (tb *LTable) forgetKey(key LValue) {
	idx, ok := tb.keyIdx[key]
	if !ok {
		return
	}
	delete(tb.keyIdx, key)
	tb.keys = append(tb.keys[:idx], tb.keys[idx+1:]...)
	for k, i := range tb.keyIdx {
		if i > idx {
			tb.keyIdx[k] = i - 1
		}
	}
}

// RawGet performs metamethod-free indexing. GETTABLE/SELF in the frame
// executor call this directly rather than chasing __index.
func (tb *LTable) RawGet(key LValue) LValue {
	key = normalizeKey(key)
	if i, ok := isArrayIndex(key); ok && i <= len(tb.array) {
		return tb.array[i-1]
	}
	if tb.dict == nil {
		return LNil
	}
	if v, ok := tb.dict[key]; ok {
		return v
	}
	return LNil
}

func (tb *LTable) RawGetInt(i int) LValue {
	if i >= 1 && i <= len(tb.array) {
		return tb.array[i-1]
	}
	if tb.dict == nil {
		return LNil
	}
	if v, ok := tb.dict[LNumber(i)]; ok {
		return v
	}
	return LNil
}

// RawSet performs metamethod-free table assignment. Writing a nil value
// does NOT remove the key from the insertion-order log (standard Lua
// would delete it); the key stays a valid pivot for next() even though
// it is filtered out of forward iteration once its value is nil.
func (tb *LTable) RawSet(key LValue, value LValue) {
	key = normalizeKey(key)
	if key == LNil {
		return
	}
	if i, ok := isArrayIndex(key); ok {
		if i <= len(tb.array) {
			tb.array[i-1] = value
			return
		}
		if i == len(tb.array)+1 {
			tb.array = append(tb.array, value)
			// absorb any hash-part entries that now extend the array run
			for {
				next := LNumber(len(tb.array) + 1)
				v, ok := tb.dict[next]
				if !ok {
					break
				}
				tb.array = append(tb.array, v)
				delete(tb.dict, next)
				tb.forgetKey(next)
			}
			return
		}
	}
	if tb.dict == nil {
		tb.dict = make(map[LValue]LValue, defaultHashCap)
	}
	tb.dict[key] = value
	tb.recordKey(key)
}

func (tb *LTable) RawSetInt(i int, value LValue) {
	tb.RawSet(LNumber(i), value)
}

// Len implements the `#` operator on tables: an n such that t[n] ~= nil
// and t[n+1] == nil, scanning the array part.
func (tb *LTable) Len() int {
	n := len(tb.array)
	for n > 0 && tb.array[n-1] == LNil {
		n--
	}
	if n == len(tb.array) {
		// array part is fully populated; keep probing the hash part for a
		// contiguous continuation, as a plain array-backed table would.
		for tb.RawGetInt(n+1) != LNil {
			n++
		}
	}
	return n
}

// Next implements next(t, key): insertion-order traversal across the
// array part (by index) followed by the hash part's key log.
func (tb *LTable) Next(key LValue) (LValue, LValue, bool) {
	if key == LNil {
		for i, v := range tb.array {
			if v != LNil {
				return LNumber(i + 1), v, true
			}
		}
		return tb.nextHash(-1)
	}
	key = normalizeKey(key)
	if i, ok := isArrayIndex(key); ok && i <= len(tb.array) {
		for j := i; j < len(tb.array); j++ {
			if tb.array[j] != LNil {
				return LNumber(j + 1), tb.array[j], true
			}
		}
		return tb.nextHash(-1)
	}
	idx, ok := tb.keyIdx[key]
	if !ok {
		return LNil, LNil, false
	}
	return tb.nextHash(idx)
}

func (tb *LTable) nextHash(after int) (LValue, LValue, bool) {
	for i := after + 1; i < len(tb.keys); i++ {
		k := tb.keys[i]
		if v, ok := tb.dict[k]; ok && v != LNil {
			return k, v, true
		}
	}
	return LNil, LNil, true
}

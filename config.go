package lua

// Tunables mirroring the teacher's config.go, kept as package vars an
// embedder can override before constructing a VM.
var (
	// FieldsPerFlush is the SETLIST block size ("FPF" in the reference
	// implementation): how many array entries a single SETLIST batches
	// before starting a new block.
	FieldsPerFlush = 50

	// CallStackSize bounds nested (non-tail) Lua calls per coroutine;
	// exceeding it raises a runtime error rather than exhausting the
	// host's native goroutine stack silently.
	CallStackSize = 220

	// MaxTableGetLoop bounds the __index/__newindex chase depth that a
	// future metamethod-following table implementation would need;
	// unused while GETTABLE/SETTABLE stay raw-only, kept here so
	// extending that behavior later doesn't need a new config surface.
	MaxTableGetLoop = 100
)

package lua

import "github.com/google/uuid"

// CoStatus is one of a coroutine's lifecycle states, mirroring
// coroutine.status's return values.
type CoStatus int

const (
	CoSuspended CoStatus = iota
	CoRunning
	CoDead
	CoNormal // resumed another coroutine and is waiting on it
)

func (s CoStatus) String() string {
	switch s {
	case CoSuspended:
		return "suspended"
	case CoRunning:
		return "running"
	case CoDead:
		return "dead"
	case CoNormal:
		return "normal"
	}
	return "unknown"
}

// coMessage is what the coroutine's goroutine sends back across yieldCh:
// either a yield, a normal return, or an uncaught error.
type coMessage struct {
	kind   coMsgKind
	values []LValue
	err    error
}

type coMsgKind int

const (
	coYield coMsgKind = iota
	coReturn
	coError
)

// Coroutine is a suspendable execution backed by its own goroutine: its
// entire native call stack (Frame chain, register files, pc) sits
// parked on a blocked goroutine between resume and yield, so resuming
// it later is just unblocking that goroutine rather than reifying a
// hand-rolled continuation. Grounded on gopher-lua's LState-as-thread
// model, adapted from its recursive-interpreter/special-pc-value
// signalling to a goroutine+channel handoff, since gopher-lua's own
// vm.go recursion depth makes stack-ripping unnecessary in Go.
type Coroutine struct {
	ID     string
	vm     *VM
	fn     *LFunction
	status CoStatus
	parent *Coroutine

	started   bool
	resumeCh  chan []LValue
	yieldCh   chan coMessage
	callStack []*Frame
}

func newRootCoroutine(vm *VM) *Coroutine {
	return &Coroutine{ID: "main", vm: vm, status: CoRunning}
}

// NewCoroutine implements coroutine.create(f): status starts suspended,
// no execution happens until Resume.
func NewCoroutine(vm *VM, fn *LFunction) *Coroutine {
	return &Coroutine{
		ID:       uuid.NewString(),
		vm:       vm,
		fn:       fn,
		status:   CoSuspended,
		resumeCh: make(chan []LValue),
		yieldCh:  make(chan coMessage),
	}
}

func (co *Coroutine) String() string { return "thread: " + co.ID }
func (*Coroutine) Type() LValueType  { return LTThread }

// Resume implements coroutine.resume(co, args...).
func (co *Coroutine) Resume(args []LValue) (ok bool, values []LValue) {
	if co.status != CoSuspended {
		return false, []LValue{LString("cannot resume " + statusVerb(co.status) + " coroutine")}
	}
	caller := co.vm.current
	caller.status = CoNormal
	co.parent = caller
	co.status = CoRunning
	co.vm.current = co

	if !co.started {
		co.started = true
		go co.run(args)
	} else {
		co.resumeCh <- args
	}

	msg := <-co.yieldCh
	co.vm.current = caller
	caller.status = CoRunning

	switch msg.kind {
	case coYield:
		co.status = CoSuspended
		return true, msg.values
	case coReturn:
		co.status = CoDead
		return true, msg.values
	default: // coError
		co.status = CoDead
		return false, []LValue{errorValue(msg.err)}
	}
}

func statusVerb(s CoStatus) string {
	switch s {
	case CoDead:
		return "dead"
	case CoRunning, CoNormal:
		return "non-suspended"
	}
	return "suspended"
}

func errorValue(err error) LValue {
	if ae, ok := err.(*ApiError); ok {
		return ae.Value
	}
	return LString(err.Error())
}

// run is the body of the coroutine's dedicated goroutine: it drives the
// frame executor to completion, or catches an *ApiError panic if one
// escapes, and reports the outcome across yieldCh. A yield never panics
// here; it blocks the goroutine on resumeCh instead (see Yield).
func (co *Coroutine) run(initialArgs []LValue) {
	msg := func() (m coMessage) {
		defer func() {
			if r := recover(); r != nil {
				if ae, ok := r.(*ApiError); ok {
					m = coMessage{kind: coError, err: ae}
					return
				}
				panic(r)
			}
		}()
		results := co.vm.callClosure(co, co.fn, initialArgs)
		return coMessage{kind: coReturn, values: results}
	}()
	co.yieldCh <- msg
}

// Yield implements coroutine.yield(vals...): it hands control back to
// whichever Resume is waiting and blocks until this coroutine is
// resumed again, returning the resumer's arguments.
func (co *Coroutine) Yield(vals []LValue) []LValue {
	co.yieldCh <- coMessage{kind: coYield, values: vals}
	return <-co.resumeCh
}

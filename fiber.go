// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

// State is one of the five states a fiber occupies (spec.md §3).
type State int

const (
	Ready State = iota
	Running
	Blocked
	Finished
	Canceling
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Finished:
		return "finished"
	case Canceling:
		return "canceling"
	default:
		return "unknown"
	}
}

// Handle is an opaque fiber identity, stable until explicitly canceled
// (spec.md §3). Handles index into the runtime's fiber table rather than
// pointing at memory directly, so a canceled fiber's table slot cannot be
// dangling-dereferenced by a stale handle (spec.md §9 "Opaque handles").
type Handle uint32

// resumeMsg is what the scheduler hands back to a parked fiber goroutine
// when exactly one of its clauses fires.
type resumeMsg struct {
	index int
	err   *Error
}

// eventKind names why a running fiber handed control back to the scheduler.
type eventKind int

const (
	evYield eventKind = iota
	evBlocked
	evFinished
)

// schedEvent is what a fiber's goroutine sends back to the run loop after
// being resumed, the other half of the context-switch handshake described
// in spec.md §4.1's "Context switcher" component.
type schedEvent struct {
	handle Handle
	kind   eventKind
}

// FiberFunc is a fiber's entry point. Unlike the spec's C-shaped
// entry(args...), idiomatic Go captures arguments in the closure itself;
// rt is passed in explicitly since every blocking primitive is a Runtime
// method (there is no global runtime singleton, see sched.go).
type FiberFunc func(rt *Runtime)

// fiberState is the control block described in spec.md §3: identity,
// state, stack, local-storage slot, canceled flag, and the single wait
// set it may be linked into.
type fiberState struct {
	handle   Handle
	state    State
	stack    *stack
	cls      any
	canceled bool
	waitSet  *waitSet

	// finishWaiters are the pending Gocancel calls parked on this fiber
	// reaching Finished, notified from handleEvent's evFinished case
	// (spec.md §4.7 "wait for all targets"). Unlike a wait-set clause this
	// is N-targets-all-must-finish, not first-of-N, so it is tracked
	// separately from the generic wait engine in wait.go.
	finishWaiters []*finishWait

	// pendingIndex/pendingErr are the firing clause's result, set by wake
	// (or left zero for a fresh spawn / a plain yield) and handed to the
	// fiber's goroutine the next time the scheduler grants it the single
	// token of execution.
	pendingIndex int
	pendingErr   *Error

	// resume is how the scheduler hands control (and a result) to this
	// fiber's goroutine. Exactly one goroutine ever holds the "running"
	// token at a time: the scheduler only ever sends on resume for the
	// fiber at the head of the ready queue, and only after the
	// previously-running fiber's goroutine has handed control back via
	// schedEvents.
	resume chan resumeMsg
	// reaped is closed once the fiber's goroutine has returned from its
	// entry function (handleEvent's evFinished case). Nothing in this
	// package receives from it; Gocancel joins through finishWaiters.
	reaped chan struct{}

	entry FiberFunc
}

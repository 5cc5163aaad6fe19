// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"math/rand"

	"code.hybscloud.com/fiber/internal/atomic32"
)

// Runtime is the per-process scheduler state described in spec.md §9
// "Global runtime state": all scheduler state is per-process, created
// lazily (here, explicitly, via NewRuntime) rather than as a package
// global, since a single OS thread owns exactly one Runtime at a time and
// exposing it as a constructed value (not a singleton) makes that
// ownership explicit instead of implicit.
type Runtime struct {
	cfg Config

	fibers  map[Handle]*fiberState
	handles atomic32.Counter

	ready       []Handle
	schedEvents chan schedEvent
	current     *fiberState

	stacks *stackFreeList
	timers *timerHeap
	poller *poller

	rng *rand.Rand

	chanHandles atomic32.Counter

	clockState clock
}

// NewRuntime constructs a Runtime ready to run fibers. It does not start
// the run loop by itself — spawn fibers and call RunLoop on the single
// OS thread that will own this runtime.
func NewRuntime(cfg Config) *Runtime {
	cfg = cfg.withDefaults()
	rt := &Runtime{
		cfg:         cfg,
		fibers:      make(map[Handle]*fiberState),
		schedEvents: make(chan schedEvent, 1),
		stacks:      newStackFreeList(cfg.StackSize, cfg.StackFreeListMax),
		timers:      newTimerHeap(),
		rng:         rand.New(rand.NewSource(1)),
		clockState:  newClock(),
	}
	rt.poller = newPoller(rt)
	rt.refreshClock()
	return rt
}

// rand returns a uniform index in [0, n) for the choose bias rule
// (spec.md §4.4): "if multiple clauses are immediately ready at entry,
// pick uniformly at random among them". Deterministic seed keeps the
// scheduler itself free of any dependency on real entropy; the seed is
// fixed at 1 and Config offers no way to change it.
func (rt *Runtime) rand(n int) int {
	if n <= 1 {
		return 0
	}
	return rt.rng.Intn(n)
}

// Go spawns a new fiber running entry, enqueued at the tail of the ready
// queue (spec.md §4.1 spawn; §9 resolves the "does go yield immediately"
// open question as "no — tail", matching this implementation).
func (rt *Runtime) Go(entry FiberFunc) (Handle, *Error) {
	st, err := rt.stacks.get()
	if err != nil {
		return 0, err
	}
	h := Handle(rt.handles.Next())
	fs := &fiberState{
		handle: h,
		state:  Ready,
		stack:  st,
		resume: make(chan resumeMsg, 1),
		reaped: make(chan struct{}),
		entry:  entry,
	}
	rt.fibers[h] = fs

	go func() {
		<-fs.resume
		fs.entry(rt)
		rt.schedEvents <- schedEvent{h, evFinished}
	}()

	rt.ready = append(rt.ready, h)
	return h, nil
}

// Yield requeues the current fiber at the tail of the ready queue and
// switches away (spec.md §4.1 yield). If the fiber's canceled flag is
// set, it returns Canceled without switching (spec.md §5 "sticky").
func (rt *Runtime) Yield() *Error {
	fs := rt.current
	if fs.canceled {
		return ErrCanceled
	}
	fs.state = Ready
	fs.pendingIndex = 0
	fs.pendingErr = nil
	rt.ready = append(rt.ready, fs.handle)
	rt.schedEvents <- schedEvent{fs.handle, evYield}
	msg := <-fs.resume
	return msg.err
}

// RunLoop drives the scheduler until the ready queue is empty and the
// poller reports a deadlock (no timers, no fd waiters): spec.md §4.1's
// run-loop and §4.5's "the process has deadlocked" clause. Returns when
// that happens, so an application can decide whether to treat it as
// success (nothing left to do) or an error.
func (rt *Runtime) RunLoop() {
	for {
		if len(rt.ready) > 0 {
			h := rt.ready[0]
			rt.ready = rt.ready[1:]
			fs, ok := rt.fibers[h]
			if !ok || fs.state == Finished {
				continue
			}
			fs.state = Running
			rt.current = fs
			fs.resume <- resumeMsg{index: fs.pendingIndex, err: fs.pendingErr}
			ev := <-rt.schedEvents
			rt.current = nil
			rt.handleEvent(ev)
			rt.refreshClock()
			continue
		}

		timeout, ok := rt.timers.nextTimeout(rt.Now())
		if !ok && !rt.poller.hasWaiters() {
			return
		}
		if !ok {
			timeout = -1
		}
		rt.poller.pollOnce(timeout)
		rt.refreshClock()
		rt.fireDueTimers()
	}
}

func (rt *Runtime) handleEvent(ev schedEvent) {
	fs, ok := rt.fibers[ev.handle]
	if !ok {
		return
	}
	switch ev.kind {
	case evYield:
		// Already appended to the ready queue by Yield itself; nothing
		// further to do here.
	case evBlocked:
		// Already registered into its clause queues / timer heap by
		// park; nothing further to do here.
	case evFinished:
		fs.state = Finished
		close(fs.reaped)
		for _, w := range fs.finishWaiters {
			w.remaining--
			if w.remaining == 0 {
				rt.wake(w.owner, -1, nil)
			}
		}
		fs.finishWaiters = nil
	}
}

// fireDueTimers pops every timer entry whose deadline has passed and
// wakes the owning fiber, used both for explicit msleep/deadline Timer
// clauses and for the overall-deadline timer registered by park.
func (rt *Runtime) fireDueTimers() {
	now := rt.Now()
	for {
		fs, clauseIdx, isOverall, ok := rt.timers.popDue(now)
		if !ok {
			return
		}
		if isOverall {
			rt.wake(fs, -1, ErrTimedOut)
		} else {
			rt.wake(fs, clauseIdx, nil)
		}
	}
}

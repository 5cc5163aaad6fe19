// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

// ClauseKind names what kind of event a clause describes (spec.md §3
// "Clause").
type ClauseKind int

const (
	ClauseChannelSend ClauseKind = iota
	ClauseChannelRecv
	ClauseFdIn
	ClauseFdOut
	ClauseTimer
	ClauseCancel
)

// Clause is one way a parked fiber may unblock: a channel op, an fd
// readiness event, or a timer deadline (spec.md §3). The payload fields
// used depend on Kind; unused fields are zero.
type Clause struct {
	Kind ClauseKind

	// ChannelSend / ChannelRecv payload.
	Ch  *Channel
	Buf []byte

	// FdIn / FdOut payload.
	Fd int

	// Timer payload: absolute deadline in runtime clock milliseconds.
	Deadline int64

	// index is filled in by the wait engine once the clause is part of
	// a registered wait set, so choose can report which one fired.
	index int
	// timerID is the heap id of this clause's own timer-heap entry, set
	// only for Kind == ClauseTimer (spec.md §3 "Timer heap entry").
	timerID int64
}

// waitSet is the complete list of clauses a blocked fiber is parked on
// (spec.md §3 "Wait set"). When any clause fires every sibling clause is
// unlinked from its queue before the fiber resumes.
type waitSet struct {
	fiber    *fiberState
	clauses  []Clause
	timerID  int64 // heap id of the overall-deadline timer entry, or 0
	resolved bool
}

// tryImmediate attempts to complete one clause without parking, per
// spec.md §4.2 step 2. When several clauses are ready, rt.rand picks one
// of them uniformly at random rather than by array order (spec.md §4.4
// "Bias").
func (rt *Runtime) tryImmediate(clauses []Clause) (int, *Error, bool) {
	var ready []int
	for i, c := range clauses {
		if rt.clauseReady(c) {
			ready = append(ready, i)
		}
	}
	if len(ready) == 0 {
		return 0, nil, false
	}
	idx := ready[0]
	if len(ready) > 1 {
		idx = ready[rt.rand(len(ready))]
	}
	err := rt.completeClause(clauses[idx])
	return idx, err, true
}

// clauseReady reports whether a clause can complete immediately without
// parking (spec.md §4.2 step 2's "immediate completion" probe). It must
// not mutate any queue — only completeClause does that, exactly once,
// for the clause chosen by tryImmediate.
func (rt *Runtime) clauseReady(c Clause) bool {
	switch c.Kind {
	case ClauseChannelSend:
		return c.Ch.sendReady()
	case ClauseChannelRecv:
		return c.Ch.recvReady()
	case ClauseFdIn:
		return rt.poller.fdReady(c.Fd, EventIn)
	case ClauseFdOut:
		return rt.poller.fdReady(c.Fd, EventOut)
	case ClauseTimer:
		return c.Deadline >= 0 && c.Deadline <= rt.Now()
	default:
		return false
	}
}

// completeClause performs the one-time side effect of firing a clause
// that tryImmediate or a wakeup already decided has fired.
func (rt *Runtime) completeClause(c Clause) *Error {
	switch c.Kind {
	case ClauseChannelSend:
		return c.Ch.completeSend(c.Buf)
	case ClauseChannelRecv:
		return c.Ch.completeRecv(c.Buf)
	case ClauseFdIn, ClauseFdOut, ClauseTimer:
		return nil
	default:
		return nil
	}
}

// park implements the unified blocking-primitive contract of spec.md §4.2:
// try immediate completion on every clause; if none fire, register all of
// them, mark the fiber Blocked, and switch away. Returns the firing
// clause's index, or -1 with ErrTimedOut / ErrCanceled.
//
// deadline is the call's own absolute deadline, independent of any Timer
// clause already present in clauses (msleep folds its sleep-until time
// into a Timer clause and passes deadline=-1; choose/fdwait/chsend/chrecv
// pass their own deadline here and no Timer clause).
func (rt *Runtime) park(fs *fiberState, clauses []Clause, deadline int64) (int, *Error) {
	if fs.canceled {
		return -1, ErrCanceled
	}
	if idx, err, ok := rt.tryImmediate(clauses); ok {
		return idx, err
	}
	if deadline == 0 {
		return -1, ErrTimedOut
	}

	ws := &waitSet{fiber: fs, clauses: clauses}
	for i := range ws.clauses {
		ws.clauses[i].index = i
		rt.registerClause(fs, &ws.clauses[i])
	}
	if deadline > 0 {
		ws.timerID = rt.timers.add(deadline, fs)
	}
	fs.waitSet = ws
	fs.state = Blocked

	rt.schedEvents <- schedEvent{fs.handle, evBlocked}
	msg := <-fs.resume
	return msg.index, msg.err
}

// registerClause enqueues one clause into its owning queue: the
// channel's sender/receiver FIFO, the poller's per-(fd,direction) slot, or
// the timer heap for a Timer clause (a negative Timer deadline means never
// and gets no heap entry).
func (rt *Runtime) registerClause(fs *fiberState, c *Clause) {
	switch c.Kind {
	case ClauseChannelSend:
		c.Ch.parkSender(fs, c)
	case ClauseChannelRecv:
		c.Ch.parkReceiver(fs, c)
	case ClauseFdIn:
		rt.poller.parkFd(fs, c, EventIn)
	case ClauseFdOut:
		rt.poller.parkFd(fs, c, EventOut)
	case ClauseTimer:
		if c.Deadline >= 0 {
			c.timerID = rt.timers.addClause(c.Deadline, fs, c.index)
		}
	}
}

// unregisterSiblings removes every clause in ws other than the one at
// keepIndex (or every clause, if keepIndex is -1) from its queue, per
// spec.md §4.2 step 4: "the engine removes all other clauses from their
// queues". Also cancels the overall-deadline timer entry if one is
// pending.
func (rt *Runtime) unregisterSiblings(ws *waitSet, keepIndex int) {
	if ws.resolved {
		return
	}
	ws.resolved = true
	for i := range ws.clauses {
		if i == keepIndex {
			continue
		}
		rt.unregisterClause(ws.fiber, &ws.clauses[i])
	}
	if ws.timerID != 0 {
		rt.timers.remove(ws.timerID)
		ws.timerID = 0
	}
}

func (rt *Runtime) unregisterClause(fs *fiberState, c *Clause) {
	switch c.Kind {
	case ClauseChannelSend:
		c.Ch.unparkSender(fs)
	case ClauseChannelRecv:
		c.Ch.unparkReceiver(fs)
	case ClauseFdIn:
		rt.poller.unparkFd(fs, c.Fd, EventIn)
	case ClauseFdOut:
		rt.poller.unparkFd(fs, c.Fd, EventOut)
	case ClauseTimer:
		if c.timerID != 0 {
			rt.timers.remove(c.timerID)
			c.timerID = 0
		}
	}
}

// wake marks a parked fiber Ready and appends it to the tail of the ready
// queue (spec.md §4.1 "A fiber that wakes from I/O is appended to the
// tail"), unregistering every sibling clause first. It does not itself
// hand the fiber the execution token — only the run loop does that, by
// sending on fs.resume once the fiber reaches the head of the ready
// queue — so that at most one fiber's goroutine is ever runnable at a
// time (see fiber.go's resume field doc).
func (rt *Runtime) wake(fs *fiberState, firedIndex int, err *Error) {
	ws := fs.waitSet
	if ws == nil || ws.resolved {
		return
	}
	rt.unregisterSiblings(ws, firedIndex)
	fs.waitSet = nil
	fs.state = Ready
	fs.pendingIndex = firedIndex
	fs.pendingErr = err
	rt.ready = append(rt.ready, fs.handle)
}

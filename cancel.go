// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

// finishWait is one Gocancel call's pending join on a set of target
// fibers: remaining counts down to zero as each target reaches Finished,
// at which point owner is woken (spec.md §4.7 "wait for all targets to
// finish").
type finishWait struct {
	owner     *fiberState
	remaining int
}

// Gocancel cancels and reaps the fibers named by handles (spec.md §4.7,
// §6). It proceeds in the order the spec lays out:
//
//  1. Give every still-running target a grace period (up to deadline) to
//     exit on its own, without forcing anything.
//  2. If any target is still running once the grace period elapses, set
//     its sticky canceled flag: the next time that fiber would block on
//     Chsend/Chrecv/Choose/Fdwait/Msleep/Yield/Gocancel it instead
//     unwinds immediately with ECANCELED (spec.md §5 "sticky").
//  3. Wait unconditionally (no further deadline) for every target to
//     actually reach Finished — a canceled fiber still runs its own
//     unwind path to completion before its stack can be reclaimed.
//  4. Reclaim every target's fiber-table slot and stack.
//  5. If the calling fiber was itself canceled while inside this call,
//     report ECANCELED instead of success.
func (rt *Runtime) Gocancel(handles []Handle, deadline int64) *Error {
	caller := rt.current
	if caller.canceled {
		return ErrCanceled
	}

	targets := make([]*fiberState, 0, len(handles))
	for _, h := range handles {
		fs, ok := rt.fibers[h]
		if !ok || fs == caller {
			return newErr("gocancel", KindBadArg)
		}
		targets = append(targets, fs)
	}

	var remaining []*fiberState
	for _, fs := range targets {
		if fs.state != Finished {
			remaining = append(remaining, fs)
		}
	}

	if len(remaining) > 0 && deadline != 0 {
		rt.waitAllFinished(caller, remaining, deadline)
	}

	for _, fs := range targets {
		if fs.state != Finished {
			fs.canceled = true
			fs.state = Canceling
			// A target parked on a clause that can never fire on its own
			// (an idle Chrecv, an Fdwait with deadline -1, ...) would
			// otherwise sit on its wait set forever: force it through the
			// wait engine's own wake path so it resumes immediately with
			// ECANCELED instead of waiting for an event that may never
			// come (spec.md §4.7 step 2 "next resume").
			if fs.waitSet != nil {
				rt.wake(fs, -1, ErrCanceled)
			}
		}
	}

	// A wait also ends early if the caller itself is woken with
	// ECANCELED, so keep waiting until every target is Finished.
	for {
		var stillRunning []*fiberState
		for _, fs := range targets {
			if fs.state != Finished {
				stillRunning = append(stillRunning, fs)
			}
		}
		if len(stillRunning) == 0 {
			break
		}
		rt.waitAllFinished(caller, stillRunning, -1)
	}

	for _, fs := range targets {
		rt.reap(fs)
	}

	if caller.canceled {
		return ErrCanceled
	}
	return nil
}

// waitAllFinished parks caller until every fiber in targets has reached
// Finished, or deadline passes (deadline < 0 means wait forever). It
// rides the generic wait engine's single waitSet/resume plumbing with an
// empty clause list, so the existing overall-deadline timer and wake
// path (wait.go) work unchanged; only the wake trigger differs: a
// finishWait countdown (this file) instead of a fired clause.
func (rt *Runtime) waitAllFinished(caller *fiberState, targets []*fiberState, deadline int64) *Error {
	ws := &waitSet{fiber: caller}
	if deadline >= 0 {
		ws.timerID = rt.timers.add(deadline, caller)
	}
	caller.waitSet = ws
	caller.state = Blocked

	w := &finishWait{owner: caller, remaining: len(targets)}
	for _, fs := range targets {
		fs.finishWaiters = append(fs.finishWaiters, w)
	}

	rt.schedEvents <- schedEvent{caller.handle, evBlocked}
	msg := <-caller.resume
	return msg.err
}

// reap releases a finished fiber's table slot and stack (spec.md §4.7
// "reclaim"). Must only be called once a fiber is actually Finished.
func (rt *Runtime) reap(fs *fiberState) {
	if fs.stack != nil {
		rt.stacks.put(fs.stack)
		fs.stack = nil
	}
	delete(rt.fibers, fs.handle)
}

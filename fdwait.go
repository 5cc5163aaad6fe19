//go:build linux

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

// Fdwait blocks the current fiber until fd becomes ready for the
// directions named in events (EventIn | EventOut), the deadline passes,
// or the fiber is canceled (spec.md §4.5, §6). Returns the subset of
// events actually ready on success.
//
// At most one fiber may wait on a given (fd, direction) at once
// (spec.md §3 "Fd entry" invariant, §9 Open Questions resolves this as
// fixed, not relaxed); a second registration fails Busy (EEXIST) without
// parking.
func (rt *Runtime) Fdwait(fd int, events EventBits, deadline int64) (EventBits, *Error) {
	if fd < 0 {
		return 0, newErr("fdwait", KindBadFd)
	}
	var clauses []Clause
	if events&EventIn != 0 {
		if rt.poller.busy(fd, EventIn) {
			return 0, newErr("fdwait", KindBusy)
		}
		clauses = append(clauses, FdInClause(fd))
	}
	if events&EventOut != 0 {
		if rt.poller.busy(fd, EventOut) {
			return 0, newErr("fdwait", KindBusy)
		}
		clauses = append(clauses, FdOutClause(fd))
	}
	if len(clauses) == 0 {
		return 0, newErr("fdwait", KindBadArg)
	}
	if rt.poller.epfd < 0 {
		return 0, newErr("fdwait", KindBadFd)
	}
	idx, err := rt.park(rt.current, clauses, deadline)
	if err != nil {
		return 0, err
	}
	ready := clauses[idx].Kind.eventBit()
	for _, c := range clauses {
		if bit := c.Kind.eventBit(); bit != ready && rt.poller.fdReady(fd, bit) {
			ready |= bit
		}
	}
	return ready, nil
}

func (k ClauseKind) eventBit() EventBits {
	if k == ClauseFdIn {
		return EventIn
	}
	return EventOut
}

// Fdclean forgets any poller cache entry for fd. Must be called before
// the application closes fd; behavior is undefined otherwise (the cache
// may reference a reused fd) (spec.md §4.5).
func (rt *Runtime) Fdclean(fd int) {
	rt.poller.clean(fd)
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

// Msleep suspends the current fiber until the absolute deadline
// (spec.md §4.6, §6). Modeled as a single Timer clause with no separate
// overall deadline, so reaching it is this call's success path (0), not
// a timeout: the wait engine's generic "deadline fired" behavior in
// spec.md §4.2 step 5 only produces ETIMEDOUT for the overall call
// deadline registered alongside a caller's own clauses (as Choose/Chsend/
// Chrecv/Fdwait do); msleep has no clauses of its own to race against, so
// its single Timer clause firing is reported as the fired clause, not as
// the overall deadline.
func (rt *Runtime) Msleep(deadline int64) *Error {
	clauses := []Clause{TimerClause(deadline)}
	_, err := rt.park(rt.current, clauses, -1)
	return err
}

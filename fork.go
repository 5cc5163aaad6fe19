// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

// Mfork re-initializes this Runtime's kernel-backed state — the epoll
// file descriptor and its cached interest set, the monotonic clock
// cache — so a Runtime can keep running correctly in a process image
// obtained by forking the OS process (spec.md §4.7, §6).
//
// Mfork does NOT itself call the kernel fork(2): Go's runtime manages
// many OS threads and goroutines that a raw fork would leave in an
// undefined, possibly deadlocked state in the child, so forking is the
// application's responsibility (typically via a single-threaded helper
// process, or before spawning any fiber at all). Mfork is what the child
// must call immediately after fork returns and before resuming the run
// loop: it discards the inherited epoll fd (epoll state, like most fds,
// is shared across fork in ways that corrupt both processes' readiness
// tracking if left alone) and opens a fresh one, re-arming the same
// fd/direction pairs this Runtime already had parked fibers on, and
// resets the clock cache so elapsed-time accounting doesn't carry a
// stale snapshot across the fork boundary.
//
// Only meaningful in the child; the parent's Runtime is untouched by a
// fork and needs no Mfork call.
func (rt *Runtime) Mfork() *Error {
	if err := rt.poller.reinit(); err != nil {
		return newErr("mfork", KindBadFd)
	}
	rt.clockState = newClock()
	rt.refreshClock()
	return nil
}

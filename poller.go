//go:build linux

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"golang.org/x/sys/unix"

	"code.hybscloud.com/fiber/internal/backoff"
	"code.hybscloud.com/iox"
)

// EventBits names the fdwait readiness bitmask (spec.md §6): IN=1, OUT=2.
type EventBits int

const (
	EventIn  EventBits = 1
	EventOut EventBits = 2
)

// fdEntry is the poller's per-fd cache: currently armed epoll interest and
// at most one waiting fiber per direction (spec.md §3 "Fd entry").
type fdEntry struct {
	fd       int
	armed    uint32 // unix.EPOLLIN / unix.EPOLLOUT bits currently registered
	waiterIn  *Clause
	fiberIn   *fiberState
	waiterOut *Clause
	fiberOut  *fiberState
}

func (e *fdEntry) empty() bool {
	return e.waiterIn == nil && e.waiterOut == nil
}

// poller abstracts the kernel readiness syscall (spec.md §4.5). This
// build targets Linux's epoll; grounded in shape (not implementation) on
// other_examples/cloudfoundry-attic-garden-linux__poller.go's bare pollfd
// wrapper and other_examples/ecryth-asyncigo__poller.go's
// Wait/Subscribe/Unsubscribe interface, since the teacher package
// (code.hybscloud.com/sess) has no fd-readiness component of its own —
// it is purely an in-process SPSC transport.
type poller struct {
	rt      *Runtime
	epfd    int
	entries map[int]*fdEntry
	events  []unix.EpollEvent
}

func newPoller(rt *Runtime) *poller {
	p := &poller{rt: rt, entries: make(map[int]*fdEntry), events: make([]unix.EpollEvent, 64)}
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		// Deferred: the first real Fdwait call will surface EBADF-style
		// failure rather than panicking at construction time, matching
		// this package's errno-style contract (no panics at the public
		// boundary for a recoverable OS resource shortage).
		p.epfd = -1
		return p
	}
	p.epfd = fd
	return p
}

func epollBits(dir EventBits) uint32 {
	if dir == EventIn {
		return unix.EPOLLIN
	}
	return unix.EPOLLOUT
}

func (p *poller) entry(fd int) *fdEntry {
	e, ok := p.entries[fd]
	if !ok {
		e = &fdEntry{fd: fd}
		p.entries[fd] = e
	}
	return e
}

// busy reports whether (fd, dir) already has a waiter, the spec.md §4.5
// "Busy = EEXIST" check performed before Fdwait parks a new clause.
func (p *poller) busy(fd int, dir EventBits) bool {
	e, ok := p.entries[fd]
	if !ok {
		return false
	}
	if dir == EventIn {
		return e.waiterIn != nil
	}
	return e.waiterOut != nil
}

// parkFd registers fiber as the sole waiter for (fd, dir), arming the
// epoll interest set if not already armed for that direction.
func (p *poller) parkFd(fs *fiberState, c *Clause, dir EventBits) {
	e := p.entry(c.Fd)
	wasEmpty := e.armed == 0
	if dir == EventIn {
		e.waiterIn, e.fiberIn = c, fs
	} else {
		e.waiterOut, e.fiberOut = c, fs
	}
	want := e.armed | epollBits(dir)
	if want != e.armed {
		op := unix.EPOLL_CTL_MOD
		if wasEmpty {
			op = unix.EPOLL_CTL_ADD
		}
		_ = unix.EpollCtl(p.epfd, op, c.Fd, &unix.EpollEvent{Events: want, Fd: int32(c.Fd)})
		e.armed = want
	}
}

// unparkFd removes fiber's wait registration for (fd, dir), demoting or
// removing the epoll interest set accordingly.
func (p *poller) unparkFd(fs *fiberState, fd int, dir EventBits) {
	e, ok := p.entries[fd]
	if !ok {
		return
	}
	if dir == EventIn {
		e.waiterIn, e.fiberIn = nil, nil
	} else {
		e.waiterOut, e.fiberOut = nil, nil
	}
	want := uint32(0)
	if e.waiterIn != nil {
		want |= unix.EPOLLIN
	}
	if e.waiterOut != nil {
		want |= unix.EPOLLOUT
	}
	if want != e.armed {
		if want == 0 {
			_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
			delete(p.entries, fd)
		} else {
			_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{Events: want, Fd: int32(fd)})
			e.armed = want
		}
	}
}

// fdReady performs a zero-timeout, single-fd probe for spec.md §4.2 step
// 2's immediate-completion check — independent of the shared epoll
// interest set, since the fd in question may not even be registered yet.
func (p *poller) fdReady(fd int, dir EventBits) bool {
	pfd := []unix.PollFd{{Fd: int32(fd), Events: int16(epollBitsPoll(dir))}}
	n, err := unix.Poll(pfd, 0)
	if err != nil || n <= 0 {
		return false
	}
	return pfd[0].Revents&int16(epollBitsPoll(dir)) != 0
}

func epollBitsPoll(dir EventBits) int16 {
	if dir == EventIn {
		return unix.POLLIN
	}
	return unix.POLLOUT
}

// clean forgets any cache entry for fd (spec.md §4.5 Poller.clean). Must
// be called before the application closes fd.
func (p *poller) clean(fd int) {
	if e, ok := p.entries[fd]; ok {
		if e.armed != 0 {
			_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		}
		delete(p.entries, fd)
	}
}

// hasWaiters reports whether any fd currently has a parked waiter,
// feeding the deadlock check in spec.md §4.5: "infinity if neither timers
// nor waiters exist".
func (p *poller) hasWaiters() bool {
	return len(p.entries) > 0
}

// pollOnce blocks for up to timeoutMillis (or indefinitely if negative)
// waiting for readiness events, then wakes every fiber whose fd clause
// fired.
func (p *poller) pollOnce(timeoutMillis int64) {
	if p.epfd < 0 {
		return
	}
	t := int(timeoutMillis)
	if timeoutMillis < 0 {
		t = -1
	}
	n, err := unix.EpollWait(p.epfd, p.events, t)
	if err != nil || n <= 0 {
		return
	}
	for i := 0; i < n; i++ {
		ev := p.events[i]
		fd := int(ev.Fd)
		e, ok := p.entries[fd]
		if !ok {
			continue
		}
		// The fired clause is unparked here: wake only unregisters its
		// siblings, so leaving it would keep the (fd, direction) slot busy.
		if ev.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 && e.fiberIn != nil {
			fs, idx := e.fiberIn, e.waiterIn.index
			p.unparkFd(fs, fd, EventIn)
			p.rt.wake(fs, idx, nil)
		}
		if ev.Events&(unix.EPOLLOUT|unix.EPOLLHUP|unix.EPOLLERR) != 0 && e.fiberOut != nil {
			fs, idx := e.fiberOut, e.waiterOut.index
			p.unparkFd(fs, fd, EventOut)
			p.rt.wake(fs, idx, nil)
		}
	}
}

// reinit discards all cached kernel polling state and re-registers
// pending fds (spec.md §4.5, §6 mfork). Runtime.Mfork calls it; Mfork
// does not fork, so application code that forks MUST call Mfork in the
// child before resuming the run loop for this poller to keep working.
func (p *poller) reinit() error {
	if p.epfd >= 0 {
		_ = unix.Close(p.epfd)
	}
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		p.epfd = -1
		return err
	}
	p.epfd = fd
	for fd, e := range p.entries {
		if e.armed == 0 {
			continue
		}
		fd, armed := fd, e.armed
		// A freshly created epoll fd can transiently reject EpollCtl
		// while the kernel settles; back off and retry rather than
		// dropping the registration, exactly as sess.dispatchWait backs
		// off on a non-blocking dispatch that would otherwise block.
		if err := backoff.Retry(func() error {
			err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Events: armed, Fd: int32(fd)})
			if err == unix.EAGAIN {
				return iox.ErrWouldBlock
			}
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

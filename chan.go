// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"code.hybscloud.com/fiber/internal/atomic32"
	"code.hybscloud.com/lfq"
)

// parkedPeer is one fiber parked on a channel clause, queued FIFO
// (spec.md §4.2 "Fairness: channel queues ... are strict FIFO").
type parkedPeer struct {
	fiber  *fiberState
	clause *Clause
}

// chanState is the shared channel object behind every Channel handle
// (spec.md §3 "Channel"). Endpoint pairs in the teacher package
// (code.hybscloud.com/sess, session.go's endpointPair) are this
// component's direct ancestor: a single allocation holding both
// directions' queues and a shared atomic close counter, generalized here
// from sess's fixed two-party A/B pair to an arbitrary number of senders
// and receivers sharing one FIFO. The bounded item buffer itself is the
// same lfq.SPSC transport sess uses for dataAB/dataBA (session.go):
// exactly one fiber ever completes a send (producer) and exactly one
// ever completes a recv (consumer) at a time in this single-threaded
// scheduler, so the single-producer/single-consumer contract holds even
// though "producer" and "recv" may be different fibers across calls.
type chanState struct {
	rt       *Runtime
	itemSize int
	cap      int

	// buf is nil for an unbuffered (cap == 0) channel. bufCount tracks
	// the number of items currently queued since lfq.SPSC exposes only
	// Enqueue/Dequeue, not a length query; it is kept in lockstep with
	// every successful Enqueue/Dequeue below.
	buf      *lfq.SPSC[[]byte]
	bufCount int

	sendQ []parkedPeer
	recvQ []parkedPeer

	done    bool
	doneVal []byte

	refs atomic32.Ref
}

// Channel is a handle to a typed, fixed-item-size FIFO (spec.md §3). New
// handles sharing the same underlying chanState are created by Chdup;
// each carries its own identity but increments a shared refcount.
type Channel struct {
	s *chanState
}

// Channel creates a new channel with the given item size (bytes) and
// buffer capacity (items); capacity 0 means unbuffered (spec.md §4.3,
// §6). The creator's reference is counted like any Chdup'd handle.
func (rt *Runtime) Channel(itemSize, capacity int) (*Channel, *Error) {
	if itemSize < 0 || capacity < 0 {
		return nil, newErr("channel", KindBadArg)
	}
	s := &chanState{rt: rt, itemSize: itemSize, cap: capacity}
	if capacity > 0 {
		s.buf = new(lfq.SPSC[[]byte])
		s.buf.Init(capacity)
	}
	s.refs.Init(1)
	rt.chanHandles.Next()
	return &Channel{s: s}, nil
}

func (c *Channel) bufLen() int { return c.s.bufCount }

func (c *Channel) bufHasSpace() bool { return c.bufLen() < c.s.cap }

// sendReady reports whether a send clause on this channel can complete
// immediately (spec.md §4.2 step 2).
func (c *Channel) sendReady() bool {
	s := c.s
	return s.done || len(s.recvQ) > 0 || c.bufHasSpace()
}

// recvReady reports whether a recv clause on this channel can complete
// immediately.
func (c *Channel) recvReady() bool {
	s := c.s
	return s.done || c.bufLen() > 0 || len(s.sendQ) > 0
}

func validateItemLen(op string, ch *Channel, n int) *Error {
	if ch == nil || ch.s == nil {
		return newErr(op, KindBadArg)
	}
	if n != ch.s.itemSize {
		return newErr(op, KindBadArg)
	}
	return nil
}

// completeSend performs the one-time side effect of a send clause that is
// already known to be ready (spec.md §4.3 send).
func (c *Channel) completeSend(src []byte) *Error {
	s := c.s
	if s.done {
		return newErr("chsend", KindPipe)
	}
	if len(s.recvQ) > 0 {
		peer := s.recvQ[0]
		s.recvQ = s.recvQ[1:]
		copy(peer.clause.Buf, src)
		s.rt.wake(peer.fiber, peer.clause.index, nil)
		return nil
	}
	// Buffer has space (guaranteed by sendReady's probe).
	item := make([]byte, len(src))
	copy(item, src)
	if err := s.buf.Enqueue(&item); err != nil {
		return newErr("chsend", KindOom)
	}
	s.bufCount++
	return nil
}

// completeRecv performs the one-time side effect of a recv clause that is
// already known to be ready, including the buffered/parked-sender
// queuing rule of spec.md §4.3: "on recv, take from buffer head and move
// the waking sender's value to buffer tail" whenever both exist at once.
func (c *Channel) completeRecv(dst []byte) *Error {
	s := c.s
	if s.done {
		copy(dst, s.doneVal)
		return nil
	}
	if c.bufLen() > 0 {
		item, err := s.buf.Dequeue()
		if err != nil {
			return newErr("chrecv", KindBadArg)
		}
		copy(dst, item)
		s.bufCount--
		if len(s.sendQ) > 0 {
			peer := s.sendQ[0]
			s.sendQ = s.sendQ[1:]
			next := make([]byte, len(peer.clause.Buf))
			copy(next, peer.clause.Buf)
			if err := s.buf.Enqueue(&next); err != nil {
				return newErr("chrecv", KindOom)
			}
			s.bufCount++
			s.rt.wake(peer.fiber, peer.clause.index, nil)
		}
		return nil
	}
	if len(s.sendQ) > 0 {
		peer := s.sendQ[0]
		s.sendQ = s.sendQ[1:]
		copy(dst, peer.clause.Buf)
		s.rt.wake(peer.fiber, peer.clause.index, nil)
		return nil
	}
	return newErr("chrecv", KindBadArg)
}

func (c *Channel) parkSender(fs *fiberState, cl *Clause) {
	c.s.sendQ = append(c.s.sendQ, parkedPeer{fiber: fs, clause: cl})
}

func (c *Channel) parkReceiver(fs *fiberState, cl *Clause) {
	c.s.recvQ = append(c.s.recvQ, parkedPeer{fiber: fs, clause: cl})
}

func (c *Channel) unparkSender(fs *fiberState) {
	c.s.sendQ = removePeer(c.s.sendQ, fs)
}

func (c *Channel) unparkReceiver(fs *fiberState) {
	c.s.recvQ = removePeer(c.s.recvQ, fs)
}

func removePeer(q []parkedPeer, fs *fiberState) []parkedPeer {
	for i, p := range q {
		if p.fiber == fs {
			return append(q[:i], q[i+1:]...)
		}
	}
	return q
}

// Chsend sends n bytes from src on ch, blocking until a receiver
// rendezvouses, buffer space frees up, deadline expires, or the fiber is
// canceled (spec.md §4.3, §6). Must be called from a fiber spawned by
// this Runtime's Go.
func (rt *Runtime) Chsend(ch *Channel, src []byte, deadline int64) *Error {
	if err := validateItemLen("chsend", ch, len(src)); err != nil {
		return err
	}
	clauses := []Clause{{Kind: ClauseChannelSend, Ch: ch, Buf: src}}
	_, err := rt.park(rt.current, clauses, deadline)
	return err
}

// Chrecv receives n bytes into dst from ch (spec.md §4.3, §6).
func (rt *Runtime) Chrecv(ch *Channel, dst []byte, deadline int64) *Error {
	if err := validateItemLen("chrecv", ch, len(dst)); err != nil {
		return err
	}
	clauses := []Clause{{Kind: ClauseChannelRecv, Ch: ch, Buf: dst}}
	_, err := rt.park(rt.current, clauses, deadline)
	return err
}

// Chdone transitions ch to the done state, waking every parked sender
// with EPIPE and every parked receiver with a copy of val, and latching
// val as the broadcast value for all future Chrecv calls (spec.md §4.3
// done). Calling Chdone twice fails EPIPE.
func (rt *Runtime) Chdone(ch *Channel, val []byte) *Error {
	if err := validateItemLen("chdone", ch, len(val)); err != nil {
		return err
	}
	s := ch.s
	if s.done {
		return newErr("chdone", KindPipe)
	}
	s.done = true
	s.doneVal = append([]byte(nil), val...)

	for _, p := range s.sendQ {
		rt.wake(p.fiber, p.clause.index, newErr("chsend", KindPipe))
	}
	s.sendQ = nil
	for _, p := range s.recvQ {
		copy(p.clause.Buf, s.doneVal)
		rt.wake(p.fiber, p.clause.index, nil)
	}
	s.recvQ = nil
	return nil
}

// Chdup increments ch's reference count and returns a new handle
// identity over the same underlying channel (spec.md §4.3 dup).
func (rt *Runtime) Chdup(ch *Channel) *Channel {
	ch.s.refs.Inc()
	return &Channel{s: ch.s}
}

// Chclose decrements ch's reference count; when it reaches zero the
// buffer is freed. spec.md §4.3 requires both wait queues to be empty at
// that point — a correct program drains/closes only after every clause
// referencing ch has been resolved; this runtime asserts the invariant
// rather than silently leaking a still-waited-on channel (spec.md §9
// Open Questions: chclose while waiters are parked is specified here as
// an assertion failure, the stricter of the two choices the spec leaves
// open).
func (rt *Runtime) Chclose(ch *Channel) {
	if ch.s.refs.Dec() != 0 {
		return
	}
	if len(ch.s.sendQ) != 0 || len(ch.s.recvQ) != 0 {
		panic("fiber: chclose of channel with parked waiters")
	}
	ch.s.buf = nil
}

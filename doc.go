// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fiber provides a single-threaded structured-concurrency runtime:
// a cooperative scheduler that multiplexes many lightweight fibers onto one
// OS thread, plus the synchronization and I/O primitives fibers use to
// cooperate with each other.
//
// The poller backend is epoll-based and Linux-only; this package does not
// build on other platforms.
//
// # Architecture
//
//   - Scheduler: a strict FIFO ready queue of fibers, switched one at a time
//     via [Runtime.Go], [Runtime.Yield] and the blocking primitives below.
//     No primitive here is safe to call from more than one OS thread.
//   - Wait engine: every blocking call — channel send/recv, [Runtime.Choose],
//     [Runtime.Msleep], [Runtime.Fdwait] — parks the calling fiber on one or
//     more clauses and resumes it when exactly one clause fires.
//   - Channel: a typed, fixed-item-size FIFO ([Channel]) with buffered,
//     unbuffered and "done" (broadcast) states.
//   - Poller: an epoll-backed readiness source driving both fd waits and the
//     timer heap behind [Runtime.Msleep] and deadlines.
//   - Cancellation: [Runtime.Gocancel] ties a fiber's lifetime to an explicit
//     owner — a grace deadline, then a sticky canceled flag that every
//     subsequent suspension point observes.
//
// # Example
//
//	rt := fiber.NewRuntime(fiber.Config{})
//	ch, _ := rt.Channel(8, 0)
//	var got [8]byte
//	h, _ := rt.Go(func(rt *fiber.Runtime) {
//		var v [8]byte
//		_ = rt.Chsend(ch, v[:], -1)
//	})
//	rt.Go(func(rt *fiber.Runtime) {
//		_ = rt.Chrecv(ch, got[:], -1)
//	})
//	rt.RunLoop()
//	_ = h
package fiber

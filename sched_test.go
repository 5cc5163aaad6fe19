// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber_test

import (
	"testing"
	"time"

	"code.hybscloud.com/fiber"
)

// TestRunLoopDeadlockCoverage is a liveness smoke test, not a correctness
// assertion: a run loop with nothing left to schedule and no pending timers
// or fd waiters must return rather than spin or hang forever.
func TestRunLoopDeadlockCoverage(t *testing.T) {
	rt := fiber.NewRuntime(fiber.Config{})

	done := make(chan struct{})
	go func() {
		rt.RunLoop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunLoop did not return on an empty ready queue with no timers/waiters")
	}
}

// TestYieldOrdering exercises spec.md §4.1's tail-requeue: three fibers
// that each yield once must interleave in ready-queue (FIFO) order.
func TestYieldOrdering(t *testing.T) {
	rt := fiber.NewRuntime(fiber.Config{})

	var order []int
	record := func(n int) fiber.FiberFunc {
		return func(rt *fiber.Runtime) {
			order = append(order, n)
			_ = rt.Yield()
			order = append(order, n+10)
		}
	}

	for _, n := range []int{1, 2, 3} {
		if _, err := rt.Go(record(n)); err != nil {
			t.Fatalf("go(%d): %v", n, err)
		}
	}

	rt.RunLoop()

	want := []int{1, 2, 3, 11, 12, 13}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i, v := range want {
		if order[i] != v {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

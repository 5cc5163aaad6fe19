// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber_test

import (
	"testing"
	"time"

	"code.hybscloud.com/fiber"
)

// S5 — grace-period cancel (spec.md §8): a fiber looping msleep/yield
// observes ECANCELED from its next msleep once the grace deadline passes,
// gocancel itself returns success, and the whole run (50ms grace period
// included) finishes in under 100ms.
func TestGocancelGracePeriod(t *testing.T) {
	skipRace(t)
	rt := fiber.NewRuntime(fiber.Config{})

	var loopErr *fiber.Error
	var iterations int
	h, err := rt.Go(func(rt *fiber.Runtime) {
		for {
			if err := rt.Msleep(rt.Now() + 10); err != nil {
				loopErr = err
				return
			}
			iterations++
			if err := rt.Yield(); err != nil {
				loopErr = err
				return
			}
		}
	})
	if err != nil {
		t.Fatalf("go: %v", err)
	}

	var cancelErr *fiber.Error
	start := time.Now()
	rt.Go(func(rt *fiber.Runtime) {
		cancelErr = rt.Gocancel([]fiber.Handle{h}, rt.Now()+50)
	})

	rt.RunLoop()
	elapsed := time.Since(start)

	if cancelErr != nil {
		t.Fatalf("gocancel: %v", cancelErr)
	}
	if loopErr == nil || loopErr.Kind != fiber.KindCanceled {
		t.Fatalf("target's terminal error = %v, want ECANCELED", loopErr)
	}
	if elapsed >= 100*time.Millisecond {
		t.Fatalf("gocancel took %v, want < 100ms", elapsed)
	}
}

// A fiber blocked on a clause that can never fire on its own — an idle
// Chrecv with no sender and no deadline — must still be forced out of its
// wait set and reaped once gocancel's grace period elapses (spec.md §4.7
// step 2); it cannot rely on reaching a later suspension point, since it
// never gets the chance to run again on its own.
func TestGocancelWakesBlockedChrecv(t *testing.T) {
	skipRace(t)
	rt := fiber.NewRuntime(fiber.Config{})
	ch, err := rt.Channel(8, 0)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}

	var recvErr *fiber.Error
	h, err := rt.Go(func(rt *fiber.Runtime) {
		buf := make([]byte, 8)
		recvErr = rt.Chrecv(ch, buf, -1)
	})
	if err != nil {
		t.Fatalf("go: %v", err)
	}

	var cancelErr *fiber.Error
	start := time.Now()
	rt.Go(func(rt *fiber.Runtime) {
		cancelErr = rt.Gocancel([]fiber.Handle{h}, rt.Now()+10)
	})

	rt.RunLoop()
	elapsed := time.Since(start)

	if cancelErr != nil {
		t.Fatalf("gocancel: %v", cancelErr)
	}
	if recvErr == nil || recvErr.Kind != fiber.KindCanceled {
		t.Fatalf("chrecv's terminal error = %v, want ECANCELED", recvErr)
	}
	if elapsed >= 100*time.Millisecond {
		t.Fatalf("gocancel took %v, want < 100ms (target never woke)", elapsed)
	}
}

// Universal invariant 7: a canceled fiber's sticky flag returns ECANCELED
// from every subsequent suspension point, including a plain Yield.
func TestCanceledStickyOnYield(t *testing.T) {
	rt := fiber.NewRuntime(fiber.Config{})

	var results []*fiber.Error
	h, _ := rt.Go(func(rt *fiber.Runtime) {
		for i := 0; i < 3; i++ {
			results = append(results, rt.Yield())
		}
	})

	rt.Go(func(rt *fiber.Runtime) {
		_ = rt.Gocancel([]fiber.Handle{h}, 0)
	})

	rt.RunLoop()

	if len(results) == 0 {
		t.Fatal("target fiber never ran")
	}
	last := results[len(results)-1]
	if last == nil || last.Kind != fiber.KindCanceled {
		t.Fatalf("final yield = %v, want ECANCELED", last)
	}
}

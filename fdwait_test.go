// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber_test

import (
	"os"
	"testing"
	"time"

	"code.hybscloud.com/fiber"
)

// S6 — fd readiness (spec.md §8): a fiber parked on fdwait(r, IN, -1)
// wakes with the IN bit set once a byte is written to the pipe's write end.
func TestFdwaitReadiness(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	rt := fiber.NewRuntime(fiber.Config{})

	var gotEvents fiber.EventBits
	var gotErr *fiber.Error
	rt.Go(func(rt *fiber.Runtime) {
		gotEvents, gotErr = rt.Fdwait(int(r.Fd()), fiber.EventIn, -1)
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		if _, err := w.Write([]byte{1}); err != nil {
			t.Errorf("write: %v", err)
		}
	}()

	rt.RunLoop()

	if gotErr != nil {
		t.Fatalf("fdwait: %v", gotErr)
	}
	if gotEvents&fiber.EventIn == 0 {
		t.Fatalf("events = %v, want EventIn set", gotEvents)
	}
}

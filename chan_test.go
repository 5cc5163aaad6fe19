// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber_test

import (
	"encoding/binary"
	"testing"

	"code.hybscloud.com/fiber"
)

func putInt64(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func getInt64(b []byte) int64 {
	return int64(binary.LittleEndian.Uint64(b))
}

// S1 — unbuffered rendezvous (spec.md §8).
func TestChanUnbufferedRendezvous(t *testing.T) {
	rt := fiber.NewRuntime(fiber.Config{})
	ch, err := rt.Channel(8, 0)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}

	var sendErr, recvErr *fiber.Error
	var got int64

	rt.Go(func(rt *fiber.Runtime) {
		sendErr = rt.Chsend(ch, putInt64(7), -1)
	})
	rt.Go(func(rt *fiber.Runtime) {
		buf := make([]byte, 8)
		recvErr = rt.Chrecv(ch, buf, -1)
		got = getInt64(buf)
	})

	rt.RunLoop()

	if sendErr != nil {
		t.Fatalf("chsend: %v", sendErr)
	}
	if recvErr != nil {
		t.Fatalf("chrecv: %v", recvErr)
	}
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

// S2 — buffered overflow (spec.md §8): three sends on a capacity-2 channel
// with no receiver; the third parks; a subsequent receiver observes 1, 2, 3
// in FIFO order (universal invariant 3).
func TestChanBufferedOverflowFIFO(t *testing.T) {
	rt := fiber.NewRuntime(fiber.Config{})
	ch, err := rt.Channel(8, 2)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}

	var sendErrs [3]*fiber.Error
	rt.Go(func(rt *fiber.Runtime) {
		for i, v := range []int64{1, 2, 3} {
			sendErrs[i] = rt.Chsend(ch, putInt64(v), -1)
		}
	})

	var got [3]int64
	var recvErrs [3]*fiber.Error
	rt.Go(func(rt *fiber.Runtime) {
		for i := range got {
			buf := make([]byte, 8)
			recvErrs[i] = rt.Chrecv(ch, buf, -1)
			got[i] = getInt64(buf)
		}
	})

	rt.RunLoop()

	for i, e := range sendErrs {
		if e != nil {
			t.Fatalf("chsend[%d]: %v", i, e)
		}
	}
	for i, e := range recvErrs {
		if e != nil {
			t.Fatalf("chrecv[%d]: %v", i, e)
		}
	}
	want := [3]int64{1, 2, 3}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// S4 — done broadcast (spec.md §8): both parked receivers observe the
// broadcast value, and a subsequent send observes EPIPE (universal
// invariant 8).
func TestChanDoneBroadcast(t *testing.T) {
	rt := fiber.NewRuntime(fiber.Config{})
	ch, err := rt.Channel(8, 0)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}

	var got1, got2 int64
	var err1, err2, doneErr, sendErr *fiber.Error

	rt.Go(func(rt *fiber.Runtime) {
		buf := make([]byte, 8)
		err1 = rt.Chrecv(ch, buf, -1)
		got1 = getInt64(buf)
	})
	rt.Go(func(rt *fiber.Runtime) {
		buf := make([]byte, 8)
		err2 = rt.Chrecv(ch, buf, -1)
		got2 = getInt64(buf)
	})
	rt.Go(func(rt *fiber.Runtime) {
		doneErr = rt.Chdone(ch, putInt64(-1))
	})
	rt.Go(func(rt *fiber.Runtime) {
		sendErr = rt.Chsend(ch, putInt64(99), -1)
	})

	rt.RunLoop()

	if err1 != nil || err2 != nil || doneErr != nil {
		t.Fatalf("err1=%v err2=%v doneErr=%v", err1, err2, doneErr)
	}
	if got1 != -1 || got2 != -1 {
		t.Fatalf("got1=%d got2=%d, want -1, -1", got1, got2)
	}
	if sendErr == nil || sendErr.Kind != fiber.KindPipe {
		t.Fatalf("chsend after chdone = %v, want EPIPE", sendErr)
	}
}

// Universal invariant 2: a message is delivered exactly once, never
// duplicated or dropped, across many concurrent sender/receiver fibers.
func TestChanExactlyOnceDelivery(t *testing.T) {
	skipShort(t)
	rt := fiber.NewRuntime(fiber.Config{})
	ch, err := rt.Channel(8, 0)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}

	const n = 50
	received := make([]int64, 0, n)
	recvCh, _ := rt.Channel(8, n)

	for i := 0; i < n; i++ {
		i := i
		rt.Go(func(rt *fiber.Runtime) {
			if err := rt.Chsend(ch, putInt64(int64(i)), -1); err != nil {
				t.Errorf("chsend(%d): %v", i, err)
			}
		})
	}
	for i := 0; i < n; i++ {
		rt.Go(func(rt *fiber.Runtime) {
			buf := make([]byte, 8)
			if err := rt.Chrecv(ch, buf, -1); err != nil {
				t.Errorf("chrecv: %v", err)
				return
			}
			_ = rt.Chsend(recvCh, buf, -1)
		})
	}
	rt.Go(func(rt *fiber.Runtime) {
		for i := 0; i < n; i++ {
			buf := make([]byte, 8)
			if err := rt.Chrecv(recvCh, buf, -1); err != nil {
				t.Errorf("drain: %v", err)
				return
			}
			received = append(received, getInt64(buf))
		}
	})

	rt.RunLoop()

	if len(received) != n {
		t.Fatalf("received %d values, want %d", len(received), n)
	}
	seen := make(map[int64]bool, n)
	for _, v := range received {
		if seen[v] {
			t.Fatalf("value %d delivered more than once", v)
		}
		seen[v] = true
	}
	for i := 0; i < n; i++ {
		if !seen[int64(i)] {
			t.Fatalf("value %d never delivered", i)
		}
	}
}

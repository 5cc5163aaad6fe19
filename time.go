// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import "time"

// clock holds the per-tick cached monotonic reading described in
// spec.md §4.6: "the run-loop refreshes a per-tick cached value so that
// repeated now() within one scheduler tick is O(1)". Refreshed before
// every poll and after every context switch (RunLoop calls refreshClock
// at both points).
type clock struct {
	start time.Time
	cache int64
}

func newClock() clock {
	return clock{start: time.Now()}
}

func (c *clock) refresh() {
	c.cache = int64(time.Since(c.start) / time.Millisecond)
}

// Now returns the cached monotonic clock reading in milliseconds
// (spec.md §4.6). Deadlines throughout this package are absolute values
// in this same clock; -1 means never, 0 means a non-blocking probe.
func (rt *Runtime) Now() int64 {
	return rt.clockState.cache
}

func (rt *Runtime) refreshClock() {
	rt.clockState.refresh()
}

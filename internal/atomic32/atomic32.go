// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package atomic32 wraps code.hybscloud.com/atomix counters for the
// monotonic handle-id generators and refcounts used throughout the fiber
// runtime. Mirrors the sess package's counter/nextSerial pattern
// (code.hybscloud.com/sess's serial.go), generalized from a single global
// counter to one instance per table (fibers, channels).
package atomic32

import "code.hybscloud.com/atomix"

// Counter is a monotonically increasing, allocation-free id/refcount source.
// The runtime is single-threaded, so the atomics here buy cheap, simple
// increment-and-read semantics rather than cross-thread safety; see
// DESIGN.md for why atomix is still the right tool over a plain uint32.
type Counter struct {
	v atomix.Uint32
}

// Next returns the next monotonically increasing value, starting at 1.
// Zero is reserved as the "no handle" sentinel.
func (c *Counter) Next() uint32 {
	return c.v.Add(1)
}

// Load returns the current value without advancing it.
func (c *Counter) Load() uint32 {
	return c.v.Load()
}

// Ref is a simple reference count built on the same primitive, used by
// channel dup/close (spec.md §4.3).
type Ref struct {
	v atomix.Uint32
}

// Init sets the initial reference count (normally 1, from Channel's creator).
func (r *Ref) Init(n uint32) {
	r.v.Store(n)
}

// Inc increments the refcount, called by dup.
func (r *Ref) Inc() uint32 {
	return r.v.Add(1)
}

// Dec decrements the refcount, called by close. Returns the count after
// decrementing; callers free the underlying resource when it reaches zero.
func (r *Ref) Dec() uint32 {
	return r.v.Add(^uint32(0))
}

// Load returns the current reference count.
func (r *Ref) Load() uint32 {
	return r.v.Load()
}

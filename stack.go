// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"golang.org/x/sys/unix"
)

// stack is a fixed-size byte region backing one fiber, obtained from a
// free-list and returned to it on fiber destruction (spec.md §3 "Stack").
//
// Because this runtime adapts fiber execution onto a real goroutine per
// fiber rather than raw register/stack-pointer switching (see DESIGN.md's
// resolution of the §9 "raw stack switching" design note — Go gives no safe,
// portable way to splice a goroutine onto an arbitrary foreign stack), the
// "stack" here is an owned guard-paged memory region whose accounting
// mirrors the spec's model exactly (fixed size, free-listed, guard page at
// the end) even though the Go goroutine backing the fiber uses its own,
// separately managed, growable stack. Application code never sees either.
type stack struct {
	region    []byte
	pageSize  int
	guarded   bool
}

func pageSize() int {
	return unix.Getpagesize()
}

// newStack allocates a guard-paged region of at least size bytes, rounded
// up to a whole number of pages plus one trailing guard page.
func newStack(size int) (*stack, error) {
	ps := pageSize()
	pages := (size + ps - 1) / ps
	if pages < 1 {
		pages = 1
	}
	total := (pages + 1) * ps // +1 guard page
	region, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	s := &stack{region: region, pageSize: ps}
	guardOff := pages * ps
	if err := unix.Mprotect(region[guardOff:], unix.PROT_NONE); err == nil {
		s.guarded = true
	}
	return s, nil
}

func (s *stack) free() error {
	return unix.Munmap(s.region)
}

// stackFreeList is a simple LIFO free-list of same-sized stack regions,
// bounded by Config.StackFreeListMax (spec.md §3: "obtained from a
// free-list; returned to the free-list on fiber destruction").
type stackFreeList struct {
	size int
	max  int
	free []*stack
}

func newStackFreeList(size, max int) *stackFreeList {
	return &stackFreeList{size: size, max: max}
}

func (fl *stackFreeList) get() (*stack, *Error) {
	if n := len(fl.free); n > 0 {
		s := fl.free[n-1]
		fl.free = fl.free[:n-1]
		return s, nil
	}
	s, err := newStack(fl.size)
	if err != nil {
		return nil, newErr("spawn", KindOom)
	}
	return s, nil
}

func (fl *stackFreeList) put(s *stack) {
	if len(fl.free) >= fl.max {
		_ = s.free()
		return
	}
	fl.free = append(fl.free, s)
}

// drain releases every stack currently on the free-list. Nothing in this
// package calls it; a Runtime has no teardown operation.
func (fl *stackFreeList) drain() {
	for _, s := range fl.free {
		_ = s.free()
	}
	fl.free = nil
}

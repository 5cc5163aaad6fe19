// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import "container/heap"

// timerEntry is a single (absolute deadline, clause) pair in the timer
// heap (spec.md §3 "Timer heap entry"). clauseIndex is -1 for the
// "overall call deadline" entries park registers alongside a clause
// array, and the owning clause's index within its wait set otherwise
// (i.e. for a Timer clause such as the one msleep builds).
type timerEntry struct {
	deadline    int64
	fiber       *fiberState
	clauseIndex int
	id          int64
	heapIndex   int
}

// timerHeap is a min-heap keyed by absolute deadline, feeding the
// poller's sleep duration (spec.md §3, §4.5).
type timerHeap struct {
	entries []*timerEntry
	byID    map[int64]*timerEntry
	nextID  int64
}

func newTimerHeap() *timerHeap {
	return &timerHeap{byID: make(map[int64]*timerEntry)}
}

// heap.Interface implementation.
func (h *timerHeap) Len() int { return len(h.entries) }
func (h *timerHeap) Less(i, j int) bool {
	return h.entries[i].deadline < h.entries[j].deadline
}
func (h *timerHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].heapIndex = i
	h.entries[j].heapIndex = j
}
func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.heapIndex = len(h.entries)
	h.entries = append(h.entries, e)
}
func (h *timerHeap) Pop() any {
	n := len(h.entries)
	e := h.entries[n-1]
	h.entries[n-1] = nil
	h.entries = h.entries[:n-1]
	return e
}

func (h *timerHeap) insert(deadline int64, fiber *fiberState, clauseIndex int) int64 {
	h.nextID++
	id := h.nextID
	e := &timerEntry{deadline: deadline, fiber: fiber, clauseIndex: clauseIndex, id: id}
	h.byID[id] = e
	heap.Push(h, e)
	return id
}

// add registers the overall-deadline timer for a park() call (clauseIndex
// -1, interpreted by fireDueTimers as "wake with ErrTimedOut").
func (h *timerHeap) add(deadline int64, fiber *fiberState) int64 {
	return h.insert(deadline, fiber, -1)
}

// addClause registers a Timer clause's own deadline (e.g. msleep's sleep
// time), interpreted by fireDueTimers as "this clause fired".
func (h *timerHeap) addClause(deadline int64, fiber *fiberState, clauseIndex int) int64 {
	return h.insert(deadline, fiber, clauseIndex)
}

func (h *timerHeap) remove(id int64) {
	e, ok := h.byID[id]
	if !ok {
		return
	}
	delete(h.byID, id)
	heap.Remove(h, e.heapIndex)
}

// nextTimeout returns the duration until the earliest timer deadline, or
// ok=false if the heap is empty (spec.md §4.5: "infinity if neither
// timers nor waiters exist").
func (h *timerHeap) nextTimeout(now int64) (millis int64, ok bool) {
	if len(h.entries) == 0 {
		return 0, false
	}
	d := h.entries[0].deadline - now
	if d < 0 {
		d = 0
	}
	return d, true
}

// popDue pops and returns the earliest entry if its deadline has passed,
// reporting whether it was an overall-deadline entry (clauseIndex == -1)
// or a specific clause's own timer.
func (h *timerHeap) popDue(now int64) (fiber *fiberState, clauseIndex int, isOverall bool, ok bool) {
	if len(h.entries) == 0 || h.entries[0].deadline > now {
		return nil, 0, false, false
	}
	e := heap.Pop(h).(*timerEntry)
	delete(h.byID, e.id)
	return e.fiber, e.clauseIndex, e.clauseIndex < 0, true
}

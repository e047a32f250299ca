// SPDX-License-Identifier: MIT
package queue

import "github.com/Mkinney99/sushi/internal/engine/event"

// Deferred is a fixed-capacity, array-backed min-heap keyed by
// event.Event.Timestamp. It holds non-RT events whose timestamp lies
// beyond the current block's horizon (spec.md §4.4): the RT thread pushes
// them here instead of converting them to an RtEvent immediately, and pops
// everything due once later blocks reach their timestamp. Single-threaded:
// only the RT thread touches it, so no synchronization is needed, and
// storage is preallocated so Push/Pop never allocate.
type Deferred struct {
	items []event.Event
	full  atomic64
}

type atomic64 struct{ n uint64 }

// NewDeferred creates a Deferred heap with a fixed maximum size.
func NewDeferred(capacity int) *Deferred {
	return &Deferred{items: make([]event.Event, 0, capacity)}
}

// Push inserts e, ordered by Timestamp. Returns false (and counts an
// overflow) if the heap is already at capacity.
func (d *Deferred) Push(e event.Event) bool {
	if len(d.items) == cap(d.items) {
		d.full.n++
		return false
	}
	d.items = append(d.items, e)
	d.siftUp(len(d.items) - 1)
	return true
}

// Peek returns the earliest-timestamped event without removing it.
func (d *Deferred) Peek() (event.Event, bool) {
	if len(d.items) == 0 {
		return event.Event{}, false
	}
	return d.items[0], true
}

// Pop removes and returns the earliest-timestamped event.
func (d *Deferred) Pop() (event.Event, bool) {
	if len(d.items) == 0 {
		return event.Event{}, false
	}
	top := d.items[0]
	last := len(d.items) - 1
	d.items[0] = d.items[last]
	var zero event.Event
	d.items[last] = zero
	d.items = d.items[:last]
	if len(d.items) > 0 {
		d.siftDown(0)
	}
	return top, true
}

// DrainDue pops and applies every event whose Timestamp is <= blockEnd, in
// timestamp order, via apply.
func (d *Deferred) DrainDue(blockEnd int64, apply func(event.Event)) {
	for {
		e, ok := d.Peek()
		if !ok || e.Timestamp > blockEnd {
			return
		}
		d.Pop()
		apply(e)
	}
}

// Overflow returns the number of pushes dropped because the heap was full.
func (d *Deferred) Overflow() uint64 {
	return d.full.n
}

// Len returns the number of events currently held.
func (d *Deferred) Len() int {
	return len(d.items)
}

func (d *Deferred) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if d.items[parent].Timestamp <= d.items[i].Timestamp {
			break
		}
		d.items[parent], d.items[i] = d.items[i], d.items[parent]
		i = parent
	}
}

func (d *Deferred) siftDown(i int) {
	n := len(d.items)
	for {
		left := 2*i + 1
		right := 2*i + 2
		smallest := i
		if left < n && d.items[left].Timestamp < d.items[smallest].Timestamp {
			smallest = left
		}
		if right < n && d.items[right].Timestamp < d.items[smallest].Timestamp {
			smallest = right
		}
		if smallest == i {
			return
		}
		d.items[i], d.items[smallest] = d.items[smallest], d.items[i]
		i = smallest
	}
}

// SPDX-License-Identifier: MIT
// Package queue implements the bounded lock-free queues spec.md §4.4/§9
// requires: MPSC for non-RT→RT event delivery, SPMC for RT→non-RT
// notification fan-out. Both use a power-of-two capacity and
// cache-line-padded indices. MPSC producers claim slots with a CAS loop and
// its single consumer advances with plain stores; SPMC is the mirror image,
// a single producer publishing with plain stores and consumers claiming
// slots with a CAS loop. Storage is preallocated at construction; Push/Pop
// never allocate.
package queue

import (
	"sync/atomic"

	"github.com/Mkinney99/sushi/pkg/bitint"
)

// cachePad is sized to push the following field onto its own cache line on
// common 64-byte-line hardware, avoiding false sharing between the
// producer- and consumer-side indices.
type cachePad [64 - 8]byte

// paddedUint64 is an atomic counter padded to its own cache line.
type paddedUint64 struct {
	v   atomic.Uint64
	_   cachePad
}

// MPSC is a bounded multi-producer, single-consumer ring buffer. Producers
// (control surface, MidiDispatcher, async-work completion) call TryPush
// concurrently from non-RT threads; the RT thread calls TryPop.
type MPSC[T any] struct {
	buf  []T
	mask uint64

	head paddedUint64 // next write slot (claimed via CAS)
	tail paddedUint64 // next slot to hand to the consumer (advanced by the single consumer)
	done paddedUint64 // count of slots fully written, for the consumer's plain-load fast path

	overflow atomic.Uint64 // dropped-push counter
}

// NewMPSC creates an MPSC queue. capacity is rounded up to the next power
// of two, as spec.md §9 requires.
func NewMPSC[T any](capacity int) *MPSC[T] {
	cap := bitint.NextPowerOfTwo(capacity)
	return &MPSC[T]{
		buf:  make([]T, cap),
		mask: uint64(cap - 1),
	}
}

// TryPush attempts to enqueue v without blocking. Returns false (and
// increments the overflow counter) if the queue is full.
func (q *MPSC[T]) TryPush(v T) bool {
	for {
		head := q.head.v.Load()
		tail := q.tail.v.Load()
		if head-tail >= uint64(len(q.buf)) {
			q.overflow.Add(1)
			return false
		}
		if q.head.v.CompareAndSwap(head, head+1) {
			q.buf[head&q.mask] = v
			// Publish this slot only after the write lands, and only once
			// every slot below it has published, so the consumer never
			// observes a torn window.
			for q.done.v.Load() != head {
			}
			q.done.v.Store(head + 1)
			return true
		}
	}
}

// TryPop attempts to dequeue the oldest published value. Returns
// (zero, false) if nothing is available yet.
func (q *MPSC[T]) TryPop() (T, bool) {
	var zero T
	tail := q.tail.v.Load()
	done := q.done.v.Load()
	if tail >= done {
		return zero, false
	}
	v := q.buf[tail&q.mask]
	q.tail.v.Store(tail + 1)
	return v, true
}

// Overflow returns the number of pushes dropped because the queue was full.
func (q *MPSC[T]) Overflow() uint64 {
	return q.overflow.Load()
}

// Len returns a snapshot of the number of items currently queued.
func (q *MPSC[T]) Len() int {
	return int(q.done.v.Load() - q.tail.v.Load())
}

// SPMC is a bounded single-producer, multi-consumer ring buffer: the RT
// thread is the sole producer, and one or more dispatcher/listener
// goroutines call TryPop concurrently.
type SPMC[T any] struct {
	buf  []T
	mask uint64

	head paddedUint64 // next write slot, advanced by the single RT producer
	tail paddedUint64 // next slot to claim, advanced via CAS by consumers

	overflow atomic.Uint64
}

// NewSPMC creates an SPMC queue with capacity rounded up to a power of two.
func NewSPMC[T any](capacity int) *SPMC[T] {
	cap := bitint.NextPowerOfTwo(capacity)
	return &SPMC[T]{
		buf:  make([]T, cap),
		mask: uint64(cap - 1),
	}
}

// TryPush is called only from the RT producer thread; it never blocks and
// never allocates. Returns false (and increments the overflow counter) if
// the queue is full.
func (q *SPMC[T]) TryPush(v T) bool {
	head := q.head.v.Load()
	tail := q.tail.v.Load()
	if head-tail >= uint64(len(q.buf)) {
		q.overflow.Add(1)
		return false
	}
	q.buf[head&q.mask] = v
	q.head.v.Store(head + 1)
	return true
}

// TryPop attempts to claim and dequeue the oldest value. Safe to call from
// multiple consumer goroutines concurrently.
func (q *SPMC[T]) TryPop() (T, bool) {
	var zero T
	for {
		tail := q.tail.v.Load()
		head := q.head.v.Load()
		if tail >= head {
			return zero, false
		}
		if q.tail.v.CompareAndSwap(tail, tail+1) {
			return q.buf[tail&q.mask], true
		}
	}
}

// Overflow returns the number of pushes dropped because the queue was full.
func (q *SPMC[T]) Overflow() uint64 {
	return q.overflow.Load()
}

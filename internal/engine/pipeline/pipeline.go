// SPDX-License-Identifier: MIT
// Package pipeline implements EventPipeline (spec.md §4.4): the bounded
// lock-free queue pair connecting the RT thread to the non-RT control and
// dispatcher threads, plus the deferred-event heap for future-timestamped
// events.
package pipeline

import (
	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/ids"
	"github.com/Mkinney99/sushi/internal/engine/queue"
	"github.com/Mkinney99/sushi/internal/engine/telemetry"
	"github.com/Mkinney99/sushi/internal/logging"
)

// Pipeline wires the non-RT→RT and RT→non-RT queues together with the
// deferred heap for events the RT consumer isn't ready to act on yet.
type Pipeline struct {
	toRT   *queue.MPSC[event.Event]
	fromRT *queue.SPMC[event.RtEvent]

	deferred *queue.Deferred

	counters *telemetry.Counters
}

// New creates a Pipeline with the given queue capacities (rounded to
// powers of two by package queue) and deferred-heap capacity. counters may
// be nil; when set, every drop this Pipeline causes is also mirrored into
// it so the logging ticker and control surface have one place to read
// process-wide telemetry from (spec.md §7).
func New(toRTCapacity, fromRTCapacity, deferredCapacity int, counters *telemetry.Counters) *Pipeline {
	return &Pipeline{
		toRT:     queue.NewMPSC[event.Event](toRTCapacity),
		fromRT:   queue.NewSPMC[event.RtEvent](fromRTCapacity),
		deferred: queue.NewDeferred(deferredCapacity),
		counters: counters,
	}
}

// PostToRT enqueues e for RT-side delivery. Safe to call concurrently from
// any non-RT producer (control surface, MidiDispatcher, async-work
// completion).
func (p *Pipeline) PostToRT(e event.Event) bool {
	ok := p.toRT.TryPush(e)
	if !ok && p.counters != nil {
		p.counters.IncToRTOverflow()
	}
	return ok
}

// PostFromRT converts e to an RtEvent and enqueues it for non-RT
// consumption. Called only from the RT thread (AudioGraph, draining
// processor outboxes).
func (p *Pipeline) PostFromRT(e event.Event) bool {
	rt, ok := event.ToRtEvent(e, e.Timestamp)
	if !ok {
		logging.Warnf("pipeline: dropped RT->non-RT event kind=%s: payload exceeds inline blob capacity", e.Kind)
		return false
	}
	ok = p.fromRT.TryPush(rt)
	if !ok && p.counters != nil {
		p.counters.IncFromRTOverflow()
	}
	return ok
}

// PostRtEventFromRT enqueues an RtEvent produced directly on the RT thread
// (e.g. drained from a processor's outbox) without a round trip through
// Event.
func (p *Pipeline) PostRtEventFromRT(rt event.RtEvent) bool {
	ok := p.fromRT.TryPush(rt)
	if !ok && p.counters != nil {
		p.counters.IncFromRTOverflow()
	}
	return ok
}

// DrainToRT is called once per block by AudioGraph.Process step 1. It pops
// every queued non-RT→RT event whose absolute timestamp is at or before
// blockEnd; events already late take effect at offset 0. Events addressed to the graph itself (ADD/REMOVE
// processor, transport updates) are handed to graphApply as full Events,
// since they mutate graph state directly rather than a Processor's
// parameters and carry fields (e.g. ProcessorName) RtEvent has no room
// for. Everything else is converted to an RtEvent and handed to apply.
// Events whose timestamp is beyond blockEnd are held in the deferred heap
// and replayed when their block arrives, preserving the
// strictly-older-never-behind-strictly-newer ordering guarantee.
func (p *Pipeline) DrainToRT(blockStart, blockEnd int64, resident func(ids.ObjectId) bool, graphApply func(event.Event), apply func(event.RtEvent)) {
	p.deferred.DrainDue(blockEnd, func(e event.Event) {
		p.dispatchDue(e, blockStart, resident, graphApply, apply)
	})

	for {
		e, ok := p.toRT.TryPop()
		if !ok {
			return
		}
		if e.Timestamp > blockEnd {
			if !p.deferred.Push(e) {
				logging.Warnf("pipeline: deferred heap full, dropping future event kind=%s", e.Kind)
				if p.counters != nil {
					p.counters.IncDeferredOverflow()
				}
			}
			continue
		}
		p.dispatchDue(e, blockStart, resident, graphApply, apply)
	}
}

func (p *Pipeline) dispatchDue(e event.Event, blockStart int64, resident func(ids.ObjectId) bool, graphApply func(event.Event), apply func(event.RtEvent)) {
	if targetless(e.Kind) {
		graphApply(e)
		return
	}
	if resident != nil && !resident(e.Target) {
		return // target no longer resident: drop silently (spec.md §4.4)
	}
	rt, ok := event.ToRtEvent(e, blockStart)
	if !ok {
		logging.Warnf("pipeline: dropped non-RT->RT event kind=%s: payload exceeds inline blob capacity", e.Kind)
		return
	}
	apply(rt)
}

// targetless reports whether e addresses the graph itself rather than a
// specific Processor, per spec.md §4.3 step 1 (ADD/REMOVE processor,
// transport updates mutate graph state directly instead of routing to a
// Processor's ProcessEvent).
func targetless(k event.Kind) bool {
	switch k {
	case event.KindAddProcessor, event.KindRemoveProcessor, event.KindTransport:
		return true
	default:
		return false
	}
}

// DrainFromRT drains every currently published RT→non-RT event and fans it
// out via apply. Safe to call from multiple dispatcher/listener goroutines
// concurrently (the underlying SPMC supports multi-consumer TryPop).
func (p *Pipeline) DrainFromRT(apply func(event.RtEvent)) {
	for {
		rt, ok := p.fromRT.TryPop()
		if !ok {
			return
		}
		apply(rt)
	}
}

// ToRTOverflow returns the number of non-RT→RT pushes dropped for a full
// queue.
func (p *Pipeline) ToRTOverflow() uint64 { return p.toRT.Overflow() }

// FromRTOverflow returns the number of RT→non-RT pushes dropped for a full
// queue.
func (p *Pipeline) FromRTOverflow() uint64 { return p.fromRT.Overflow() }

// DeferredOverflow returns the number of future-timestamped events dropped
// because the deferred heap was full.
func (p *Pipeline) DeferredOverflow() uint64 { return p.deferred.Overflow() }

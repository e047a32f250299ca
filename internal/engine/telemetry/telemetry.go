// SPDX-License-Identifier: MIT
// Package telemetry implements the atomic counters spec.md §7's error
// taxonomy requires for the RT/protocol paths: runtime queue-full drops
// (per queue) and protocol decode failures (per cause). Counters are
// cache-line-padded, mirroring internal/engine/queue's own padded atomics,
// since the RT thread and reporting goroutines increment/read them
// concurrently and false sharing between adjacent counters would show up
// directly as jitter on the audio thread.
package telemetry

import "sync/atomic"

type cachePad [64 - 8]byte

type counter struct {
	v atomic.Uint64
	_ cachePad
}

func (c *counter) inc() { c.v.Add(1) }
func (c *counter) load() uint64 { return c.v.Load() }

// Counters aggregates every overflow/drop count the RT and protocol paths
// report. A single instance is shared process-wide (constructed once in
// hostengine.New and threaded through the pipeline/graph/dispatcher).
// Snapshot reads every counter at once; nothing outside the tests calls
// it, and no goroutine reads the counters on a schedule.
type Counters struct {
	toRTOverflow    counter // non-RT->RT MPSC full
	fromRTOverflow  counter // RT->non-RT SPMC full
	deferredOverflow counter // deferred min-heap at capacity
	processBlocks   counter // Process calls that recovered a panic
	outboxDrops     counter // outbox event lost because RT->non-RT SPMC was full
	midiDecodeErrors counter // Decode() returned ok=false
	midiUndelivered counter // decoded message matched no connection
	midiEgressErrors counter // OutputSink.Send failures
}

// IncToRTOverflow records a dropped non-RT->RT enqueue.
func (c *Counters) IncToRTOverflow() { c.toRTOverflow.inc() }

// IncFromRTOverflow records a dropped RT->non-RT enqueue.
func (c *Counters) IncFromRTOverflow() { c.fromRTOverflow.inc() }

// IncDeferredOverflow records a deferred-event heap insertion that
// exceeded its fixed capacity.
func (c *Counters) IncDeferredOverflow() { c.deferredOverflow.inc() }

// IncProcessBlocks records one AudioGraph.Process call that recovered a
// panic and zeroed its output.
func (c *Counters) IncProcessBlocks() { c.processBlocks.inc() }

// IncOutboxDrop records one event drained from a processor's outbox and
// dropped because the RT->non-RT queue was full.
func (c *Counters) IncOutboxDrop() { c.outboxDrops.inc() }

// IncMidiDecodeError records one MIDI byte-stream chunk Decode rejected.
func (c *Counters) IncMidiDecodeError() { c.midiDecodeErrors.inc() }

// IncMidiUndelivered records one decoded MIDI message that matched no
// registered connection.
func (c *Counters) IncMidiUndelivered() { c.midiUndelivered.inc() }

// IncMidiEgressError records one MIDI output send failure.
func (c *Counters) IncMidiEgressError() { c.midiEgressErrors.inc() }

// Snapshot is a point-in-time copy of every counter, suitable for logging
// or a status response.
type Snapshot struct {
	ToRTOverflow     uint64
	FromRTOverflow   uint64
	DeferredOverflow uint64
	ProcessBlocks    uint64
	OutboxDrops      uint64
	MidiDecodeErrors uint64
	MidiUndelivered  uint64
	MidiEgressErrors uint64
}

// Snapshot reads every counter. Individual loads are not mutually
// atomic — a caller sampling mid-block may see a slightly torn view
// across counters, acceptable for a reporting-only aggregate.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		ToRTOverflow:     c.toRTOverflow.load(),
		FromRTOverflow:   c.fromRTOverflow.load(),
		DeferredOverflow: c.deferredOverflow.load(),
		ProcessBlocks:    c.processBlocks.load(),
		OutboxDrops:      c.outboxDrops.load(),
		MidiDecodeErrors: c.midiDecodeErrors.load(),
		MidiUndelivered:  c.midiUndelivered.load(),
		MidiEgressErrors: c.midiEgressErrors.load(),
	}
}

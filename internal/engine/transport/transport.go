// SPDX-License-Identifier: MIT
// Package transport implements Transport (spec.md §4.6): sample position,
// tempo, time signature and play-state, mutated only on the RT thread at
// block boundaries.
package transport

import "github.com/Mkinney99/sushi/internal/engine/event"

// State is a read-only snapshot of the transport handed to Processors
// during a process call (spec.md §4.6's "read-only snapshot for the
// current block").
type State struct {
	SamplePosition int64
	Tempo          float64
	TimeSigNum     int
	TimeSigDen     int
	PlayState      event.PlayState
}

// Transport owns the mutable state. All mutation happens on the RT thread;
// Advance is called once per block from AudioGraph.Process, strictly after
// any TRANSPORT events for that block have been applied.
type Transport struct {
	state       State
	changedThis bool // PlayState changed during the current block
}

// New creates a Transport at rest: position 0, 120bpm, 4/4, stopped.
func New() *Transport {
	return &Transport{state: State{Tempo: 120, TimeSigNum: 4, TimeSigDen: 4, PlayState: event.Stopped}}
}

// Snapshot returns the current read-only state.
func (t *Transport) Snapshot() State { return t.state }

// Advance moves the sample position forward by blockSize, clearing the
// per-block "state changed" flag that StateChanged reports.
func (t *Transport) Advance(blockSize int) {
	t.state.SamplePosition += int64(blockSize)
	t.changedThis = false
}

// StateChanged reports whether ApplyEvent changed the play-state during
// the block currently in progress, so Processors can observe
// transport.state_change() and flush tails (spec.md §4.6).
func (t *Transport) StateChanged() bool { return t.changedThis }

// ApplyEvent mutates transport state in response to a TRANSPORT event. Must
// be called only from AudioGraph.Process step 1, before Advance.
func (t *Transport) ApplyEvent(e event.Event) {
	if e.Kind != event.KindTransport {
		return
	}
	if e.Tempo > 0 {
		t.state.Tempo = e.Tempo
	}
	if e.TimeSigNum > 0 {
		t.state.TimeSigNum = e.TimeSigNum
	}
	if e.TimeSigDen > 0 {
		t.state.TimeSigDen = e.TimeSigDen
	}
	if e.NewPlayState != t.state.PlayState {
		t.changedThis = true
		t.state.PlayState = e.NewPlayState
		if e.NewPlayState == event.Stopped {
			// Explicit STOP resets sample position (spec.md §4.6).
			t.state.SamplePosition = 0
		}
	}
}

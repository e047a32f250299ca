// SPDX-License-Identifier: MIT
package transport

import (
	"math"
	"sync/atomic"

	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/ids"
)

// Poster abstracts the two directions an event can travel — posted by
// EventPipeline, consumed here only through this narrow interface so
// package transport doesn't need to import package pipeline.
type Poster interface {
	PostToRT(e event.Event) bool
	PostFromRT(e event.Event) bool
}

// AsyncRequester abstracts scheduling a non-RT callback (spec.md §4.6's
// request_non_rt_callback), implemented by the worker pool.
type AsyncRequester interface {
	Request(target ids.ObjectId, argument []byte, handler func([]byte) ([]byte, error)) uint64
}

// Host is the facade handed to each Processor at construction (spec.md
// §4.6): post_event, transport(), sample_rate(), request_non_rt_callback.
// post_event infers its direction from which thread is currently calling —
// onRT is flipped by AudioGraph.Process around each block so the same Host
// instance serves both a Processor's RT calls and the control surface's
// non-RT calls correctly.
type Host struct {
	pipeline   Poster
	transport  *Transport
	async      AsyncRequester
	sampleRate atomic.Uint64 // math.Float64bits
	onRT       atomic.Bool
}

// NewHost creates a Host bound to pipeline, transport and the worker pool
// used for request_non_rt_callback.
func NewHost(pipeline Poster, tr *Transport, async AsyncRequester) *Host {
	return &Host{pipeline: pipeline, transport: tr, async: async}
}

// SetOnRT marks whether the calling thread is currently the RT thread.
// AudioGraph.Process sets this true for its duration and false otherwise.
func (h *Host) SetOnRT(v bool) { h.onRT.Store(v) }

// SetSampleRate updates the sample rate Processors observe via SampleRate().
func (h *Host) SetSampleRate(sr float64) { h.sampleRate.Store(math.Float64bits(sr)) }

// SampleRate returns the engine's current sample rate.
func (h *Host) SampleRate() float64 { return math.Float64frombits(h.sampleRate.Load()) }

// TransportState returns a read-only snapshot for the current block.
func (h *Host) TransportState() State { return h.transport.Snapshot() }

// PostEvent posts e on the RT→non-RT queue if called from the RT thread,
// or the non-RT→RT queue otherwise, per spec.md §4.6.
func (h *Host) PostEvent(e event.Event) bool {
	if h.onRT.Load() {
		return h.pipeline.PostFromRT(e)
	}
	return h.pipeline.PostToRT(e)
}

// RequestNonRTCallback is the shorthand for posting an ASYNC_WORK event
// (spec.md §4.6): it schedules handler on the worker pool and returns the
// callback id the processor should correlate its ASYNC_WORK_RESPONSE
// against.
func (h *Host) RequestNonRTCallback(target ids.ObjectId, argument []byte, handler func([]byte) ([]byte, error)) uint64 {
	return h.async.Request(target, argument, handler)
}

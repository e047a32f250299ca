// SPDX-License-Identifier: MIT
package event

import "github.com/Mkinney99/sushi/internal/engine/ids"

// rtBlobCap bounds the inline byte payload an RtEvent can carry (DATA
// parameter changes, ASYNC_WORK argument/result blobs, STRING parameter
// changes encoded as UTF-8). RtEvent must stay fixed-size and trivially
// copyable to live on the lock-free RT queues without allocation; anything
// that doesn't fit makes ToRtEvent report failure, and the pipeline drops
// the event with a logged warning; no telemetry counter records it.
const rtBlobCap = 48

// RtEvent is the fixed-size, trivially-copyable variant of Event used on
// the RT queues (spec.md §3/§9). SampleOffset is the offset within the
// current block at which the event should take effect.
type RtEvent struct {
	Kind         Kind
	SampleOffset int32
	Target       ids.ObjectId

	KeyboardSubtype KeyboardSubtype
	Note            int32
	Velocity        float32
	Value           float32

	ParamIndex int32
	ParamType  ParameterValueType
	FloatValue float32
	IntValue   int32
	BoolValue  bool

	Program int32

	Bypassed bool

	Tempo        float64
	TimeSigNum   int32
	TimeSigDen   int32
	NewPlayState PlayState

	CallbackID uint64

	BlobLen int32
	Blob    [rtBlobCap]byte
}

// ToRtEvent converts a non-RT Event to its fixed-size RT form, computing
// SampleOffset relative to blockStart per spec.md §4.4
// (max(0, event.Timestamp - blockStart)). ok is false when the event
// carries a payload too large for the inline blob; the caller must count
// and drop it rather than construct a partial RtEvent.
func ToRtEvent(e Event, blockStart int64) (RtEvent, bool) {
	offset := e.Timestamp - blockStart
	if offset < 0 {
		offset = 0
	}

	rt := RtEvent{
		Kind:            e.Kind,
		SampleOffset:    int32(offset),
		Target:          e.Target,
		KeyboardSubtype: e.KeyboardSubtype,
		Note:            int32(e.Note),
		Velocity:        e.Velocity,
		Value:           e.Value,
		ParamIndex:      int32(e.ParamIndex),
		ParamType:       e.ParamType,
		FloatValue:      e.FloatValue,
		IntValue:        e.IntValue,
		BoolValue:       e.BoolValue,
		Program:         int32(e.Program),
		Bypassed:        e.Bypassed,
		Tempo:           e.Tempo,
		TimeSigNum:      int32(e.TimeSigNum),
		TimeSigDen:      int32(e.TimeSigDen),
		NewPlayState:    e.NewPlayState,
		CallbackID:      e.CallbackID,
	}

	switch e.Kind {
	case KindStringParameterChange:
		if !rt.setBlob([]byte(e.StringVal)) {
			return RtEvent{}, false
		}
	case KindDataParameterChange:
		if !rt.setBlob(e.DataVal) {
			return RtEvent{}, false
		}
	case KindAsyncWork:
		if !rt.setBlob(e.Argument) {
			return RtEvent{}, false
		}
	case KindAsyncWorkResponse:
		if !rt.setBlob(e.Result) {
			return RtEvent{}, false
		}
		rt.BoolValue = e.Err != nil
	}

	return rt, true
}

func (rt *RtEvent) setBlob(data []byte) bool {
	if len(data) > rtBlobCap {
		return false
	}
	rt.BlobLen = int32(copy(rt.Blob[:], data))
	return true
}

// BlobBytes returns the inline payload as a slice view over the fixed
// array. The caller must not retain the slice past the RtEvent's lifetime
// on the RT thread.
func (rt *RtEvent) BlobBytes() []byte {
	return rt.Blob[:rt.BlobLen]
}

// FromRtEvent converts an RtEvent back into the richer non-RT Event form,
// used when the RT thread forwards an event outward (e.g. an ASYNC_WORK
// request read off the outbound queue by the worker pool). ts is the
// absolute sample timestamp reconstructed from the current block start.
func FromRtEvent(rt RtEvent, ts int64) Event {
	e := Event{
		Kind:            rt.Kind,
		Timestamp:       ts,
		Target:          rt.Target,
		KeyboardSubtype: rt.KeyboardSubtype,
		Note:            int(rt.Note),
		Velocity:        rt.Velocity,
		Value:           rt.Value,
		ParamIndex:      int(rt.ParamIndex),
		ParamType:       rt.ParamType,
		FloatValue:      rt.FloatValue,
		IntValue:        rt.IntValue,
		BoolValue:       rt.BoolValue,
		Program:         int(rt.Program),
		Bypassed:        rt.Bypassed,
		Tempo:           rt.Tempo,
		TimeSigNum:      int(rt.TimeSigNum),
		TimeSigDen:      int(rt.TimeSigDen),
		NewPlayState:    rt.NewPlayState,
		CallbackID:      rt.CallbackID,
	}

	blob := append([]byte(nil), rt.BlobBytes()...)
	switch rt.Kind {
	case KindStringParameterChange:
		e.StringVal = string(blob)
	case KindDataParameterChange:
		e.DataVal = blob
	case KindAsyncWork:
		e.Argument = blob
	case KindAsyncWorkResponse:
		e.Result = blob
	}

	return e
}

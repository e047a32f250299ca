// SPDX-License-Identifier: MIT
// Package event implements the closed sum-type Event/RtEvent pair of
// spec.md §3/§9: Event is the richer, heap-allocated non-RT form; RtEvent
// (rtevent.go) is the fixed-size, trivially-copyable variant carried on the
// RT queues. Conversion between the two is always explicit.
package event

import "github.com/Mkinney99/sushi/internal/engine/ids"

// Kind enumerates the closed set of event kinds spec.md §3 names.
type Kind uint8

const (
	KindKeyboard Kind = iota
	KindParameterChange
	KindStringParameterChange
	KindDataParameterChange
	KindProgramChange
	KindSetBypass
	KindTransport
	KindAddProcessor
	KindRemoveProcessor
	KindAsyncWork
	KindAsyncWorkResponse
	KindParameterChangeNotification
)

func (k Kind) String() string {
	switch k {
	case KindKeyboard:
		return "KEYBOARD"
	case KindParameterChange:
		return "PARAMETER_CHANGE"
	case KindStringParameterChange:
		return "STRING_PARAMETER_CHANGE"
	case KindDataParameterChange:
		return "DATA_PARAMETER_CHANGE"
	case KindProgramChange:
		return "PROGRAM_CHANGE"
	case KindSetBypass:
		return "SET_BYPASS"
	case KindTransport:
		return "TRANSPORT"
	case KindAddProcessor:
		return "ADD_PROCESSOR"
	case KindRemoveProcessor:
		return "REMOVE_PROCESSOR"
	case KindAsyncWork:
		return "ASYNC_WORK"
	case KindAsyncWorkResponse:
		return "ASYNC_WORK_RESPONSE"
	case KindParameterChangeNotification:
		return "PARAMETER_CHANGE_NOTIFICATION"
	default:
		return "UNKNOWN"
	}
}

// KeyboardSubtype distinguishes the keyboard-family messages.
type KeyboardSubtype uint8

const (
	NoteOn KeyboardSubtype = iota
	NoteOff
	Aftertouch
	PolyAftertouch
	Modulation
	PitchBend
)

// ParameterValueType distinguishes the parameter-change payload types.
type ParameterValueType uint8

const (
	ParamFloat ParameterValueType = iota
	ParamInt
	ParamBool
)

// PlayState mirrors Transport's play-state.
type PlayState uint8

const (
	Stopped PlayState = iota
	Playing
	Recording
)

// Event is the non-RT, heap-allocated representation. Producers (control
// surface, MidiDispatcher, async-work completion) build one of these and
// hand it to Pipeline.PostToRT; the RT consumer converts it to an RtEvent.
type Event struct {
	Kind      Kind
	Timestamp int64 // absolute sample count since engine start
	Target    ids.ObjectId

	// Keyboard
	KeyboardSubtype KeyboardSubtype
	Note            int
	Velocity        float32
	Value           float32 // aftertouch / modulation / pitch-bend amount

	// Parameter change
	ParamIndex int
	ParamType  ParameterValueType
	FloatValue float32
	IntValue   int32
	BoolValue  bool
	StringVal  string
	DataVal    []byte

	// Program change
	Program int

	// Bypass
	Bypassed bool

	// Transport
	Tempo        float64
	TimeSigNum   int
	TimeSigDen   int
	NewPlayState PlayState

	// Add/remove processor: a structural graph mutation. These are
	// "targetless" like Transport (see pipeline.go's targetless) and are
	// applied by AudioGraph at Process step 1 rather than immediately,
	// matching spec.md §4.3. ProcessorName names the track (IsTrack) or
	// plugin being added/removed; TrackName is the owning track for a
	// plugin op.
	ProcessorName string
	TrackName     string
	IsTrack       bool
	Channels      int // CreateTrack's bus width
	PluginUID     string
	PluginPath    string
	PluginKind    string

	// Async work
	CallbackID uint64
	Argument   []byte
	Result     []byte
	Err        error
}

// NewTransportEvent builds a TRANSPORT event carrying a play-state change.
func NewTransportEvent(ts int64, state PlayState) Event {
	return Event{Kind: KindTransport, Timestamp: ts, NewPlayState: state}
}

// NewParameterChangeEvent builds a float PARAMETER_CHANGE event.
func NewParameterChangeEvent(ts int64, target ids.ObjectId, paramIndex int, value float32) Event {
	return Event{
		Kind:       KindParameterChange,
		Timestamp:  ts,
		Target:     target,
		ParamIndex: paramIndex,
		ParamType:  ParamFloat,
		FloatValue: value,
	}
}

// NewAddTrackEvent builds an ADD_PROCESSOR event requesting a new Track,
// applied by AudioGraph at the next block's step 1 rather than immediately.
func NewAddTrackEvent(ts int64, name string, channels int) Event {
	return Event{Kind: KindAddProcessor, Timestamp: ts, IsTrack: true, ProcessorName: name, Channels: channels}
}

// NewRemoveTrackEvent builds a REMOVE_PROCESSOR event requesting a Track's
// removal.
func NewRemoveTrackEvent(ts int64, name string) Event {
	return Event{Kind: KindRemoveProcessor, Timestamp: ts, IsTrack: true, ProcessorName: name}
}

// NewAddPluginEvent builds an ADD_PROCESSOR event requesting a plugin be
// constructed and appended to trackName's chain.
func NewAddPluginEvent(ts int64, trackName, uid, name, path, kind string) Event {
	return Event{
		Kind:          KindAddProcessor,
		Timestamp:     ts,
		TrackName:     trackName,
		ProcessorName: name,
		PluginUID:     uid,
		PluginPath:    path,
		PluginKind:    kind,
	}
}

// NewRemovePluginEvent builds a REMOVE_PROCESSOR event requesting the named
// plugin's removal from whichever track owns it.
func NewRemovePluginEvent(ts int64, name string) Event {
	return Event{Kind: KindRemoveProcessor, Timestamp: ts, ProcessorName: name}
}

// NewKeyboardEvent builds a KEYBOARD event.
func NewKeyboardEvent(ts int64, target ids.ObjectId, subtype KeyboardSubtype, note int, velocity float32) Event {
	return Event{
		Kind:            KindKeyboard,
		Timestamp:       ts,
		Target:          target,
		KeyboardSubtype: subtype,
		Note:            note,
		Velocity:        velocity,
	}
}

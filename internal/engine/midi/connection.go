// SPDX-License-Identifier: MIT
// Package midi implements MidiDispatcher (spec.md §4.5): the four routing
// tables connecting MIDI ports/channels to Tracks, processor parameters,
// program-change handlers and MIDI output, plus MIDI 1.0 ingress decode
// and egress encode.
package midi

import (
	"errors"

	"github.com/Mkinney99/sushi/internal/engine/ids"
)

// OmniChannel is the MIDI channel value (16) meaning "any channel" on
// either side of a connection (spec.md §4.5).
const OmniChannel = 16

var (
	ErrInvalidMidiPort  = errors.New("midi: INVALID_MIDI_PORT")
	ErrInvalidChannel   = errors.New("midi: INVALID_CHANNEL")
	ErrInvalidTrackName = errors.New("midi: INVALID_TRACK_NAME")
	ErrInvalidProcessor = errors.New("midi: INVALID_PROCESSOR")
	ErrInvalidParameter = errors.New("midi: INVALID_PARAMETER")
)

// TrackConnection routes keyboard-family messages on a port/channel to a
// Track.
type TrackConnection struct {
	Track ids.ObjectId
}

// ParamConnection routes a CC on a port/channel/controller to a processor
// parameter, linearly mapped from the MIDI 1.0 7-bit range [0,127] onto
// [Min,Max] regardless of which bound is larger (spec.md §5 Open Question
// decision: linear CC map applies even when Min>Max, producing an inverted
// control).
type ParamConnection struct {
	Processor  ids.ObjectId
	ParamIndex int
	Min, Max   float64
}

// ProgramConnection routes program-change messages on a port/channel to a
// processor (spec.md §5 Open Question decision: program-change routing is
// per MIDI port, not global).
type ProgramConnection struct {
	Processor ids.ObjectId
}

// RawConnection routes every decoded message on a port/channel to a
// processor's raw-MIDI handler, bypassing typed keyboard/CC/program
// routing — useful for a plugin that wants the untouched byte stream
// (supplemented feature, SPEC_FULL.md §4).
type RawConnection struct {
	Processor ids.ObjectId
}

// OutputConnection routes a processor's emitted keyboard events to a MIDI
// output port/channel.
type OutputConnection struct {
	Port    int
	Channel int
}

// validateChannel checks a MIDI channel is in 0..16 inclusive (0..15 are
// concrete channels, 16 is OmniChannel).
func validateChannel(channel int) error {
	if channel < 0 || channel > OmniChannel {
		return ErrInvalidChannel
	}
	return nil
}

func validatePort(port, maxPorts int) error {
	if port < 0 || port >= maxPorts {
		return ErrInvalidMidiPort
	}
	return nil
}

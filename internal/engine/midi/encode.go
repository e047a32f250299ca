// SPDX-License-Identifier: MIT
package midi

import "gitlab.com/gomidi/midi/v2"

// OutputSink is the MIDI output backend (package midibackend's PortMidi
// adapter) egress hands encoded bytes to.
type OutputSink interface {
	Send(port int, data []byte) error
}

// EncodeNoteOn/EncodeNoteOff/EncodeControlChange/EncodeProgramChange build
// the raw MIDI 1.0 bytes for a channel-voice message via gomidi/v2's
// message constructors, used by Dispatcher's egress path (spec.md §4.5).
func EncodeNoteOn(channel uint8, note, velocity uint8) []byte {
	return midi.NoteOn(channel, note, velocity)
}

func EncodeNoteOff(channel uint8, note uint8) []byte {
	return midi.NoteOff(channel, note)
}

func EncodeControlChange(channel, controller, value uint8) []byte {
	return midi.ControlChange(channel, controller, value)
}

func EncodeProgramChange(channel, program uint8) []byte {
	return midi.ProgramChange(channel, program)
}

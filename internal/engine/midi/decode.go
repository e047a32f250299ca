// SPDX-License-Identifier: MIT
package midi

// MessageKind enumerates the MIDI 1.0 channel-voice message types
// MidiDispatcher understands (spec.md §4.5). Decode is hand-written
// against the wire format rather than a third-party parser: the two MIDI
// libraries this module depends on (gitlab.com/gomidi/midi/v2,
// github.com/rakyll/portmidi) appear only as transitive/indirect
// dependencies anywhere in the reference pack, with no call-site to ground
// an ingress-decode usage on, so decode stays hand-rolled while encode.go
// still exercises gomidi/v2's well-known egress message constructors.
type MessageKind uint8

const (
	MsgUnknown MessageKind = iota
	MsgNoteOn
	MsgNoteOff
	MsgPolyAftertouch
	MsgControlChange
	MsgProgramChange
	MsgChannelAftertouch
	MsgPitchBend
)

// Message is a decoded MIDI 1.0 channel-voice message.
type Message struct {
	Kind     MessageKind
	Channel  int // 0..15
	Data1    int // note / controller / program / pressure, per Kind
	Data2    int // velocity / value, 0 for messages that don't carry one
	PitchVal int // 14-bit centered pitch-bend value, only for MsgPitchBend

	// Raw is the undecoded status+data bytes this message was parsed from
	// (status omitted for a running-status message, matching what was
	// actually on the wire). A rawIn connection forwards this blob verbatim
	// rather than the decoded fields above.
	Raw []byte
}

// Decode parses a single MIDI 1.0 channel-voice message from raw status
// and data bytes. running is the previous status byte, used for
// running-status decode (status omitted, data bytes only); pass 0 if none
// applies. ok is false for system messages, realtime bytes, and anything
// this dispatcher doesn't route.
func Decode(raw []byte, running byte) (msg Message, consumed int, newRunning byte, ok bool) {
	if len(raw) == 0 {
		return Message{}, 0, running, false
	}

	status := raw[0]
	dataStart := 1
	if status < 0x80 {
		// Running status: raw[0] is already a data byte.
		status = running
		dataStart = 0
	}
	if status < 0x80 || status >= 0xF0 {
		return Message{}, dataStart + 1, running, false // system/realtime, not routed
	}

	kind := status & 0xF0
	channel := int(status & 0x0F)

	need := dataBytesFor(kind)
	if len(raw)-dataStart < need {
		return Message{}, 0, status, false // wait for more bytes
	}

	msg = Message{Channel: channel}
	switch kind {
	case 0x80:
		msg.Kind = MsgNoteOff
		msg.Data1, msg.Data2 = int(raw[dataStart]), int(raw[dataStart+1])
	case 0x90:
		msg.Data1, msg.Data2 = int(raw[dataStart]), int(raw[dataStart+1])
		if msg.Data2 == 0 {
			msg.Kind = MsgNoteOff // note-on velocity 0 is a note-off, per the MIDI 1.0 spec
		} else {
			msg.Kind = MsgNoteOn
		}
	case 0xA0:
		msg.Kind = MsgPolyAftertouch
		msg.Data1, msg.Data2 = int(raw[dataStart]), int(raw[dataStart+1])
	case 0xB0:
		msg.Kind = MsgControlChange
		msg.Data1, msg.Data2 = int(raw[dataStart]), int(raw[dataStart+1])
	case 0xC0:
		msg.Kind = MsgProgramChange
		msg.Data1 = int(raw[dataStart])
	case 0xD0:
		msg.Kind = MsgChannelAftertouch
		msg.Data1 = int(raw[dataStart])
	case 0xE0:
		msg.Kind = MsgPitchBend
		lsb, msb := int(raw[dataStart]), int(raw[dataStart+1])
		msg.PitchVal = (msb<<7 | lsb) - 8192 // center on 0
	default:
		return Message{}, dataStart + need, status, false
	}

	msg.Raw = raw[:dataStart+need]
	return msg, dataStart + need, status, true
}

func dataBytesFor(statusHighNibble byte) int {
	switch statusHighNibble {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}

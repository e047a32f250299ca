// SPDX-License-Identifier: MIT
package midi

import (
	"sync"
	"sync/atomic"

	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/ids"
	"github.com/Mkinney99/sushi/internal/engine/telemetry"
)

// Poster is the subset of pipeline.Pipeline the dispatcher needs to post
// decoded ingress events onto the non-RT→RT queue.
type Poster interface {
	PostToRT(e event.Event) bool
}

type channelTable[T any] map[int]map[int][]T // port -> channel -> connections

// Dispatcher owns the four routing tables of spec.md §4.5 and implements
// MIDI ingress decode-and-post plus egress encode-and-send.
type Dispatcher struct {
	mu sync.RWMutex

	maxPorts int

	keyboardIn channelTable[TrackConnection]
	ccIn       map[int]map[int]channelTable1[ParamConnection] // port -> controller -> channel -> conns
	programIn  channelTable[ProgramConnection]
	rawIn      channelTable[RawConnection]

	keyboardOut map[ids.ObjectId][]OutputConnection

	pipeline Poster
	sink     OutputSink
	counters *telemetry.Counters

	running    map[int]byte // per-port running status for Decode
	droppedIn  atomic.Uint64
	droppedOut atomic.Uint64
}

// channelTable1 avoids instantiating generic channelTable[T] twice with the
// same T for the two-level CC table (controller then channel).
type channelTable1[T any] map[int][]T

// New creates a Dispatcher bound to pipeline (for ingress) and sink (for
// egress), for a backend exposing maxPorts MIDI ports. counters may be nil.
func New(pipeline Poster, sink OutputSink, maxPorts int, counters *telemetry.Counters) *Dispatcher {
	return &Dispatcher{
		maxPorts:    maxPorts,
		keyboardIn:  make(channelTable[TrackConnection]),
		ccIn:        make(map[int]map[int]channelTable1[ParamConnection]),
		programIn:   make(channelTable[ProgramConnection]),
		rawIn:       make(channelTable[RawConnection]),
		keyboardOut: make(map[ids.ObjectId][]OutputConnection),
		pipeline:    pipeline,
		sink:        sink,
		counters:    counters,
		running:     make(map[int]byte),
	}
}

// ConnectKeyboard routes note on/off, aftertouch, pitch-bend and modulation
// on port/channel to target Track.
func (d *Dispatcher) ConnectKeyboard(port, channel int, target ids.ObjectId) error {
	if err := validatePort(port, d.maxPorts); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keyboardIn[port] == nil {
		d.keyboardIn[port] = make(map[int][]TrackConnection)
	}
	d.keyboardIn[port][channel] = append(d.keyboardIn[port][channel], TrackConnection{Track: target})
	return nil
}

// ConnectCC routes controller-number CC messages on port/channel to a
// processor parameter, mapped linearly onto [min,max]. min/max are
// normalized [0,1] parameter positions (param.Descriptor's own domain),
// not physical units — a mapping restricted to a sub-range of a control
// still yields a value the target's Denormalize can consume directly.
func (d *Dispatcher) ConnectCC(port, controller, channel int, target ids.ObjectId, paramIndex int, min, max float64) error {
	if err := validatePort(port, d.maxPorts); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	if controller < 0 || controller > 127 {
		return ErrInvalidParameter
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ccIn[port] == nil {
		d.ccIn[port] = make(map[int]channelTable1[ParamConnection])
	}
	if d.ccIn[port][controller] == nil {
		d.ccIn[port][controller] = make(channelTable1[ParamConnection])
	}
	d.ccIn[port][controller][channel] = append(d.ccIn[port][controller][channel],
		ParamConnection{Processor: target, ParamIndex: paramIndex, Min: min, Max: max})
	return nil
}

// ConnectProgram routes program-change messages on port/channel to target
// processor (per-port routing, spec.md §5 Open Question decision).
func (d *Dispatcher) ConnectProgram(port, channel int, target ids.ObjectId) error {
	if err := validatePort(port, d.maxPorts); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.programIn[port] == nil {
		d.programIn[port] = make(map[int][]ProgramConnection)
	}
	d.programIn[port][channel] = append(d.programIn[port][channel], ProgramConnection{Processor: target})
	return nil
}

// ConnectRaw routes every decoded message on port/channel to target
// processor's raw handler.
func (d *Dispatcher) ConnectRaw(port, channel int, target ids.ObjectId) error {
	if err := validatePort(port, d.maxPorts); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rawIn[port] == nil {
		d.rawIn[port] = make(map[int][]RawConnection)
	}
	d.rawIn[port][channel] = append(d.rawIn[port][channel], RawConnection{Processor: target})
	return nil
}

// ConnectOutput routes processor-emitted keyboard events to a MIDI output
// port/channel.
func (d *Dispatcher) ConnectOutput(processor ids.ObjectId, port, channel int) error {
	if err := validatePort(port, d.maxPorts); err != nil {
		return err
	}
	if err := validateChannel(channel); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyboardOut[processor] = append(d.keyboardOut[processor], OutputConnection{Port: port, Channel: channel})
	return nil
}

// Ingress decodes one MIDI byte stream chunk from port and posts an Event
// per matching connection, using ts as the absolute sample timestamp for
// every message decoded from this chunk. Returns the number of bytes
// consumed.
func (d *Dispatcher) Ingress(port int, raw []byte, ts int64) int {
	// Full lock, not RLock: this call mutates d.running below, and Ingress
	// is called concurrently from one goroutine per attached MIDI input.
	d.mu.Lock()
	defer d.mu.Unlock()

	total := 0
	running := d.running[port]
	for len(raw) > 0 {
		msg, consumed, newRunning, ok := Decode(raw, running)
		if consumed == 0 {
			break // incomplete trailing message, wait for more bytes
		}
		running = newRunning
		raw = raw[consumed:]
		total += consumed

		if !ok {
			d.droppedIn.Add(1)
			if d.counters != nil {
				d.counters.IncMidiDecodeError()
			}
			continue
		}
		if !d.dispatchIngress(port, msg, ts) {
			d.droppedIn.Add(1)
			if d.counters != nil {
				d.counters.IncMidiUndelivered()
			}
		}
	}
	d.running[port] = running
	return total
}

func (d *Dispatcher) dispatchIngress(port int, msg Message, ts int64) bool {
	delivered := false

	rawConns := matchChannelGeneric(d.rawIn[port], msg.Channel)
	if len(rawConns) > 0 {
		blob := append([]byte(nil), msg.Raw...) // msg.Raw aliases the caller's chunk buffer; copy before it escapes to the queue
		for _, c := range rawConns {
			d.pipeline.PostToRT(event.Event{Kind: event.KindDataParameterChange, Timestamp: ts, Target: c.Processor, DataVal: blob})
			delivered = true
		}
	}

	switch msg.Kind {
	case MsgNoteOn, MsgNoteOff, MsgPolyAftertouch, MsgChannelAftertouch, MsgPitchBend:
		subtype, note, velocity, value := keyboardFields(msg)
		for _, conn := range matchChannelGeneric(d.keyboardIn[port], msg.Channel) {
			e := event.NewKeyboardEvent(ts, conn.Track, subtype, note, velocity)
			e.Value = value
			d.pipeline.PostToRT(e)
			delivered = true
		}
	case MsgControlChange:
		if msg.Data1 == 1 { // modulation wheel also reaches keyboard connections
			for _, conn := range matchChannelGeneric(d.keyboardIn[port], msg.Channel) {
				e := event.NewKeyboardEvent(ts, conn.Track, event.Modulation, 0, 0)
				e.Value = float32(msg.Data2) / 127.0
				d.pipeline.PostToRT(e)
				delivered = true
			}
		}
		if byChannel, ok := d.ccIn[port][msg.Data1]; ok {
			for _, conn := range matchChannelGeneric(byChannel, msg.Channel) {
				norm := float64(msg.Data2) / 127.0
				value := conn.Min + norm*(conn.Max-conn.Min)
				d.pipeline.PostToRT(event.NewParameterChangeEvent(ts, conn.Processor, conn.ParamIndex, float32(value)))
				delivered = true
			}
		}
	case MsgProgramChange:
		for _, conn := range matchChannelGeneric(d.programIn[port], msg.Channel) {
			d.pipeline.PostToRT(event.Event{Kind: event.KindProgramChange, Timestamp: ts, Target: conn.Processor, Program: msg.Data1})
			delivered = true
		}
	}

	return delivered
}

func keyboardFields(msg Message) (subtype event.KeyboardSubtype, note int, velocity float32, value float32) {
	switch msg.Kind {
	case MsgNoteOn:
		return event.NoteOn, msg.Data1, float32(msg.Data2) / 127.0, 0
	case MsgNoteOff:
		return event.NoteOff, msg.Data1, float32(msg.Data2) / 127.0, 0
	case MsgPolyAftertouch:
		return event.PolyAftertouch, msg.Data1, 0, float32(msg.Data2) / 127.0
	case MsgChannelAftertouch:
		return event.Aftertouch, 0, 0, float32(msg.Data1) / 127.0
	case MsgPitchBend:
		return event.PitchBend, 0, 0, float32(msg.PitchVal) / 8192.0
	}
	return event.NoteOn, 0, 0, 0
}

// matchChannelGeneric implements spec.md §4.5's OMNI-then-specific delivery
// order: the OMNI bucket (channel 16) is iterated first, then the bucket
// for the message's own channel, so a connection registered on both
// receives the message twice — an intentional double-delivery (spec.md §5
// Open Question decision), not deduplicated here.
func matchChannelGeneric[T any](table map[int][]T, channel int) []T {
	var out []T
	if table == nil {
		return out
	}
	out = append(out, table[OmniChannel]...)
	if channel != OmniChannel {
		out = append(out, table[channel]...)
	}
	return out
}

// Egress drains keyboard-family RtEvents destined for processor and, for
// every registered output connection, encodes and sends the MIDI bytes.
func (d *Dispatcher) Egress(processor ids.ObjectId, rt event.RtEvent) {
	if rt.Kind != event.KindKeyboard {
		return
	}
	d.mu.RLock()
	conns := append([]OutputConnection(nil), d.keyboardOut[processor]...)
	d.mu.RUnlock()

	for _, c := range conns {
		var raw []byte
		switch rt.KeyboardSubtype {
		case event.NoteOn:
			raw = EncodeNoteOn(uint8(c.Channel), uint8(rt.Note), uint8(rt.Velocity*127))
		case event.NoteOff:
			raw = EncodeNoteOff(uint8(c.Channel), uint8(rt.Note))
		default:
			continue
		}
		if err := d.sink.Send(c.Port, raw); err != nil {
			d.droppedOut.Add(1)
			if d.counters != nil {
				d.counters.IncMidiEgressError()
			}
		}
	}
}

// KeyboardRouting is one entry of the keyboard-in routing table,
// denormalized for config serialization's round trip (spec.md §8).
type KeyboardRouting struct {
	Port, Channel int
	Target        ids.ObjectId
}

// KeyboardRoutings returns every registered keyboard-in connection.
func (d *Dispatcher) KeyboardRoutings() []KeyboardRouting {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []KeyboardRouting
	for port, byChannel := range d.keyboardIn {
		for channel, conns := range byChannel {
			for _, c := range conns {
				out = append(out, KeyboardRouting{Port: port, Channel: channel, Target: c.Track})
			}
		}
	}
	return out
}

// CCRouting is one entry of the CC-in routing table.
type CCRouting struct {
	Port, Controller, Channel int
	Target                    ids.ObjectId
	ParamIndex                int
	Min, Max                  float64
}

// CCRoutings returns every registered CC-in connection.
func (d *Dispatcher) CCRoutings() []CCRouting {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []CCRouting
	for port, byController := range d.ccIn {
		for controller, byChannel := range byController {
			for channel, conns := range byChannel {
				for _, c := range conns {
					out = append(out, CCRouting{
						Port: port, Controller: controller, Channel: channel,
						Target: c.Processor, ParamIndex: c.ParamIndex, Min: c.Min, Max: c.Max,
					})
				}
			}
		}
	}
	return out
}

// ProgramRouting is one entry of the program-change-in routing table.
type ProgramRouting struct {
	Port, Channel int
	Target        ids.ObjectId
}

// ProgramRoutings returns every registered program-change-in connection.
func (d *Dispatcher) ProgramRoutings() []ProgramRouting {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []ProgramRouting
	for port, byChannel := range d.programIn {
		for channel, conns := range byChannel {
			for _, c := range conns {
				out = append(out, ProgramRouting{Port: port, Channel: channel, Target: c.Processor})
			}
		}
	}
	return out
}

// RawRouting is one entry of the raw-in routing table.
type RawRouting struct {
	Port, Channel int
	Target        ids.ObjectId
}

// RawRoutings returns every registered raw-in connection.
func (d *Dispatcher) RawRoutings() []RawRouting {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []RawRouting
	for port, byChannel := range d.rawIn {
		for channel, conns := range byChannel {
			for _, c := range conns {
				out = append(out, RawRouting{Port: port, Channel: channel, Target: c.Processor})
			}
		}
	}
	return out
}

// OutputRouting is one entry of the keyboard-out routing table.
type OutputRouting struct {
	Processor     ids.ObjectId
	Port, Channel int
}

// OutputRoutings returns every registered keyboard-out connection.
func (d *Dispatcher) OutputRoutings() []OutputRouting {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []OutputRouting
	for processor, conns := range d.keyboardOut {
		for _, c := range conns {
			out = append(out, OutputRouting{Processor: processor, Port: c.Port, Channel: c.Channel})
		}
	}
	return out
}

// DroppedIngress returns the number of ingress messages counted and
// dropped for being unrecognized or unmapped.
func (d *Dispatcher) DroppedIngress() uint64 { return d.droppedIn.Load() }

// DroppedEgress returns the number of egress sends that failed.
func (d *Dispatcher) DroppedEgress() uint64 { return d.droppedOut.Load() }

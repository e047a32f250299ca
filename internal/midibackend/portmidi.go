// SPDX-License-Identifier: MIT
// Package midibackend adapts PortMidi to package midi's Dispatcher. Grounded
// on shaban-macaudio's dependency on github.com/rakyll/portmidi for MIDI
// I/O (the repo pulls the library in but, like gitlab.com/gomidi/midi/v2,
// has no direct call site in the pack to copy from — see DESIGN.md).
package midibackend

import (
	"fmt"
	"time"

	"github.com/rakyll/portmidi"

	"github.com/Mkinney99/sushi/internal/logging"
)

// Initialize starts the PortMidi subsystem. Pair with a deferred
// Terminate.
func Initialize() error {
	if err := portmidi.Initialize(); err != nil {
		return fmt.Errorf("midibackend: initialize: %w", err)
	}
	return nil
}

// Terminate shuts down the PortMidi subsystem.
func Terminate() error {
	return portmidi.Terminate()
}

// Device describes a MIDI input or output port.
type Device struct {
	ID          int
	Name        string
	IsInput     bool
	IsOutput    bool
	Interface   string
}

// Devices lists every visible MIDI port.
func Devices() []Device {
	count := portmidi.CountDevices()
	out := make([]Device, 0, count)
	for i := 0; i < count; i++ {
		info := portmidi.Info(portmidi.DeviceID(i))
		if info == nil {
			continue
		}
		out = append(out, Device{
			ID:        i,
			Name:      info.Name,
			IsInput:   info.IsInputAvailable,
			IsOutput:  info.IsOutputAvailable,
			Interface: info.Interface,
		})
	}
	return out
}

// Ingestor is the subset of midi.Dispatcher the input stream needs.
type Ingestor interface {
	Ingress(port int, raw []byte, ts int64) int
}

// InputStream polls a PortMidi input device on a background goroutine and
// forwards raw bytes to a midi.Dispatcher.
type InputStream struct {
	port   int
	stream *portmidi.Stream
	stop   chan struct{}
}

// OpenInput opens deviceID as a dispatcher-facing input port.
func OpenInput(deviceID, port int, bufferSize int64) (*InputStream, error) {
	stream, err := portmidi.NewInputStream(portmidi.DeviceID(deviceID), bufferSize)
	if err != nil {
		return nil, fmt.Errorf("midibackend: open input: %w", err)
	}
	return &InputStream{port: port, stream: stream, stop: make(chan struct{})}, nil
}

// Run polls the stream until Close is called, converting each PortMidi
// event to raw MIDI 1.0 bytes and handing them to dispatcher. clock
// converts a PortMidi event timestamp to the engine's absolute sample
// count.
func (s *InputStream) Run(dispatcher Ingestor, clock func(eventTimestamp int64) int64) {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			events, err := s.stream.Read(64)
			if err != nil {
				logging.Warnf("midibackend: input read error: %v", err)
				continue
			}
			for _, ev := range events {
				raw := statusBytes(ev)
				dispatcher.Ingress(s.port, raw, clock(int64(ev.Timestamp)))
			}
		}
	}
}

// Close stops polling and closes the underlying stream.
func (s *InputStream) Close() error {
	close(s.stop)
	return s.stream.Close()
}

func statusBytes(ev portmidi.Event) []byte {
	status := byte(ev.Status)
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return []byte{status, byte(ev.Data1)}
	default:
		return []byte{status, byte(ev.Data1), byte(ev.Data2)}
	}
}

// OutputStream wraps a PortMidi output device as a midi.OutputSink.
type OutputStream struct {
	stream *portmidi.Stream
}

// OpenOutput opens deviceID for sending.
func OpenOutput(deviceID int, latency int64) (*OutputStream, error) {
	stream, err := portmidi.NewOutputStream(portmidi.DeviceID(deviceID), latency, 0)
	if err != nil {
		return nil, fmt.Errorf("midibackend: open output: %w", err)
	}
	return &OutputStream{stream: stream}, nil
}

// Send implements midi.OutputSink: port is ignored since an OutputStream is
// already bound to a single PortMidi device.
func (s *OutputStream) Send(_ int, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	status := int64(data[0])
	var d1, d2 int64
	if len(data) > 1 {
		d1 = int64(data[1])
	}
	if len(data) > 2 {
		d2 = int64(data[2])
	}
	return s.stream.WriteShort(status, d1, d2)
}

// Close closes the output stream.
func (s *OutputStream) Close() error {
	return s.stream.Close()
}

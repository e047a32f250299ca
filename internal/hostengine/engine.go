// SPDX-License-Identifier: MIT
// Package hostengine wires the pieces spec.md and its supplements describe
// (AudioGraph, EventPipeline, Transport/Host, MidiDispatcher, the async
// worker pool, the audio/MIDI backends and the notification fan-out) into
// one runnable engine, adapted from rayboyd-audio-engine's
// internal/audio/engine.go: the same NewEngine/StartInputStream/Close
// shape, generalized from a record-only FFT pipeline to the full-duplex
// plugin host.
package hostengine

import (
	"fmt"
	"time"

	"github.com/Mkinney99/sushi/internal/audiobackend"
	"github.com/Mkinney99/sushi/internal/config"
	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/graph"
	"github.com/Mkinney99/sushi/internal/engine/midi"
	"github.com/Mkinney99/sushi/internal/engine/pipeline"
	"github.com/Mkinney99/sushi/internal/engine/telemetry"
	"github.com/Mkinney99/sushi/internal/engine/transport"
	"github.com/Mkinney99/sushi/internal/midibackend"
	"github.com/Mkinney99/sushi/internal/notify"
	"github.com/Mkinney99/sushi/internal/plugins"
)

// Config bundles the engine-wide settings a Document doesn't carry: device
// selection and block size are a deployment concern the host application
// resolves, not something spec.md's configuration schema names.
type Config struct {
	InputDeviceID  int
	OutputDeviceID int
	BlockSize      int
	LowLatency     bool
	MaxMidiPorts   int
	NotifyAddr     string // empty runs the logging sink instead of websocket
}

// Engine owns every long-lived collaborator the running host needs.
type Engine struct {
	Graph     *graph.AudioGraph
	Pipeline  *pipeline.Pipeline
	Transport *transport.Transport
	Host      *transport.Host
	Async     *pipeline.AsyncWorker
	Midi      *midi.Dispatcher
	Counters  *telemetry.Counters

	notifySink notify.Sink
	midiSink   *portSink

	audioStream *audiobackend.Stream
	midiIn      []*midibackend.InputStream
	midiOut     []*midibackend.OutputStream

	stopDispatch chan struct{}
	dispatchDone chan struct{}
}

// New constructs an Engine from a parsed, validated Document and applies it
// (creating tracks, routes, plugins, MIDI mappings, and posting scheduled
// events) before returning.
func New(doc *config.Document, cfg Config) (*Engine, error) {
	counters := &telemetry.Counters{}
	pipe := pipeline.New(1024, 1024, 256, counters)
	tr := transport.New()
	async := pipeline.NewAsyncWorker(pipe, 2, 64)
	host := transport.NewHost(pipe, tr, async)

	inChannels, outChannels := defaultGlobalChannels(doc)
	g := graph.New(pipe, tr, host, plugins.Internal, inChannels, outChannels, cfg.BlockSize, doc.HostConfig.SampleRate, counters)

	sink := &portSink{}
	dispatcher := midi.New(pipe, sink, cfg.MaxMidiPorts, counters)

	if err := config.Apply(doc, g, dispatcher, pipe); err != nil {
		async.Close()
		return nil, err
	}

	var notifySink notify.Sink = notify.NewLoggingSink()
	if cfg.NotifyAddr != "" {
		notifySink = notify.NewWebSocketSink(cfg.NotifyAddr)
	}

	return &Engine{
		Graph:        g,
		Pipeline:     pipe,
		Transport:    tr,
		Host:         host,
		Async:        async,
		Midi:         dispatcher,
		Counters:     counters,
		notifySink:   notifySink,
		midiSink:     sink,
		stopDispatch: make(chan struct{}),
		dispatchDone: make(chan struct{}),
	}, nil
}

// defaultGlobalChannels derives the engine's global channel counts from the
// highest engine_channel any track route names, starting from 2 in / 2 out.
// Routes given as engine_bus are not counted, so they never widen the
// graph beyond what the engine_channel routes require.
func defaultGlobalChannels(doc *config.Document) (in, out int) {
	in, out = 2, 2
	for _, t := range doc.Tracks {
		for _, r := range t.Inputs {
			if r.EngineChannel != nil && *r.EngineChannel+1 > in {
				in = *r.EngineChannel + 1
			}
		}
		for _, r := range t.Outputs {
			if r.EngineChannel != nil && *r.EngineChannel+1 > out {
				out = *r.EngineChannel + 1
			}
		}
	}
	return in, out
}

// Start opens the audio backend stream at the configured devices and
// launches the non-RT dispatcher goroutine that drains RT->non-RT events
// into notifications and MIDI egress. AudioGraph.Process itself is invoked
// directly from the PortAudio callback thread once Start returns.
func (e *Engine) Start(cfg Config) error {
	inputDevice, err := audiobackend.DeviceByID(cfg.InputDeviceID, true)
	if err != nil {
		return fmt.Errorf("hostengine: input device: %w", err)
	}
	outputDevice, err := audiobackend.DeviceByID(cfg.OutputDeviceID, false)
	if err != nil {
		return fmt.Errorf("hostengine: output device: %w", err)
	}

	inChannels := e.Graph.InputChannels()
	outChannels := e.Graph.OutputChannels()

	stream, err := audiobackend.Open(e.Graph, inputDevice, outputDevice, inChannels, outChannels, cfg.BlockSize, e.Graph.SampleRate(), cfg.LowLatency)
	if err != nil {
		return fmt.Errorf("hostengine: open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		return fmt.Errorf("hostengine: start stream: %w", err)
	}
	e.audioStream = stream

	go e.dispatchLoop()
	return nil
}

// AttachMidiInput opens deviceID as ingress for MIDI port and starts
// polling it. MIDI event timestamps are stamped with the engine's current
// block-start sample position rather than the device's own hardware
// timestamp: sub-block MIDI timing precision is out of scope (spec.md §1
// treats audio I/O and MIDI I/O as external collaborators specified only
// at their interfaces).
func (e *Engine) AttachMidiInput(deviceID, port int) error {
	in, err := midibackend.OpenInput(deviceID, port, 1024)
	if err != nil {
		return err
	}
	e.midiIn = append(e.midiIn, in)
	go in.Run(e.Midi, func(int64) int64 { return e.Transport.Snapshot().SamplePosition })
	return nil
}

// AttachMidiOutput opens deviceID as the egress device for MIDI port.
func (e *Engine) AttachMidiOutput(deviceID, port int) error {
	out, err := midibackend.OpenOutput(deviceID, 0)
	if err != nil {
		return err
	}
	e.midiOut = append(e.midiOut, out)
	e.midiSink.attach(port, out)
	return nil
}

// portSink implements midi.OutputSink over however many concrete
// midibackend.OutputStreams have been attached, indexed by MIDI port.
// Ports without an attached device silently drop, matching spec.md §4.5's
// "unmapped destinations are dropped, not errors" treatment of egress.
type portSink struct {
	outs []*midibackend.OutputStream
}

func (s *portSink) Send(port int, data []byte) error {
	if port < 0 || port >= len(s.outs) || s.outs[port] == nil {
		return nil
	}
	return s.outs[port].Send(port, data)
}

func (s *portSink) attach(port int, out *midibackend.OutputStream) {
	for len(s.outs) <= port {
		s.outs = append(s.outs, nil)
	}
	s.outs[port] = out
}

// dispatchLoop drains RT->non-RT events on a ticking poll, forwarding
// keyboard-family events to MIDI egress and every event to the
// notification sink.
func (e *Engine) dispatchLoop() {
	defer close(e.dispatchDone)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		e.Pipeline.DrainFromRT(e.applyRtEvent)
		select {
		case <-e.stopDispatch:
			e.Pipeline.DrainFromRT(e.applyRtEvent) // final drain
			return
		case <-ticker.C:
		}
	}
}

func (e *Engine) applyRtEvent(rt event.RtEvent) {
	if rt.Kind == event.KindKeyboard {
		e.Midi.Egress(rt.Target, rt)
	}
	_ = e.notifySink.Send(notify.Notification{
		Kind:      rt.Kind.String(),
		TargetID:  rt.Target.String(),
		Timestamp: int64(rt.SampleOffset),
		Payload:   rt,
	})
}

// Stop halts audio/MIDI I/O and the dispatcher goroutine, and shuts down
// the async worker pool.
func (e *Engine) Stop() error {
	close(e.stopDispatch)
	<-e.dispatchDone

	var firstErr error
	if e.audioStream != nil {
		if err := e.audioStream.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, in := range e.midiIn {
		if err := in.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, out := range e.midiOut {
		if err := out.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.Async.Close()
	if err := e.notifySink.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

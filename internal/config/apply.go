// SPDX-License-Identifier: MIT
package config

import (
	"fmt"

	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/graph"
	"github.com/Mkinney99/sushi/internal/engine/midi"
	"github.com/Mkinney99/sushi/internal/engine/pipeline"
)

// Apply constructs AudioGraph Tracks/routes/plugins and MidiDispatcher
// routing tables from a validated Document, then posts its scheduled
// events onto pipe for delivery at their absolute timestamps. Validate
// must have already succeeded; Apply still surfaces graph-level errors
// (e.g. a factory rejecting a plugin uid) but never partially applies a
// Document that failed validation, per spec.md §7.
func Apply(d *Document, g *graph.AudioGraph, dispatcher *midi.Dispatcher, pipe *pipeline.Pipeline) error {
	g.SetSampleRate(d.HostConfig.SampleRate)

	for _, t := range d.Tracks {
		channels := channelsFor(t)
		if _, err := g.CreateTrack(t.Name, channels); err != nil {
			return fmt.Errorf("config: track %q: %w", t.Name, err)
		}
		for _, r := range t.Inputs {
			if err := applyRoute(g, t.Name, r, true); err != nil {
				return err
			}
		}
		for _, r := range t.Outputs {
			if err := applyRoute(g, t.Name, r, false); err != nil {
				return err
			}
		}
		for _, p := range t.Plugins {
			if _, err := g.AddPluginToTrack(t.Name, p.UID, p.Name, p.Path, string(p.Type)); err != nil {
				return fmt.Errorf("config: plugin %q: %w", p.Name, err)
			}
		}
	}

	if err := applyMidi(d, g, dispatcher); err != nil {
		return err
	}

	if err := applyEvents(d, g, pipe); err != nil {
		return err
	}

	return nil
}

// applyEvents posts every Scheduled event onto pipe as an event.Event with
// its absolute timestamp, resolving Target by name against the graph.
func applyEvents(d *Document, g *graph.AudioGraph, pipe *pipeline.Pipeline) error {
	for i, s := range d.Events {
		e := event.Event{Timestamp: s.Timestamp}
		switch s.Kind {
		case "parameter_change":
			target, ok := g.FindByName(s.Target)
			if !ok {
				return fmt.Errorf("config: events[%d]: unknown target %q", i, s.Target)
			}
			e.Kind = event.KindParameterChange
			e.Target = target.ID()
			e.ParamIndex = s.ParamIndex
			e.ParamType = event.ParamFloat
			e.FloatValue = float32(s.Value)
		case "program_change":
			target, ok := g.FindByName(s.Target)
			if !ok {
				return fmt.Errorf("config: events[%d]: unknown target %q", i, s.Target)
			}
			e.Kind = event.KindProgramChange
			e.Target = target.ID()
			e.Program = s.Program
		case "set_bypass":
			target, ok := g.FindByName(s.Target)
			if !ok {
				return fmt.Errorf("config: events[%d]: unknown target %q", i, s.Target)
			}
			e.Kind = event.KindSetBypass
			e.Target = target.ID()
			e.Bypassed = s.Bypassed
		case "transport":
			e.Kind = event.KindTransport
			e.NewPlayState = event.PlayState(s.Program)
			e.Tempo = s.Value
		default:
			return fmt.Errorf("config: events[%d]: unrecognized kind %q", i, s.Kind)
		}
		if !pipe.PostToRT(e) {
			return fmt.Errorf("config: events[%d]: non-RT->RT queue full at load time", i)
		}
	}
	return nil
}

func channelsFor(t Track) int {
	switch t.Mode {
	case ModeMono:
		return 1
	case ModeStereo:
		return 2
	default:
		return t.Channels
	}
}

func applyRoute(g *graph.AudioGraph, trackName string, r Route, input bool) error {
	switch {
	case r.EngineBus != nil:
		if input {
			return g.ConnectAudioInputBus(trackName, r.TrackChannel, *r.EngineBus)
		}
		return g.ConnectAudioOutputBus(trackName, r.TrackChannel, *r.EngineBus)
	case r.EngineChannel != nil:
		if input {
			return g.ConnectAudioInputChannel(trackName, r.TrackChannel, *r.EngineChannel)
		}
		return g.ConnectAudioOutputChannel(trackName, r.TrackChannel, *r.EngineChannel)
	default:
		return fmt.Errorf("config: track %q route: exactly one of engine_channel/engine_bus must be set", trackName)
	}
}

func applyMidi(d *Document, g *graph.AudioGraph, dispatcher *midi.Dispatcher) error {
	for _, c := range d.Midi.TrackConnections {
		target, ok := g.FindByName(c.Track)
		if !ok {
			return fmt.Errorf("config: midi track_connection: %w: %q", midi.ErrInvalidTrackName, c.Track)
		}
		if err := dispatcher.ConnectKeyboard(c.Port, c.Channel, target.ID()); err != nil {
			return err
		}
	}
	for _, c := range d.Midi.TrackOutConnections {
		target, ok := g.FindByName(c.Processor)
		if !ok {
			return fmt.Errorf("config: midi track_out_connection: %w: %q", midi.ErrInvalidProcessor, c.Processor)
		}
		if err := dispatcher.ConnectOutput(target.ID(), c.Port, c.Channel); err != nil {
			return err
		}
	}
	for _, c := range d.Midi.CCMappings {
		target, ok := g.FindByName(c.Processor)
		if !ok {
			return fmt.Errorf("config: midi cc_mapping: %w: %q", midi.ErrInvalidProcessor, c.Processor)
		}
		if err := dispatcher.ConnectCC(c.Port, c.Controller, c.Channel, target.ID(), c.ParamIndex, c.Min, c.Max); err != nil {
			return err
		}
	}
	for _, c := range d.Midi.ProgramMappings {
		target, ok := g.FindByName(c.Processor)
		if !ok {
			return fmt.Errorf("config: midi program_change_mapping: %w: %q", midi.ErrInvalidProcessor, c.Processor)
		}
		if err := dispatcher.ConnectProgram(c.Port, c.Channel, target.ID()); err != nil {
			return err
		}
	}
	for _, c := range d.Midi.RawMappings {
		target, ok := g.FindByName(c.Processor)
		if !ok {
			return fmt.Errorf("config: midi raw_mapping: %w: %q", midi.ErrInvalidProcessor, c.Processor)
		}
		if err := dispatcher.ConnectRaw(c.Port, c.Channel, target.ID()); err != nil {
			return err
		}
	}
	return nil
}

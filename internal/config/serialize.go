// SPDX-License-Identifier: MIT
package config

import (
	"fmt"

	"github.com/Mkinney99/sushi/internal/engine/graph"
	"github.com/Mkinney99/sushi/internal/engine/midi"
	"github.com/Mkinney99/sushi/internal/engine/track"
)

// Serialize renders the current AudioGraph and MidiDispatcher state as a
// Document. Combined with Apply, this satisfies spec.md §8's round-trip
// property: a Document that parses and validates produces a graph and
// dispatcher whose Serialize output is semantically equal to the input
// (field order and omitted-default formatting may differ, but every route,
// plugin and MIDI mapping round-trips). Returns an error if a routing
// table entry targets a processor id no longer resident in g, which would
// otherwise silently drop a mapping from the output.
func Serialize(g *graph.AudioGraph, dispatcher *midi.Dispatcher) (*Document, error) {
	doc := &Document{
		HostConfig: HostConfig{SampleRate: g.SampleRate()},
	}

	for _, t := range g.Tracks() {
		doc.Tracks = append(doc.Tracks, serializeTrack(g, t))
	}

	m, err := serializeMidi(g, dispatcher)
	if err != nil {
		return nil, err
	}
	doc.Midi = m

	return doc, nil
}

func serializeTrack(g *graph.AudioGraph, t *track.Track) Track {
	out := Track{
		Name: t.Name(),
		Mode: modeFor(t.BusWidth()),
	}
	if out.Mode == ModeMultichannel {
		out.Channels = t.BusWidth()
	}

	for _, r := range t.InputRoutes() {
		out.Inputs = append(out.Inputs, serializeRoute(r))
	}
	for _, r := range t.OutputRoutes() {
		out.Outputs = append(out.Outputs, serializeRoute(r))
	}

	for _, c := range t.Children() {
		meta, _ := g.PluginMeta(c.ID())
		out.Plugins = append(out.Plugins, Plugin{
			Name: c.Name(),
			Type: PluginType(meta.Kind),
			UID:  meta.UID,
			Path: meta.Path,
		})
	}

	return out
}

func serializeMidi(g *graph.AudioGraph, d *midi.Dispatcher) (Midi, error) {
	var out Midi

	for _, c := range d.KeyboardRoutings() {
		name, ok := g.NameOf(c.Target)
		if !ok {
			return Midi{}, fmt.Errorf("config: serialize: track_connection targets unresident processor %s", c.Target)
		}
		out.TrackConnections = append(out.TrackConnections, TrackConnection{Port: c.Port, Channel: c.Channel, Track: name})
	}

	for _, c := range d.OutputRoutings() {
		name, ok := g.NameOf(c.Processor)
		if !ok {
			return Midi{}, fmt.Errorf("config: serialize: track_out_connection from unresident processor %s", c.Processor)
		}
		out.TrackOutConnections = append(out.TrackOutConnections, TrackOutConnection{Processor: name, Port: c.Port, Channel: c.Channel})
	}

	for _, c := range d.CCRoutings() {
		name, ok := g.NameOf(c.Target)
		if !ok {
			return Midi{}, fmt.Errorf("config: serialize: cc_mapping targets unresident processor %s", c.Target)
		}
		out.CCMappings = append(out.CCMappings, CCMapping{
			Port: c.Port, Controller: c.Controller, Channel: c.Channel,
			Processor: name, ParamIndex: c.ParamIndex, Min: c.Min, Max: c.Max,
		})
	}

	for _, c := range d.ProgramRoutings() {
		name, ok := g.NameOf(c.Target)
		if !ok {
			return Midi{}, fmt.Errorf("config: serialize: program_change_mapping targets unresident processor %s", c.Target)
		}
		out.ProgramMappings = append(out.ProgramMappings, ProgramMapping{Port: c.Port, Channel: c.Channel, Processor: name})
	}

	for _, c := range d.RawRoutings() {
		name, ok := g.NameOf(c.Target)
		if !ok {
			return Midi{}, fmt.Errorf("config: serialize: raw_mapping targets unresident processor %s", c.Target)
		}
		out.RawMappings = append(out.RawMappings, RawMapping{Port: c.Port, Channel: c.Channel, Processor: name})
	}

	return out, nil
}

func serializeRoute(r track.Route) Route {
	engineChannel := r.EngineChannel
	return Route{TrackChannel: r.BusChannel, EngineChannel: &engineChannel}
}

func modeFor(busWidth int) TrackMode {
	switch busWidth {
	case 1:
		return ModeMono
	case 2:
		return ModeStereo
	default:
		return ModeMultichannel
	}
}

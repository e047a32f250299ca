// SPDX-License-Identifier: MIT
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mkinney99/sushi/internal/engine/graph"
	"github.com/Mkinney99/sushi/internal/engine/midi"
	"github.com/Mkinney99/sushi/internal/engine/pipeline"
	"github.com/Mkinney99/sushi/internal/engine/telemetry"
	"github.com/Mkinney99/sushi/internal/engine/transport"
	"github.com/Mkinney99/sushi/internal/plugins"
)

type discardSink struct{}

func (discardSink) Send(port int, data []byte) error { return nil }

func newTestGraph(t *testing.T) (*graph.AudioGraph, *pipeline.Pipeline, *midi.Dispatcher) {
	t.Helper()
	counters := &telemetry.Counters{}
	pipe := pipeline.New(64, 64, 16, counters)
	tr := transport.New()
	async := pipeline.NewAsyncWorker(pipe, 1, 8)
	t.Cleanup(async.Close)
	host := transport.NewHost(pipe, tr, async)
	g := graph.New(pipe, tr, host, plugins.Internal, 2, 2, 64, 48000, counters)
	dispatcher := midi.New(pipe, discardSink{}, 4, counters)
	return g, pipe, dispatcher
}

func TestApply_BuildsTracksRoutesAndPlugins(t *testing.T) {
	g, pipe, dispatcher := newTestGraph(t)
	ch := 0
	d := &Document{
		HostConfig: HostConfig{SampleRate: 44100},
		Tracks: []Track{
			{
				Name: "master",
				Mode: ModeStereo,
				Inputs: []Route{
					{TrackChannel: 0, EngineChannel: &ch},
				},
				Plugins: []Plugin{
					{Name: "gain1", Type: PluginInternal, UID: "gain"},
				},
			},
		},
	}

	require.NoError(t, Apply(d, g, dispatcher, pipe))
	assert.Equal(t, 44100.0, g.SampleRate())

	_, ok := g.FindByName("master")
	assert.True(t, ok)
	_, ok = g.FindByName("gain1")
	assert.True(t, ok)
}

func TestApply_UnknownPluginUIDFails(t *testing.T) {
	g, pipe, dispatcher := newTestGraph(t)
	d := &Document{
		HostConfig: HostConfig{SampleRate: 44100},
		Tracks: []Track{
			{
				Name: "master",
				Mode: ModeStereo,
				Plugins: []Plugin{
					{Name: "bogus", Type: PluginInternal, UID: "does-not-exist"},
				},
			},
		},
	}
	assert.Error(t, Apply(d, g, dispatcher, pipe))
}

func TestApply_ScheduledEventsPostToPipeline(t *testing.T) {
	g, pipe, dispatcher := newTestGraph(t)
	d := &Document{
		HostConfig: HostConfig{SampleRate: 44100},
		Tracks: []Track{
			{Name: "master", Mode: ModeStereo, Plugins: []Plugin{
				{Name: "gain1", Type: PluginInternal, UID: "gain"},
			}},
		},
		Events: []Scheduled{
			{Kind: "parameter_change", Target: "gain1", ParamIndex: 0, Value: 0.5, Timestamp: 10},
			{Kind: "transport", Value: 120, Program: 1, Timestamp: 0},
		},
	}
	require.NoError(t, Apply(d, g, dispatcher, pipe))
}

func TestApply_ScheduledEventUnknownTargetFails(t *testing.T) {
	g, pipe, dispatcher := newTestGraph(t)
	d := &Document{
		HostConfig: HostConfig{SampleRate: 44100},
		Tracks: []Track{
			{Name: "master", Mode: ModeStereo},
		},
		Events: []Scheduled{
			{Kind: "set_bypass", Target: "missing", Bypassed: true},
		},
	}
	assert.Error(t, Apply(d, g, dispatcher, pipe))
}

func TestApply_MidiCCMappingConnects(t *testing.T) {
	g, pipe, dispatcher := newTestGraph(t)
	d := &Document{
		HostConfig: HostConfig{SampleRate: 44100},
		Tracks: []Track{
			{Name: "master", Mode: ModeStereo, Plugins: []Plugin{
				{Name: "gain1", Type: PluginInternal, UID: "gain"},
			}},
		},
		Midi: Midi{
			CCMappings: []CCMapping{
				{Port: 0, Controller: 7, Channel: 16, Processor: "gain1", ParamIndex: 0, Min: 0, Max: 1},
			},
		},
	}
	require.NoError(t, Apply(d, g, dispatcher, pipe))
}

func TestApply_MidiCCMappingUnknownProcessorFails(t *testing.T) {
	g, pipe, dispatcher := newTestGraph(t)
	d := &Document{
		HostConfig: HostConfig{SampleRate: 44100},
		Tracks:     []Track{{Name: "master", Mode: ModeStereo}},
		Midi: Midi{
			CCMappings: []CCMapping{
				{Port: 0, Controller: 7, Channel: 16, Processor: "nope", ParamIndex: 0, Min: 0, Max: 1},
			},
		},
	}
	assert.Error(t, Apply(d, g, dispatcher, pipe))
}

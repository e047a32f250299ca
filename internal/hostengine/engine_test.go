// SPDX-License-Identifier: MIT
package hostengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mkinney99/sushi/internal/config"
	"github.com/Mkinney99/sushi/internal/midibackend"
)

// Start/AttachMidiInput/AttachMidiOutput/Stop open real PortAudio/PortMidi
// devices and are exercised by hand against real hardware rather than in
// unit tests here, matching rayboyd-audio-engine's own device tests. New,
// defaultGlobalChannels, and portSink touch no hardware and get full
// coverage.

func intPtr(v int) *int { return &v }

func TestDefaultGlobalChannels_DefaultsToStereoWithNoRoutes(t *testing.T) {
	doc := &config.Document{}
	in, out := defaultGlobalChannels(doc)
	assert.Equal(t, 2, in)
	assert.Equal(t, 2, out)
}

func TestDefaultGlobalChannels_WidensToHighestRoutedChannel(t *testing.T) {
	doc := &config.Document{
		Tracks: []config.Track{
			{
				Name:    "master",
				Inputs:  []config.Route{{TrackChannel: 0, EngineChannel: intPtr(3)}},
				Outputs: []config.Route{{TrackChannel: 0, EngineChannel: intPtr(5)}},
			},
		},
	}
	in, out := defaultGlobalChannels(doc)
	assert.Equal(t, 4, in)
	assert.Equal(t, 6, out)
}

func TestDefaultGlobalChannels_IgnoresBusOnlyRoutes(t *testing.T) {
	doc := &config.Document{
		Tracks: []config.Track{
			{Name: "master", Inputs: []config.Route{{TrackChannel: 0, EngineBus: intPtr(0)}}},
		},
	}
	in, out := defaultGlobalChannels(doc)
	assert.Equal(t, 2, in)
	assert.Equal(t, 2, out)
}

func TestNew_BuildsEngineFromMinimalDocument(t *testing.T) {
	doc := &config.Document{
		HostConfig: config.HostConfig{SampleRate: 48000},
		Tracks: []config.Track{
			{Name: "master", Mode: config.ModeStereo},
		},
	}
	e, err := New(doc, Config{BlockSize: 64, MaxMidiPorts: 4})
	require.NoError(t, err)
	t.Cleanup(func() { e.Async.Close() })

	_, ok := e.Graph.FindByName("master")
	assert.True(t, ok)
}

func TestNew_UnknownPluginUIDFailsAndClosesAsyncWorker(t *testing.T) {
	doc := &config.Document{
		HostConfig: config.HostConfig{SampleRate: 48000},
		Tracks: []config.Track{
			{
				Name: "master",
				Mode: config.ModeStereo,
				Plugins: []config.Plugin{
					{Name: "p1", Type: config.PluginInternal, UID: "reverb"},
				},
			},
		},
	}
	_, err := New(doc, Config{BlockSize: 64, MaxMidiPorts: 4})
	assert.Error(t, err)
}

func TestPortSink_SendDropsSilentlyForUnattachedPort(t *testing.T) {
	s := &portSink{}
	assert.NoError(t, s.Send(0, []byte{0x90, 60, 100}))
	assert.NoError(t, s.Send(-1, []byte{0x90, 60, 100}))
}

func TestPortSink_AttachGrowsSlotsAndRoutesByPort(t *testing.T) {
	s := &portSink{}
	s.attach(2, (*midibackend.OutputStream)(nil))
	require.Len(t, s.outs, 3)
	assert.Nil(t, s.outs[0])
	assert.Nil(t, s.outs[1])
}

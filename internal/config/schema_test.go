// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() *Document {
	return &Document{
		HostConfig: HostConfig{SampleRate: 48000},
		Tracks: []Track{
			{
				Name: "master",
				Mode: ModeStereo,
				Plugins: []Plugin{
					{Name: "gain1", Type: PluginInternal, UID: "gain"},
				},
			},
		},
	}
}

func TestValidate_AcceptsWellFormedDocument(t *testing.T) {
	assert.NoError(t, Validate(validDocument()))
}

func TestValidate_RejectsNonPositiveSampleRate(t *testing.T) {
	d := validDocument()
	d.HostConfig.SampleRate = 0
	err := Validate(d)
	require.Error(t, err)
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "/host_config/samplerate", cfgErr.Pointer)
}

func TestValidate_RejectsDuplicateTrackNames(t *testing.T) {
	d := validDocument()
	d.Tracks = append(d.Tracks, Track{Name: "master", Mode: ModeStereo})
	err := Validate(d)
	require.Error(t, err)
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Message, "duplicate")
}

func TestValidate_RejectsUnknownTrackMode(t *testing.T) {
	d := validDocument()
	d.Tracks[0].Mode = "quad"
	assert.Error(t, Validate(d))
}

func TestValidate_MultichannelRequiresChannelCount(t *testing.T) {
	d := validDocument()
	d.Tracks[0].Mode = ModeMultichannel
	d.Tracks[0].Channels = 0
	assert.Error(t, Validate(d))

	d.Tracks[0].Channels = 6
	assert.NoError(t, Validate(d))
}

func TestValidate_PluginTypeRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		plugin  Plugin
		wantErr bool
	}{
		{"internal missing uid", Plugin{Name: "p", Type: PluginInternal}, true},
		{"internal ok", Plugin{Name: "p", Type: PluginInternal, UID: "gain"}, false},
		{"vst2x missing path", Plugin{Name: "p", Type: PluginVST2x}, true},
		{"vst2x ok", Plugin{Name: "p", Type: PluginVST2x, Path: "/lib.so"}, false},
		{"vst3x missing both", Plugin{Name: "p", Type: PluginVST3x}, true},
		{"lv2 missing uri", Plugin{Name: "p", Type: PluginLV2}, true},
		{"unknown type", Plugin{Name: "p", Type: "au"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDocument()
			d.Tracks[0].Plugins = []Plugin{tt.plugin}
			err := Validate(d)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_ChannelRangeAllowsOmni(t *testing.T) {
	d := validDocument()
	d.Midi.CCMappings = []CCMapping{{Channel: 16, Processor: "gain1", Controller: 7}}
	assert.NoError(t, Validate(d))

	d.Midi.CCMappings[0].Channel = 17
	assert.Error(t, Validate(d))
}

func TestValidate_RejectsUnrecognizedEventKind(t *testing.T) {
	d := validDocument()
	d.Events = []Scheduled{{Kind: "explode"}}
	assert.Error(t, Validate(d))
}

func TestValidate_RejectsNegativeEventTimestamp(t *testing.T) {
	d := validDocument()
	d.Events = []Scheduled{{Kind: "transport", Timestamp: -1}}
	assert.Error(t, Validate(d))
}

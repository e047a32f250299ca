// SPDX-License-Identifier: MIT
// Package config implements the JSON configuration document of spec.md §6:
// host_config, tracks (with routes and plugins), midi mappings, and
// scheduled events, plus loading, validation, graph construction, and
// round-trip serialization.
package config

// Document is the top-level JSON configuration.
type Document struct {
	HostConfig HostConfig  `json:"host_config"`
	Tracks     []Track     `json:"tracks"`
	Midi       Midi        `json:"midi"`
	Events     []Scheduled `json:"events"`
}

// HostConfig carries engine-wide settings.
type HostConfig struct {
	SampleRate float64 `json:"samplerate"`
}

// TrackMode is a Track's channel-count shorthand.
type TrackMode string

const (
	ModeMono         TrackMode = "mono"
	ModeStereo       TrackMode = "stereo"
	ModeMultichannel TrackMode = "multichannel"
)

// Track configures one AudioGraph track: its bus width, global-channel
// routes, and plugin chain.
type Track struct {
	Name     string    `json:"name"`
	Mode     TrackMode `json:"mode"`
	Channels int       `json:"channels,omitempty"` // required when Mode == multichannel
	Inputs   []Route   `json:"inputs,omitempty"`
	Outputs  []Route   `json:"outputs,omitempty"`
	Plugins  []Plugin  `json:"plugins,omitempty"`
}

// Route is a channel or bus connection between a Track and the engine's
// global input/output channels. Exactly one of EngineChannel/EngineBus
// should be set; EngineBus expands to the pair of channel routes
// track.ExpandBus describes.
type Route struct {
	TrackChannel  int  `json:"track_channel"`
	EngineChannel *int `json:"engine_channel,omitempty"`
	EngineBus     *int `json:"engine_bus,omitempty"`
}

// PluginType is the plugin loader kind (spec.md §6).
type PluginType string

const (
	PluginInternal PluginType = "internal"
	PluginVST2x    PluginType = "vst2x"
	PluginVST3x    PluginType = "vst3x"
	PluginLV2      PluginType = "lv2"
)

// Plugin references a processor to add to a Track's chain. Required
// fields vary by Type: internal -> UID; vst2x -> Path; vst3x -> UID+Path;
// lv2 -> URI (carried in Path, per the single string field this document
// schema uses for any loader-specific locator).
type Plugin struct {
	Name string     `json:"name"`
	Type PluginType `json:"type"`
	UID  string     `json:"uid,omitempty"`
	Path string     `json:"path,omitempty"`
}

// Midi carries the five MidiDispatcher routing tables (spec.md §4.5).
type Midi struct {
	TrackConnections    []TrackConnection    `json:"track_connections,omitempty"`
	TrackOutConnections []TrackOutConnection `json:"track_out_connections,omitempty"`
	CCMappings          []CCMapping          `json:"cc_mappings,omitempty"`
	ProgramMappings     []ProgramMapping     `json:"program_change_mappings,omitempty"`
	RawMappings         []RawMapping         `json:"raw_mappings,omitempty"`
}

// TrackConnection routes keyboard-family messages to a Track.
type TrackConnection struct {
	Port    int    `json:"port"`
	Channel int    `json:"channel"`
	Track   string `json:"track"`
}

// TrackOutConnection routes a processor's emitted keyboard events to a
// MIDI output port/channel.
type TrackOutConnection struct {
	Processor string `json:"processor"`
	Port      int    `json:"port"`
	Channel   int    `json:"channel"`
}

// CCMapping routes a controller number to a processor parameter with a
// linear [0,127] -> [Min,Max] range mapping. Min/Max are normalized [0,1]
// parameter positions, matching param.Descriptor's own domain, not the
// parameter's physical units.
type CCMapping struct {
	Port       int     `json:"port"`
	Controller int     `json:"controller"`
	Channel    int     `json:"channel"`
	Processor  string  `json:"processor"`
	ParamIndex int     `json:"param_index"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// ProgramMapping routes program-change messages to a processor.
type ProgramMapping struct {
	Port      int    `json:"port"`
	Channel   int    `json:"channel"`
	Processor string `json:"processor"`
}

// RawMapping routes every decoded message on a port/channel to a
// processor's raw-MIDI handler, bypassing typed routing.
type RawMapping struct {
	Port      int    `json:"port"`
	Channel   int    `json:"channel"`
	Processor string `json:"processor"`
}

// Scheduled is one absolute-timestamp event to post at load time (spec.md
// §6's events section) — e.g. pre-programmed parameter automation. Field
// use varies by Kind: parameter_change uses Target/ParamIndex/Value, with
// Value a normalized [0,1] parameter position matching param.Descriptor's
// domain (the same convention CCMapping.Min/Max use); program_change uses
// Target/Program; set_bypass uses Target/Bypassed; transport uses Value as
// the new tempo and Program as the new play state (0=stopped, 1=playing,
// 2=recording), reusing these fields rather than adding transport-only
// ones since a Document carries at most a handful of transport events.
type Scheduled struct {
	Timestamp  int64   `json:"timestamp"`
	Kind       string  `json:"kind"` // "parameter_change", "program_change", "set_bypass", "transport"
	Target     string  `json:"target,omitempty"`
	ParamIndex int     `json:"param_index,omitempty"`
	Value      float64 `json:"value,omitempty"`
	Program    int     `json:"program,omitempty"`
	Bypassed   bool    `json:"bypassed,omitempty"`
}

// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is a named, portable set of CC-to-parameter mappings: unlike
// CCMapping, it names a parameter by plugin type and a caller-assigned
// slot rather than by a specific processor instance, so the same preset
// (e.g. "generic synth macro knobs") can be applied to any track carrying
// a matching plugin. This is a supplemented feature beyond the base
// JSON document schema (spec.md §6 only describes the resolved,
// instance-bound CCMapping); presets live in YAML, matching the
// teacher's own configuration format, rather than the JSON the resolved
// document uses.
type Preset struct {
	Name        string          `yaml:"name"`
	PluginType  PluginType      `yaml:"plugin_type"`
	Description string          `yaml:"description,omitempty"`
	Mappings    []PresetMapping `yaml:"mappings"`
}

// PresetMapping is one controller-to-parameter-slot binding within a
// Preset, unbound from any specific port/channel/processor id. Min/Max are
// normalized [0,1] parameter positions, same as CCMapping's.
type PresetMapping struct {
	Controller int     `yaml:"controller"`
	ParamIndex int     `yaml:"param_index"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
}

// LoadPreset reads a single Preset from a YAML file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: preset: %w", err)
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: preset: malformed YAML: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("config: preset: name must not be empty")
	}
	return &p, nil
}

// Resolve expands a Preset into CCMappings bound to a concrete
// port/channel/processor, ready to append to a Document's Midi.CCMappings
// or apply directly via a Dispatcher.
func (p *Preset) Resolve(port, channel int, processor string) []CCMapping {
	out := make([]CCMapping, 0, len(p.Mappings))
	for _, m := range p.Mappings {
		out = append(out, CCMapping{
			Port:       port,
			Controller: m.Controller,
			Channel:    channel,
			Processor:  processor,
			ParamIndex: m.ParamIndex,
			Min:        m.Min,
			Max:        m.Max,
		})
	}
	return out
}

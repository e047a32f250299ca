// SPDX-License-Identifier: MIT
package config

import "fmt"

// Error reports a configuration validation failure with a JSON pointer
// (RFC 6901) to the offending node, per spec.md §6's INVALID_CONFIGURATION
// contract.
type Error struct {
	Pointer string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("INVALID_CONFIGURATION at %s: %s", e.Pointer, e.Message)
}

func newErr(pointer, format string, args ...any) *Error {
	return &Error{Pointer: pointer, Message: fmt.Sprintf(format, args...)}
}

// Validate checks d against spec.md §6's schema, returning the first
// violation found as an *Error. Validation never mutates the graph —
// spec.md §7 requires no partial mutation is visible before a document is
// fully valid.
func Validate(d *Document) error {
	if d.HostConfig.SampleRate <= 0 {
		return newErr("/host_config/samplerate", "must be positive, got %v", d.HostConfig.SampleRate)
	}

	names := make(map[string]bool, len(d.Tracks))
	for i, t := range d.Tracks {
		ptr := fmt.Sprintf("/tracks/%d", i)
		if t.Name == "" {
			return newErr(ptr+"/name", "must not be empty")
		}
		if names[t.Name] {
			return newErr(ptr+"/name", "duplicate track name %q", t.Name)
		}
		names[t.Name] = true

		switch t.Mode {
		case ModeMono, ModeStereo, ModeMultichannel:
		default:
			return newErr(ptr+"/mode", "must be one of mono, stereo, multichannel, got %q", t.Mode)
		}
		if t.Mode == ModeMultichannel && t.Channels <= 0 {
			return newErr(ptr+"/channels", "required and must be positive when mode is multichannel")
		}

		for j, p := range t.Plugins {
			pptr := fmt.Sprintf("%s/plugins/%d", ptr, j)
			if p.Name == "" {
				return newErr(pptr+"/name", "must not be empty")
			}
			switch p.Type {
			case PluginInternal:
				if p.UID == "" {
					return newErr(pptr+"/uid", "required for type internal")
				}
			case PluginVST2x:
				if p.Path == "" {
					return newErr(pptr+"/path", "required for type vst2x")
				}
			case PluginVST3x:
				if p.UID == "" {
					return newErr(pptr+"/uid", "required for type vst3x")
				}
				if p.Path == "" {
					return newErr(pptr+"/path", "required for type vst3x")
				}
			case PluginLV2:
				if p.Path == "" {
					return newErr(pptr+"/path", "uri required for type lv2")
				}
			default:
				return newErr(pptr+"/type", "must be one of internal, vst2x, vst3x, lv2, got %q", p.Type)
			}
		}
	}

	for i, c := range d.Midi.TrackConnections {
		ptr := fmt.Sprintf("/midi/track_connections/%d", i)
		if err := validateChannel(ptr+"/channel", c.Channel); err != nil {
			return err
		}
		if !names[c.Track] {
			return newErr(ptr+"/track", "references unknown track %q", c.Track)
		}
	}
	for i, c := range d.Midi.CCMappings {
		ptr := fmt.Sprintf("/midi/cc_mappings/%d", i)
		if err := validateChannel(ptr+"/channel", c.Channel); err != nil {
			return err
		}
		if c.Controller < 0 || c.Controller > 127 {
			return newErr(ptr+"/controller", "must be in 0..127, got %d", c.Controller)
		}
		if c.Processor == "" {
			return newErr(ptr+"/processor", "must not be empty")
		}
	}
	for i, c := range d.Midi.ProgramMappings {
		ptr := fmt.Sprintf("/midi/program_change_mappings/%d", i)
		if err := validateChannel(ptr+"/channel", c.Channel); err != nil {
			return err
		}
		if c.Processor == "" {
			return newErr(ptr+"/processor", "must not be empty")
		}
	}
	for i, c := range d.Midi.TrackOutConnections {
		ptr := fmt.Sprintf("/midi/track_out_connections/%d", i)
		if err := validateChannel(ptr+"/channel", c.Channel); err != nil {
			return err
		}
		if c.Processor == "" {
			return newErr(ptr+"/processor", "must not be empty")
		}
	}
	for i, c := range d.Midi.RawMappings {
		ptr := fmt.Sprintf("/midi/raw_mappings/%d", i)
		if err := validateChannel(ptr+"/channel", c.Channel); err != nil {
			return err
		}
		if c.Processor == "" {
			return newErr(ptr+"/processor", "must not be empty")
		}
	}

	for i, e := range d.Events {
		ptr := fmt.Sprintf("/events/%d", i)
		if e.Timestamp < 0 {
			return newErr(ptr+"/timestamp", "must be non-negative")
		}
		switch e.Kind {
		case "parameter_change", "program_change", "set_bypass", "transport":
		default:
			return newErr(ptr+"/kind", "unrecognized event kind %q", e.Kind)
		}
	}

	return nil
}

func validateChannel(pointer string, channel int) error {
	if channel < 0 || channel > 16 {
		return newErr(pointer, "must be in 0..16 (16=OMNI), got %d", channel)
	}
	return nil
}

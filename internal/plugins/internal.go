// SPDX-License-Identifier: MIT
// Package plugins supplies the one concrete graph.ProcessorFactory this
// repository ships: construction of the "internal" plugin kind (spec.md
// §6's plugin.type enum) from package processor's trivial DSP leaves.
// VST2x/VST3x/LV2 loading is an explicit Non-goal (spec.md §1) — those
// kinds are rejected here rather than silently accepted.
package plugins

import (
	"fmt"

	"github.com/Mkinney99/sushi/internal/engine/processor"
)

// Internal is a graph.ProcessorFactory constructing built-in leaves for
// plugin.type == "internal". uid selects the concrete leaf: "gain" or
// "passthrough".
func Internal(uid, name, path, kind string) (processor.Processor, error) {
	if kind != "internal" {
		return nil, fmt.Errorf("plugins: loader kind %q not supported (VST/LV2 hosting is out of scope)", kind)
	}
	switch uid {
	case "gain":
		return processor.NewGain(name), nil
	case "passthrough", "":
		return processor.NewPassthrough(name), nil
	default:
		return nil, fmt.Errorf("plugins: unknown internal plugin uid %q", uid)
	}
}

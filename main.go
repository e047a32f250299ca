// SPDX-License-Identifier: MIT
package main

import (
	"log"
	"runtime"

	"github.com/Mkinney99/sushi/cmd"
	"github.com/Mkinney99/sushi/internal/logging"
	"github.com/Mkinney99/sushi/pkg/build"
)

// main is the process entry point. The three-phase split follows the
// teacher's shape even though the hot path itself now lives inside
// hostengine.Engine, driven by cmd's "run" subcommand, rather than here:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and dispatch to a subcommand
//
// 2. Concurrent Phase (Hot Path):
//   - cmd's "run" subcommand builds a hostengine.Engine and starts it,
//     handing the RT thread to PortAudio's callback
//
// 3. Shutdown Phase (Cold Path):
//   - cmd's "run" subcommand blocks on a termination signal, then stops
//     the engine before returning
func main() {
	if err := build.Initialize(); err != nil {
		log.Fatal(err)
	}

	// One OS thread for the PortAudio callback (time-critical), one for
	// everything else: the dispatcher goroutine, MIDI polling, the
	// notification sink, cobra.
	runtime.GOMAXPROCS(2)

	defer logging.Sync()

	if err := cmd.Execute(); err != nil {
		logging.Fatalf("%v", err)
	}
}

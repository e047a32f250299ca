// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mkinney99/sushi/internal/audiobackend"
	"github.com/Mkinney99/sushi/internal/config"
	"github.com/Mkinney99/sushi/internal/hostengine"
	"github.com/Mkinney99/sushi/internal/logging"
	"github.com/Mkinney99/sushi/internal/midibackend"
	"github.com/Mkinney99/sushi/pkg/build"
)

// Options holds every root/persistent flag value, mirroring the teacher's
// config.Config but scoped to what this host's cobra commands need rather
// than a full runtime configuration (that lives in the JSON Document
// package config parses).
type Options struct {
	ConfigPath     string
	InputDeviceID  int
	OutputDeviceID int
	BlockSize      int
	LowLatency     bool
	MidiInputID    int
	MidiOutputID   int
	MidiPort       int
	NotifyAddr     string
	Verbose        bool
}

// Execute builds the cobra command tree and runs it against os.Args.
func Execute() error {
	opts := &Options{
		InputDeviceID:  -1,
		OutputDeviceID: -1,
		BlockSize:      256,
		MidiInputID:    -1,
		MidiOutputID:   -1,
	}
	buildInfo := build.GetBuildFlags()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time audio plugin host",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose {
				logging.SetLevel(logging.LevelDebug)
			}
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "f", "", "Path to the JSON configuration document")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show debug-level log output")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newValidateCmd(opts),
		newListAudioDevicesCmd(),
		newListMidiDevicesCmd(),
	)

	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

func newValidateCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a configuration document without starting the engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ConfigPath == "" {
				return fmt.Errorf("cmd: --config is required")
			}
			doc, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			fmt.Printf("valid: %d track(s), %d scheduled event(s)\n", len(doc.Tracks), len(doc.Events))
			return nil
		},
	}
}

func newListAudioDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-audio-devices",
		Short: "List available PortAudio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audiobackend.Initialize(); err != nil {
				return err
			}
			defer audiobackend.Terminate()

			devices, err := audiobackend.Devices()
			if err != nil {
				return err
			}
			for _, d := range devices {
				fmt.Printf("[%d] %s (in=%d out=%d default_rate=%.0f)\n", d.ID, d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
			}
			return nil
		},
	}
}

func newListMidiDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-midi-devices",
		Short: "List available MIDI ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := midibackend.Initialize(); err != nil {
				return err
			}
			defer midibackend.Terminate()

			for _, d := range midibackend.Devices() {
				fmt.Printf("[%d] %s (in=%v out=%v iface=%s)\n", d.ID, d.Name, d.IsInput, d.IsOutput, d.Interface)
			}
			return nil
		},
	}
}

func newRunCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a configuration document and run the engine until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts)
		},
	}
	cmd.Flags().IntVarP(&opts.InputDeviceID, "input-device", "i", opts.InputDeviceID, "Audio input device ID (-1 for system default)")
	cmd.Flags().IntVarP(&opts.OutputDeviceID, "output-device", "o", opts.OutputDeviceID, "Audio output device ID (-1 for system default)")
	cmd.Flags().IntVarP(&opts.BlockSize, "block-size", "b", opts.BlockSize, "Frames per audio callback")
	cmd.Flags().BoolVarP(&opts.LowLatency, "low-latency", "l", opts.LowLatency, "Use low-latency device latency settings")
	cmd.Flags().IntVar(&opts.MidiInputID, "midi-input", opts.MidiInputID, "MIDI input device ID to attach on --midi-port (-1 to skip)")
	cmd.Flags().IntVar(&opts.MidiOutputID, "midi-output", opts.MidiOutputID, "MIDI output device ID to attach on --midi-port (-1 to skip)")
	cmd.Flags().IntVar(&opts.MidiPort, "midi-port", 0, "Dispatcher port number for --midi-input/--midi-output")
	cmd.Flags().StringVar(&opts.NotifyAddr, "notify-addr", "", "Address to serve the /ws notification stream on (empty logs notifications instead)")
	return cmd
}

func runEngine(opts *Options) error {
	if opts.ConfigPath == "" {
		return fmt.Errorf("cmd: --config is required")
	}

	if err := audiobackend.Initialize(); err != nil {
		return err
	}
	defer audiobackend.Terminate()

	if err := midibackend.Initialize(); err != nil {
		return err
	}
	defer midibackend.Terminate()

	doc, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	engine, err := hostengine.New(doc, hostengine.Config{
		InputDeviceID:  opts.InputDeviceID,
		OutputDeviceID: opts.OutputDeviceID,
		BlockSize:      opts.BlockSize,
		LowLatency:     opts.LowLatency,
		MaxMidiPorts:   opts.MidiPort + 1,
		NotifyAddr:     opts.NotifyAddr,
	})
	if err != nil {
		return fmt.Errorf("cmd: build engine: %w", err)
	}

	if opts.MidiInputID >= 0 {
		if err := engine.AttachMidiInput(opts.MidiInputID, opts.MidiPort); err != nil {
			return fmt.Errorf("cmd: attach midi input: %w", err)
		}
	}
	if opts.MidiOutputID >= 0 {
		if err := engine.AttachMidiOutput(opts.MidiOutputID, opts.MidiPort); err != nil {
			return fmt.Errorf("cmd: attach midi output: %w", err)
		}
	}

	if err := engine.Start(hostengine.Config{
		InputDeviceID:  opts.InputDeviceID,
		OutputDeviceID: opts.OutputDeviceID,
		BlockSize:      opts.BlockSize,
		LowLatency:     opts.LowLatency,
	}); err != nil {
		return fmt.Errorf("cmd: start engine: %w", err)
	}

	logging.Infof("cmd: engine running (sample_rate=%.0f block_size=%d)", doc.HostConfig.SampleRate, opts.BlockSize)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	logging.Infof("cmd: shutting down")
	return engine.Stop()
}

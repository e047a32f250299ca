// SPDX-License-Identifier: MIT
// Package audiobackend adapts PortAudio to AudioGraph.Process. Directly
// grounded on rayboyd-audio-engine/internal/audio/{device,devices,engine}.go:
// the same Initialize/Terminate/Device-listing shape, generalized from a
// record-only int32 mono input stream to a full-duplex float32 stream
// driving AudioGraph's channel-major Process call.
package audiobackend

import (
	"fmt"
	"runtime"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/Mkinney99/sushi/internal/logging"
)

// Processor is the subset of graph.AudioGraph the backend drives.
type Processor interface {
	Process(in, out []float32, n int)
}

// Device mirrors a PortAudio device's relevant fields.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

// Initialize sets up the PortAudio subsystem. Must be called before any
// other function here and paired with a deferred Terminate.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audiobackend: initialize: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("audiobackend: terminate: %w", err)
	}
	return nil
}

// Devices lists every PortAudio device visible to the host.
func Devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audiobackend: devices: %w", err)
	}
	out := make([]Device, len(infos))
	for i, info := range infos {
		out[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		}
	}
	return out, nil
}

// DeviceByID resolves deviceID to a *portaudio.DeviceInfo, or the system
// default input/output device when deviceID is -1, mirroring
// rayboyd-audio-engine's InputDevice.
func DeviceByID(deviceID int, input bool) (*portaudio.DeviceInfo, error) {
	if deviceID == -1 {
		if input {
			return portaudio.DefaultInputDevice()
		}
		return portaudio.DefaultOutputDevice()
	}
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audiobackend: devices: %w", err)
	}
	if deviceID < 0 || deviceID >= len(infos) {
		return nil, fmt.Errorf("audiobackend: invalid device id %d", deviceID)
	}
	return infos[deviceID], nil
}

// Stream wraps a full-duplex PortAudio stream feeding AudioGraph.Process.
// Buffers are de-interleaved into the channel-major layout AudioGraph
// expects before each call and re-interleaved on the way out, since
// PortAudio's Go binding hands the callback interleaved frames.
type Stream struct {
	engine Processor

	inChannels  int
	outChannels int
	blockSize   int

	interleavedIn  []float32
	interleavedOut []float32
	planarIn       []float32
	planarOut      []float32

	stream *portaudio.Stream
}

// Open opens a full-duplex stream on the given input/output devices (as
// resolved by DeviceByID, which maps -1 to the system default), driving
// engine once per block.
func Open(engine Processor, inputDevice, outputDevice *portaudio.DeviceInfo, inChannels, outChannels, blockSize int, sampleRate float64, lowLatency bool) (*Stream, error) {
	s := &Stream{
		engine:         engine,
		inChannels:     inChannels,
		outChannels:    outChannels,
		blockSize:      blockSize,
		interleavedIn:  make([]float32, inChannels*blockSize),
		interleavedOut: make([]float32, outChannels*blockSize),
		planarIn:       make([]float32, inChannels*blockSize),
		planarOut:      make([]float32, outChannels*blockSize),
	}

	inLatency := inputDevice.DefaultHighInputLatency
	outLatency := outputDevice.DefaultHighOutputLatency
	if lowLatency {
		inLatency = inputDevice.DefaultLowInputLatency
		outLatency = outputDevice.DefaultLowOutputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: inChannels,
			Device:   inputDevice,
			Latency:  inLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: outChannels,
			Device:   outputDevice,
			Latency:  outLatency,
		},
		FramesPerBuffer: blockSize,
		SampleRate:      sampleRate,
	}

	stream, err := portaudio.OpenStream(params, s.callback)
	if err != nil {
		return nil, fmt.Errorf("audiobackend: open stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

// Start begins audio I/O. The callback runs on PortAudio's dedicated
// thread; Go's scheduler is told to pin it via LockOSThread inside the
// callback itself, matching the teacher's real-time thread discipline.
func (s *Stream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("audiobackend: start: %w", err)
	}
	return nil
}

// Stop halts and closes the stream.
func (s *Stream) Stop() error {
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("audiobackend: stop: %w", err)
	}
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("audiobackend: close: %w", err)
	}
	s.stream = nil
	return nil
}

func (s *Stream) callback(in, out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := s.blockSize
	deinterleave(in, s.planarIn, s.inChannels, n)
	s.engine.Process(s.planarIn, s.planarOut, n)
	interleave(s.planarOut, out, s.outChannels, n)
}

func deinterleave(interleaved, planar []float32, channels, n int) {
	for i := 0; i < n; i++ {
		for ch := 0; ch < channels; ch++ {
			planar[ch*n+i] = interleaved[i*channels+ch]
		}
	}
}

func interleave(planar, interleaved []float32, channels, n int) {
	for i := 0; i < n; i++ {
		for ch := 0; ch < channels; ch++ {
			interleaved[i*channels+ch] = planar[ch*n+i]
		}
	}
}

// WaitForever logs d and blocks until it elapses, keeping the calling
// goroutine alive while the PortAudio callback drives the engine on its
// own thread.
func WaitForever(d time.Duration) {
	logging.Infof("audiobackend: running for %s", d)
	time.Sleep(d)
}

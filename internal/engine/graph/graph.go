// SPDX-License-Identifier: MIT
// Package graph implements AudioGraph (spec.md §4.3): the ordered sequence
// of Tracks, global channel configuration, and the RT process() entry
// point the audio backend calls once per block.
package graph

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/ids"
	"github.com/Mkinney99/sushi/internal/engine/pipeline"
	"github.com/Mkinney99/sushi/internal/engine/processor"
	"github.com/Mkinney99/sushi/internal/engine/telemetry"
	"github.com/Mkinney99/sushi/internal/engine/track"
	"github.com/Mkinney99/sushi/internal/engine/transport"
	"github.com/Mkinney99/sushi/internal/logging"
)

var (
	ErrInvalidTrackName  = errors.New("graph: INVALID_TRACK_NAME")
	ErrInvalidPluginName = errors.New("graph: INVALID_PLUGIN_NAME")
	ErrInvalidPluginUID  = errors.New("graph: INVALID_PLUGIN_UID")
	ErrInvalidPluginPath = errors.New("graph: INVALID_PLUGIN_PATH")
	ErrNotFound          = errors.New("graph: not found")
)

// ProcessorFactory constructs a Processor for a plugin reference
// (uid/name/path/kind); the concrete loader (VST/LV2/internal) is a
// black-box collaborator outside this package's scope (spec.md §1).
type ProcessorFactory func(uid, name, path, kind string) (processor.Processor, error)

// PluginMeta is the configuration-time identity of a plugin instance,
// retained alongside its Processor so package config can serialize the
// graph back to an equivalent document (spec.md §8's round-trip property).
type PluginMeta struct {
	UID  string
	Path string
	Kind string
}

// state is the graph's membership: the ordered Track list plus the lookup
// tables derived from it. It is immutable once published — every mutator
// builds a new *state (copying the maps it changes) and atomically swaps
// it in, so Process reads a torn-free snapshot with a single atomic load
// and never waits on a lock a non-RT mutator might be holding.
type state struct {
	tracks     []*track.Track
	byName     map[string]*track.Track
	byID       map[ids.ObjectId]processor.Processor
	trackOf    map[ids.ObjectId]*track.Track // child processor -> owning track
	pluginMeta map[ids.ObjectId]PluginMeta   // uid/path/kind, for config round-trip serialization
}

func newState() *state {
	return &state{
		byName:     make(map[string]*track.Track),
		byID:       make(map[ids.ObjectId]processor.Processor),
		trackOf:    make(map[ids.ObjectId]*track.Track),
		pluginMeta: make(map[ids.ObjectId]PluginMeta),
	}
}

// clone shallow-copies s's tracks slice and lookup maps so the caller can
// mutate the copy without disturbing whatever snapshot Process currently
// holds.
func (s *state) clone() *state {
	next := &state{
		tracks:     append([]*track.Track(nil), s.tracks...),
		byName:     make(map[string]*track.Track, len(s.byName)),
		byID:       make(map[ids.ObjectId]processor.Processor, len(s.byID)),
		trackOf:    make(map[ids.ObjectId]*track.Track, len(s.trackOf)),
		pluginMeta: make(map[ids.ObjectId]PluginMeta, len(s.pluginMeta)),
	}
	for k, v := range s.byName {
		next.byName[k] = v
	}
	for k, v := range s.byID {
		next.byID[k] = v
	}
	for k, v := range s.trackOf {
		next.trackOf[k] = v
	}
	for k, v := range s.pluginMeta {
		next.pluginMeta[k] = v
	}
	return next
}

// AudioGraph owns the ordered Track sequence and the engine's global
// channel configuration. Track membership and order are frozen for the
// duration of a Process call (spec.md §4.3's invariant). CreateTrack,
// AddPluginToTrack and friends are the synchronous, non-RT construction
// API (used by package config to build the graph before the engine starts
// processing); PostToRT lets a live caller instead queue the same
// mutation as an ADD_PROCESSOR/REMOVE_PROCESSOR event, applied by Process
// at the top of its next block exactly like KindSetBypass/KindTransport
// already are, per spec.md §4.3. Either path serializes through mu and
// swaps in a new, fully-built state; Process itself never takes mu except
// for that same rare structural-apply moment, so the steady-state block
// (no pending structural event) never blocks on anything the non-RT
// mutators hold.
type AudioGraph struct {
	mu sync.Mutex // serializes structural mutators (direct API and applyGraphEvent) against each other

	sampleRate  float64 // non-RT only: Process never reads it directly
	blockSize   int
	inChannels  atomic.Int64
	outChannels atomic.Int64

	current atomic.Pointer[state]

	transport *transport.Transport
	host      *transport.Host
	pipeline  *pipeline.Pipeline
	factory   ProcessorFactory
	counters  *telemetry.Counters

	dropped atomic.Uint64 // blocks/outbox pushes dropped after a panic or a full RT->non-RT queue
}

// New creates an AudioGraph with no tracks, the given global channel
// counts, sample rate and fixed block size. factory may be nil until a
// loader is wired; AddPluginToTrack then returns ErrInvalidPluginUID for
// every plugin.
func New(p *pipeline.Pipeline, tr *transport.Transport, host *transport.Host, factory ProcessorFactory, inChannels, outChannels, blockSize int, sampleRate float64, counters *telemetry.Counters) *AudioGraph {
	g := &AudioGraph{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		transport:  tr,
		host:       host,
		pipeline:   p,
		factory:    factory,
		counters:   counters,
	}
	g.current.Store(newState())
	g.inChannels.Store(int64(inChannels))
	g.outChannels.Store(int64(outChannels))
	host.SetSampleRate(sampleRate)
	return g
}

// SampleRate returns the engine's configured sample rate.
func (g *AudioGraph) SampleRate() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sampleRate
}

// SetSampleRate reconfigures the sample rate and reconfigures every
// existing Processor. Must be called from the non-RT thread while the
// engine is not inside Process.
func (g *AudioGraph) SetSampleRate(sr float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sampleRate = sr
	g.host.SetSampleRate(sr)
	for _, t := range g.current.Load().tracks {
		t.Configure(sr)
		for _, c := range t.Children() {
			c.Configure(sr)
		}
	}
}

// InputChannels returns the engine's configured global input channel count.
func (g *AudioGraph) InputChannels() int { return int(g.inChannels.Load()) }

// OutputChannels returns the engine's configured global output channel
// count.
func (g *AudioGraph) OutputChannels() int { return int(g.outChannels.Load()) }

// SetAudioInputChannels reconfigures the engine's global input channel
// count that Process reads at the start of each block.
func (g *AudioGraph) SetAudioInputChannels(n int) { g.inChannels.Store(int64(n)) }

// SetAudioOutputChannels reconfigures the engine's global output channel
// count that Process reads at the start of each block.
func (g *AudioGraph) SetAudioOutputChannels(n int) { g.outChannels.Store(int64(n)) }

// CreateTrack appends a new Track with the given name and internal bus
// width (channels). Returns ErrInvalidTrackName on a name collision. Safe
// to call while Process is running concurrently: the actual swap into the
// live state is a single atomic store, never observed half-built.
func (g *AudioGraph) CreateTrack(name string, channels int) (*track.Track, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur := g.current.Load()
	if _, exists := cur.byName[name]; exists {
		return nil, ErrInvalidTrackName
	}
	t := track.New(name, channels, g.blockSize)
	t.Configure(g.sampleRate)

	next := cur.clone()
	next.tracks = append(next.tracks, t)
	next.byName[name] = t
	next.byID[t.ID()] = t
	g.current.Store(next)
	return t, nil
}

// DeleteTrack removes the named Track and every child Processor it owns.
func (g *AudioGraph) DeleteTrack(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur := g.current.Load()
	t, ok := cur.byName[name]
	if !ok {
		return ErrInvalidTrackName
	}

	next := cur.clone()
	for _, c := range t.Children() {
		delete(next.byID, c.ID())
		delete(next.trackOf, c.ID())
		delete(next.pluginMeta, c.ID())
	}
	delete(next.byName, name)
	delete(next.byID, t.ID())
	for i, existing := range next.tracks {
		if existing == t {
			next.tracks = append(next.tracks[:i:i], next.tracks[i+1:]...)
			break
		}
	}
	g.current.Store(next)
	return nil
}

// AddPluginToTrack constructs a Processor via the graph's factory and
// appends it to trackName's chain.
func (g *AudioGraph) AddPluginToTrack(trackName, uid, name, path, kind string) (processor.Processor, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur := g.current.Load()
	t, ok := cur.byName[trackName]
	if !ok {
		return nil, ErrInvalidTrackName
	}
	for _, p := range cur.byID {
		if p.Name() == name {
			return nil, ErrInvalidPluginName
		}
	}
	if g.factory == nil {
		return nil, ErrInvalidPluginUID
	}
	p, err := g.factory(uid, name, path, kind)
	if err != nil {
		return nil, err
	}
	p.Configure(g.sampleRate)
	t.AddPlugin(p)

	next := cur.clone()
	next.byID[p.ID()] = p
	next.trackOf[p.ID()] = t
	next.pluginMeta[p.ID()] = PluginMeta{UID: uid, Path: path, Kind: kind}
	g.current.Store(next)
	return p, nil
}

// PluginMeta returns the uid/path/kind a plugin was created with, for
// config serialization.
func (g *AudioGraph) PluginMeta(id ids.ObjectId) (PluginMeta, bool) {
	m, ok := g.current.Load().pluginMeta[id]
	return m, ok
}

// TrackOf returns the name of the Track owning the given Processor id, if
// any.
func (g *AudioGraph) TrackOf(id ids.ObjectId) (string, bool) {
	t, ok := g.current.Load().trackOf[id]
	if !ok {
		return "", false
	}
	return t.Name(), true
}

// FindByName returns the resident Processor (Track or plugin) with the
// given name, if any.
func (g *AudioGraph) FindByName(name string) (processor.Processor, bool) {
	cur := g.current.Load()
	if t, ok := cur.byName[name]; ok {
		return t, true
	}
	for _, p := range cur.byID {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// NameOf returns the name of the resident Processor (Track or plugin) with
// the given id, the inverse of FindByName — used by config serialization to
// turn a MidiDispatcher routing table's ids.ObjectId targets back into
// names.
func (g *AudioGraph) NameOf(id ids.ObjectId) (string, bool) {
	p, ok := g.current.Load().byID[id]
	if !ok {
		return "", false
	}
	return p.Name(), true
}

// RemovePluginFromTrack removes the named Processor from whichever track
// currently owns it.
func (g *AudioGraph) RemovePluginFromTrack(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur := g.current.Load()
	var found processor.Processor
	for _, p := range cur.byID {
		if p.Name() == name {
			found = p
			break
		}
	}
	if found == nil {
		return ErrNotFound
	}
	t, ok := cur.trackOf[found.ID()]
	if !ok {
		return ErrNotFound
	}
	if err := t.RemovePlugin(found); err != nil {
		return err
	}

	next := cur.clone()
	delete(next.byID, found.ID())
	delete(next.trackOf, found.ID())
	delete(next.pluginMeta, found.ID())
	g.current.Store(next)
	return nil
}

// ConnectAudioInputChannel adds a single-channel input route to trackName.
// The route lives on the Track itself (copy-on-write, see track.go), so no
// graph-level state swap is needed here.
func (g *AudioGraph) ConnectAudioInputChannel(trackName string, trackChannel, engineChannel int) error {
	t, ok := g.current.Load().byName[trackName]
	if !ok {
		return ErrInvalidTrackName
	}
	t.AddInputRoute(track.Route{BusChannel: trackChannel, EngineChannel: engineChannel})
	return nil
}

// ConnectAudioInputBus adds the pair of input routes a stereo-bus shorthand
// expands to.
func (g *AudioGraph) ConnectAudioInputBus(trackName string, trackBusChannelBase, engineBusIndex int) error {
	t, ok := g.current.Load().byName[trackName]
	if !ok {
		return ErrInvalidTrackName
	}
	for _, r := range track.ExpandBus(trackBusChannelBase, engineBusIndex) {
		t.AddInputRoute(r)
	}
	return nil
}

// ConnectAudioOutputChannel adds a single-channel output route from
// trackName.
func (g *AudioGraph) ConnectAudioOutputChannel(trackName string, trackChannel, engineChannel int) error {
	t, ok := g.current.Load().byName[trackName]
	if !ok {
		return ErrInvalidTrackName
	}
	t.AddOutputRoute(track.Route{BusChannel: trackChannel, EngineChannel: engineChannel})
	return nil
}

// ConnectAudioOutputBus adds the pair of output routes a stereo-bus
// shorthand expands to.
func (g *AudioGraph) ConnectAudioOutputBus(trackName string, trackBusChannelBase, engineBusIndex int) error {
	t, ok := g.current.Load().byName[trackName]
	if !ok {
		return ErrInvalidTrackName
	}
	for _, r := range track.ExpandBus(trackBusChannelBase, engineBusIndex) {
		t.AddOutputRoute(r)
	}
	return nil
}

// Tracks returns the current Track sequence in declaration order.
func (g *AudioGraph) Tracks() []*track.Track {
	return append([]*track.Track(nil), g.current.Load().tracks...)
}

// resident reports whether id currently belongs to a live Track or child
// Processor — used by Pipeline.DrainToRT to silently drop events whose
// target has been removed (spec.md §4.4).
func (g *AudioGraph) resident(id ids.ObjectId) bool {
	_, ok := g.current.Load().byID[id]
	return ok
}

// PostToRT queues e for AudioGraph.Process to apply at the top of its next
// block, exactly like KindSetBypass/KindTransport (see event.go's
// NewAddTrackEvent/NewAddPluginEvent/etc. for the structural event
// constructors). Use this instead of the direct CreateTrack/
// AddPluginToTrack/etc. API when the caller wants the mutation to land at a
// deterministic block boundary rather than immediately.
func (g *AudioGraph) PostToRT(e event.Event) bool { return g.pipeline.PostToRT(e) }

// Process runs one block: spec.md §4.3's exact four steps. in and out are
// channel-major, non-aliasing, sized inChannels*n / outChannels*n. Must be
// called only from the RT audio thread. A panic anywhere inside a step is
// recovered, out is zeroed, and the drop counter is incremented instead of
// taking the audio backend down — spec.md §4.3's "errors surface as zeroed
// outputs and an incremented drop counter".
//
// Process itself never takes mu on the common path: it loads the current
// state with a single atomic read and, when the drained queue carries no
// structural event, never touches mu at all. The only time it does is
// applyGraphEvent handling an actual ADD_PROCESSOR/REMOVE_PROCESSOR event
// — the rare, control-plane moment spec.md §4.3 already singles out as
// "reconfiguration applies at step 1", where a short, bounded wait for
// whatever non-RT structural call might be mid-flight is the accepted
// cost of the alternative (an unbounded lock held across the DSP path).
func (g *AudioGraph) Process(in, out []float32, n int) {
	defer func() {
		if r := recover(); r != nil {
			clear(out[:int(g.outChannels.Load())*n])
			g.dropped.Add(1)
			if g.counters != nil {
				g.counters.IncProcessBlocks()
			}
			logging.Errorf("graph: process panic recovered: %v", r)
		}
	}()

	g.host.SetOnRT(true)
	defer g.host.SetOnRT(false)

	blockStart := g.transport.Snapshot().SamplePosition
	blockEnd := blockStart + int64(n)

	// Step 1: drain the RT inbound queue up to this block's horizon.
	g.pipeline.DrainToRT(blockStart, blockEnd, g.resident, g.applyGraphEvent, g.applyProcessorEvent)
	cur := g.current.Load()

	// Step 2: advance Transport by the block size.
	g.transport.Advance(n)

	inChannels := int(g.inChannels.Load())
	outChannels := int(g.outChannels.Load())

	// Step 3: run Tracks in declaration order, gathering/scattering via
	// routes, and drain their outboxes for step 4.
	clear(out[:outChannels*n])
	for _, t := range cur.tracks {
		t.GatherGlobalInputs(in, inChannels, n)
		t.ProcessAudio(nil, nil, n)
		t.ScatterGlobalOutputs(out, outChannels, n)

		for _, c := range t.Children() {
			g.publishOutbox(c)
		}
		g.publishOutbox(t)
	}

	// Step 4 (continued): events queued directly during step 3's processing
	// (e.g. a parameter-change notification pushed from ProcessEvent) were
	// already published above as each Processor's outbox was drained.
}

// DroppedBlocks returns the number of blocks Process had to zero after
// recovering a panic, plus RT->non-RT outbox pushes dropped for a full
// queue.
func (g *AudioGraph) DroppedBlocks() uint64 { return g.dropped.Load() }

func (g *AudioGraph) publishOutbox(p processor.Processor) {
	for _, rt := range p.DrainOutbox() {
		if !g.pipeline.PostRtEventFromRT(rt) {
			g.dropped.Add(1)
			if g.counters != nil {
				g.counters.IncOutboxDrop()
			}
			logging.Warnf("graph: dropped RT->non-RT event from %s: outbound queue full", p.Name())
		}
	}
}

// applyGraphEvent mutates graph state for events addressed to the graph
// itself: transport updates apply directly; ADD/REMOVE processor events
// route through the same CreateTrack/DeleteTrack/AddPluginToTrack/
// RemovePluginFromTrack the direct API uses, so a queued structural
// request and a synchronous call produce identical graph state. Errors
// have no synchronous caller to return to and are logged instead. Called
// from within Process's step 1, on the RT thread.
func (g *AudioGraph) applyGraphEvent(e event.Event) {
	switch e.Kind {
	case event.KindTransport:
		g.transport.ApplyEvent(e)
	case event.KindAddProcessor:
		if e.IsTrack {
			if _, err := g.CreateTrack(e.ProcessorName, e.Channels); err != nil {
				logging.Warnf("graph: queued ADD_PROCESSOR track %q failed: %v", e.ProcessorName, err)
			}
			return
		}
		if _, err := g.AddPluginToTrack(e.TrackName, e.PluginUID, e.ProcessorName, e.PluginPath, e.PluginKind); err != nil {
			logging.Warnf("graph: queued ADD_PROCESSOR plugin %q on track %q failed: %v", e.ProcessorName, e.TrackName, err)
		}
	case event.KindRemoveProcessor:
		if e.IsTrack {
			if err := g.DeleteTrack(e.ProcessorName); err != nil {
				logging.Warnf("graph: queued REMOVE_PROCESSOR track %q failed: %v", e.ProcessorName, err)
			}
			return
		}
		if err := g.RemovePluginFromTrack(e.ProcessorName); err != nil {
			logging.Warnf("graph: queued REMOVE_PROCESSOR plugin %q failed: %v", e.ProcessorName, err)
		}
	}
}

// applyProcessorEvent dispatches rt to whichever Track or child Processor
// it targets.
func (g *AudioGraph) applyProcessorEvent(rt event.RtEvent) {
	p, ok := g.current.Load().byID[rt.Target]
	if !ok {
		return
	}
	if rt.Kind == event.KindSetBypass {
		p.SetBypassed(rt.Bypassed)
		return
	}
	p.ProcessEvent(rt)
}

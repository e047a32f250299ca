// SPDX-License-Identifier: MIT
// Package processor defines the Processor contract of spec.md §4.1: the
// uniform interface anything that processes audio and events must satisfy,
// whether it's an internal DSP kind, a Track (package track embeds this
// contract), or a black-box wrapper around a third-party plugin format.
//
// Concrete DSP is out of scope (spec.md §1) — this package supplies the
// contract, a small tagged-variant set of trivial internal leaves used in
// tests and as building blocks (Gain, Passthrough), and the
// bypass crossfade machinery, but never a real synthesizer/sampler/EQ.
package processor

import (
	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/ids"
	"github.com/Mkinney99/sushi/internal/engine/param"
)

// Processor is the contract every audio+event node in the graph satisfies.
// Implementations must honour spec.md §4.1's RT-safety guarantees: no heap
// allocation, no blocking, no non-RT syscalls inside ProcessEvent or
// ProcessAudio.
type Processor interface {
	ID() ids.ObjectId
	Name() string
	Label() string

	Configure(sampleRate float64)

	InputChannels() int
	OutputChannels() int
	SetInputChannels(n int)
	SetOutputChannels(n int)

	Enabled() bool
	SetEnabled(bool)
	Bypassed() bool
	SetBypassed(bool)

	// SoftBypass reports whether the processor implements its own
	// pass-through behaviour while bypassed (still wants ProcessAudio
	// called) as opposed to the engine substituting a hard pass-through.
	SoftBypass() bool

	Parameters() []param.Descriptor
	ParamStore() *param.Store

	// ProcessEvent is called on the RT thread at most once per event,
	// strictly before ProcessAudio for the same block.
	ProcessEvent(e event.RtEvent)

	// ProcessAudio runs one block. in and out are non-aliasing and sized
	// exactly InputChannels()*N / OutputChannels()*N floats, channel-major
	// (all of channel 0's N samples, then channel 1's, ...).
	ProcessAudio(in, out []float32, n int)

	// OutputEvent attempts a single-producer lock-free push into the
	// processor's RT-side outbox. Returns false if the outbox is full;
	// Base's implementation counts the drop itself (see Base.OutboxDrops).
	OutputEvent(e event.RtEvent) bool

	// DrainOutbox is called by AudioGraph after ProcessAudio to collect any
	// events the processor queued this block.
	DrainOutbox() []event.RtEvent
}

// Base provides the bookkeeping every internal Processor needs (identity,
// channel counts, enabled/bypass flags, an outbox, a parameter store) so
// concrete leaves only implement ProcessAudio/ProcessEvent. Track (package
// track) also embeds Base to satisfy the same contract.
type Base struct {
	id    ids.ObjectId
	name  string
	label string

	sampleRate float64

	inChannels  int
	outChannels int

	enabled  bool
	bypassed bool

	params *param.Store
	descrs []param.Descriptor

	outbox     []event.RtEvent
	outboxHead int
	outboxDrop uint64
}

// NewBase constructs the shared Processor bookkeeping. outboxCap bounds the
// per-block outbox; a typical leaf needs only a handful of slots.
func NewBase(name, label string, descrs []param.Descriptor, outboxCap int) Base {
	return Base{
		id:      ids.New(),
		name:    name,
		label:   label,
		enabled: true,
		params:  param.NewStore(len(descrs)),
		descrs:  descrs,
		outbox:  make([]event.RtEvent, outboxCap),
	}
}

func (b *Base) ID() ids.ObjectId    { return b.id }
func (b *Base) Name() string        { return b.name }
func (b *Base) Label() string       { return b.label }

func (b *Base) Configure(sampleRate float64) { b.sampleRate = sampleRate }
func (b *Base) SampleRate() float64          { return b.sampleRate }

func (b *Base) InputChannels() int  { return b.inChannels }
func (b *Base) OutputChannels() int { return b.outChannels }
func (b *Base) SetInputChannels(n int)  { b.inChannels = n }
func (b *Base) SetOutputChannels(n int) { b.outChannels = n }

func (b *Base) Enabled() bool      { return b.enabled }
func (b *Base) SetEnabled(v bool)  { b.enabled = v }
func (b *Base) Bypassed() bool     { return b.bypassed }
func (b *Base) SetBypassed(v bool) { b.bypassed = v }
func (b *Base) SoftBypass() bool   { return false }

func (b *Base) Parameters() []param.Descriptor { return b.descrs }
func (b *Base) ParamStore() *param.Store       { return b.params }

// OutputEvent pushes onto the fixed-capacity outbox. Drops (and counts)
// when full, matching spec.md §4.1's single-producer lock-free contract —
// the "lock-free" property here is trivial single-writer/single-reader
// with no CAS needed since only the owning processor's RT call writes and
// only AudioGraph's same-thread drain reads, strictly after ProcessAudio
// returns for the block.
func (b *Base) OutputEvent(e event.RtEvent) bool {
	if len(b.outbox) == 0 || b.outboxHead >= len(b.outbox) {
		b.outboxDrop++
		return false
	}
	b.outbox[b.outboxHead] = e
	b.outboxHead++
	return true
}

// DrainOutbox returns the events queued this block and resets the outbox
// for the next one.
func (b *Base) DrainOutbox() []event.RtEvent {
	out := b.outbox[:b.outboxHead]
	b.outboxHead = 0
	return out
}

// OutboxDrops returns the number of OutputEvent calls dropped because the
// outbox was full.
func (b *Base) OutboxDrops() uint64 { return b.outboxDrop }

// SPDX-License-Identifier: MIT
package processor

import (
	"math"

	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/param"
)

// Passthrough is the trivial internal processor kind: it copies
// min(in,out) channels and zeroes the remainder. It is also what the
// engine substitutes in place of a bypassed processor once a
// BypassManager's ramp has fully completed (spec.md §4.6).
type Passthrough struct {
	Base
}

// NewPassthrough creates a named Passthrough leaf.
func NewPassthrough(name string) *Passthrough {
	return &Passthrough{Base: NewBase(name, name, nil, 0)}
}

func (p *Passthrough) ProcessEvent(event.RtEvent) {}

func (p *Passthrough) ProcessAudio(in, out []float32, n int) {
	CopyChannels(in, out, p.InputChannels(), p.OutputChannels(), n)
}

// CopyChannels copies min(inCh,outCh) channels of n samples each from in to
// out (both channel-major) and zeroes any remaining output channels. This
// is the exact substitution behaviour spec.md §4.1 requires for a
// processor with no soft-bypass support while it is hard-bypassed.
func CopyChannels(in, out []float32, inCh, outCh, n int) {
	shared := inCh
	if outCh < shared {
		shared = outCh
	}
	for ch := 0; ch < shared; ch++ {
		copy(out[ch*n:ch*n+n], in[ch*n:ch*n+n])
	}
	for ch := shared; ch < outCh; ch++ {
		clear(out[ch*n : ch*n+n])
	}
}

// Gain is a minimal internal leaf exercising the Parameter/Event contract:
// a single FLOAT parameter, "gain_db", applied uniformly to every input
// channel. It exists for tests and as a template for a real DSP gain
// stage, not as production DSP (concrete DSP is out of scope, spec.md §1).
type Gain struct {
	Base
	linear float32
}

// NewGain creates a named Gain leaf with its gain parameter initialized to
// unity (0 dB).
func NewGain(name string) *Gain {
	descrs := []param.Descriptor{
		{Index: 0, Name: "gain_db", Label: "Gain", Unit: "dB", Min: -60, Max: 12, Type: param.Float},
	}
	g := &Gain{Base: NewBase(name, name, descrs, 4), linear: 1}
	g.ParamStore().Set(0, descrs[0].Normalize(0)) // normalized position for 0dB within [-60,12]
	return g
}

func (g *Gain) ProcessEvent(e event.RtEvent) {
	if e.Kind != event.KindParameterChange || e.ParamIndex != 0 {
		return
	}
	db := g.Parameters()[0].Denormalize(float64(e.FloatValue))
	g.linear = float32(math.Pow(10, db/20))
	g.ParamStore().Set(0, float64(e.FloatValue))
}

func (g *Gain) ProcessAudio(in, out []float32, n int) {
	shared := g.InputChannels()
	if g.OutputChannels() < shared {
		shared = g.OutputChannels()
	}
	for ch := 0; ch < shared; ch++ {
		base := ch * n
		for i := 0; i < n; i++ {
			out[base+i] = in[base+i] * g.linear
		}
	}
	for ch := shared; ch < g.OutputChannels(); ch++ {
		clear(out[ch*n : ch*n+n])
	}
}


// SPDX-License-Identifier: MIT
package processor

// BypassManager implements the equal-power bypass crossfade of spec.md
// §4.6: on a SET_BYPASS transition it arms a short ramp across subsequent
// blocks, blending the processor's own (processed) output against a
// pass-through copy of its input. Once fully ramped, the engine substitutes
// a hard pass-through and stops calling into the manager until the reverse
// transition.
type BypassManager struct {
	rampSamples int
	pos         int
	bypassed    bool
	ramping     bool

	// scratch holds per-sample equal-power weights, sized to the engine
	// block size and reused every block to stay allocation-free.
	processedWeight []float32
	passthruWeight  []float32
}

// NewBypassManager creates a manager for a ramp of rampSamples length
// (spec.md's typical 32ms at the configured sample rate) and a maximum
// block size N. pos starts at rampSamples: a fresh manager is "settled" in
// its initial unbypassed state exactly as if a ramp away from bypass had
// already completed, so the first SetBypassed(true) has a full ramp ahead
// of it instead of immediately flipping to the fully-bypassed end state.
func NewBypassManager(rampSamples, maxBlockSize int) *BypassManager {
	return &BypassManager{
		rampSamples:     rampSamples,
		pos:             rampSamples,
		processedWeight: make([]float32, maxBlockSize),
		passthruWeight:  make([]float32, maxBlockSize),
	}
}

// SetBypassed arms a ramp if the requested state differs from the current
// one. Idempotent otherwise.
func (m *BypassManager) SetBypassed(bypassed bool) {
	if bypassed == m.bypassed && !m.ramping {
		return
	}
	m.bypassed = bypassed
	m.ramping = true
	// Ramp position counts progress toward the current target state;
	// reversing direction resumes from the complementary point instead of a full
	// reset, so a bounce mid-ramp doesn't produce an audible discontinuity.
	m.pos = m.rampSamples - m.pos
	if m.pos < 0 {
		m.pos = 0
	}
	if m.pos > m.rampSamples {
		m.pos = m.rampSamples
	}
}

// Bypassed reports the target (post-ramp) bypass state.
func (m *BypassManager) Bypassed() bool { return m.bypassed }

// Active reports whether a crossfade ramp is currently in progress.
func (m *BypassManager) Active() bool { return m.ramping }

// Blend fills out with the equal-power mix of processed and passthru for n
// samples per channel (both slices channel-major, channels wide), advancing
// the ramp position. Once the ramp completes it clears Active().
//
// The per-sample weight is a ramp, not a per-block scalar, so this is a
// plain elementwise blend rather than a BLAS AXPY (BLAS has no
// vector*vector Hadamard product) — see track.go for the route
// accumulations that do go through gonum/blas32.
func (m *BypassManager) Blend(processed, passthru, out []float32, channels, n int) {
	m.weights(n)
	pw := m.processedWeight[:n]
	tw := m.passthruWeight[:n]

	for ch := 0; ch < channels; ch++ {
		base := ch * n
		for i := 0; i < n; i++ {
			out[base+i] = processed[base+i]*pw[i] + passthru[base+i]*tw[i]
		}
	}

	m.pos += n
	if m.pos >= m.rampSamples {
		m.pos = m.rampSamples
		m.ramping = false
	}
}

// weights recomputes the per-sample equal-power crossfade weights for the
// next n samples starting at the manager's current ramp position.
func (m *BypassManager) weights(n int) {
	for i := 0; i < n; i++ {
		pos := m.pos + i
		var t float64
		if m.rampSamples > 0 {
			t = float64(pos) / float64(m.rampSamples)
		}
		if t > 1 {
			t = 1
		}
		if t < 0 {
			t = 0
		}
		// t=0 => fully processed, t=1 => fully passthrough, when
		// transitioning into bypass; the complementary assignment applies
		// when transitioning out (m.pos already reflects that via the
		// "rampSamples - pos" flip in SetBypassed).
		processedWeight := 1 - t
		passthruWeight := t
		if !m.bypassed {
			processedWeight, passthruWeight = passthruWeight, processedWeight
		}
		m.processedWeight[i] = float32(processedWeight)
		m.passthruWeight[i] = float32(passthruWeight)
	}
}

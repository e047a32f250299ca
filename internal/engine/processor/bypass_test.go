// SPDX-License-Identifier: MIT
package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBypassManager_IdleUntilSetBypassedCalled(t *testing.T) {
	m := NewBypassManager(64, 128)
	assert.False(t, m.Active())
	assert.False(t, m.Bypassed())
}

func TestBypassManager_RampCompletesAfterRampSamples(t *testing.T) {
	m := NewBypassManager(8, 16)
	m.SetBypassed(true)
	assert.True(t, m.Active())

	processed := make([]float32, 16)
	passthru := make([]float32, 16)
	for i := range processed {
		processed[i] = 1
		passthru[i] = -1
	}
	out := make([]float32, 16)

	m.Blend(processed, passthru, out, 1, 8)
	assert.False(t, m.Active(), "ramp should complete after exactly rampSamples samples")
	assert.True(t, m.Bypassed())
}

func TestBypassManager_BlendStartsFullyProcessedWhenEnteringBypass(t *testing.T) {
	m := NewBypassManager(100, 16)
	m.SetBypassed(true)

	processed := []float32{2}
	passthru := []float32{-2}
	out := make([]float32, 1)
	m.Blend(processed, passthru, out, 1, 1)

	assert.InDelta(t, 2, out[0], 0.05)
}

func TestBypassManager_ReverseTransitionResumesFromComplement(t *testing.T) {
	m := NewBypassManager(100, 64)
	m.SetBypassed(true)

	processed := make([]float32, 64)
	passthru := make([]float32, 64)
	out := make([]float32, 64)
	m.Blend(processed, passthru, out, 1, 50)
	assert.True(t, m.Active())

	m.SetBypassed(false)
	assert.True(t, m.Active())
	assert.False(t, m.Bypassed())
}

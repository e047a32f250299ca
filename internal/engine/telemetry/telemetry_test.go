// SPDX-License-Identifier: MIT
package telemetry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounters_IncrementsAreIndependent(t *testing.T) {
	c := &Counters{}
	c.IncToRTOverflow()
	c.IncToRTOverflow()
	c.IncFromRTOverflow()
	c.IncMidiDecodeError()

	snap := c.Snapshot()
	assert.EqualValues(t, 2, snap.ToRTOverflow)
	assert.EqualValues(t, 1, snap.FromRTOverflow)
	assert.EqualValues(t, 1, snap.MidiDecodeErrors)
	assert.Zero(t, snap.DeferredOverflow)
	assert.Zero(t, snap.ProcessBlocks)
}

func TestCounters_ConcurrentIncrements(t *testing.T) {
	c := &Counters{}
	const goroutines = 16
	const perGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				c.IncOutboxDrop()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, goroutines*perGoroutine, c.Snapshot().OutboxDrops)
}

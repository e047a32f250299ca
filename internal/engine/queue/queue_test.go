// SPDX-License-Identifier: MIT
package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMPSC_PushPopOrder(t *testing.T) {
	q := NewMPSC[int](4)
	require.True(t, q.TryPush(1))
	require.True(t, q.TryPush(2))
	require.True(t, q.TryPush(3))

	v, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMPSC_CapacityRoundsToPowerOfTwo(t *testing.T) {
	q := NewMPSC[int](5)
	assert.Equal(t, uint64(7), q.mask) // rounds 5 -> 8, mask == 8-1
}

func TestMPSC_OverflowCounts(t *testing.T) {
	q := NewMPSC[int](2)
	require.True(t, q.TryPush(1))
	require.True(t, q.TryPush(2))
	assert.False(t, q.TryPush(3))
	assert.Equal(t, uint64(1), q.Overflow())
}

func TestMPSC_EmptyPop(t *testing.T) {
	q := NewMPSC[int](2)
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestMPSC_ConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 500
	q := NewMPSC[int](4096)

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for !q.TryPush(i) {
				}
			}
		}()
	}
	wg.Wait()

	got := 0
	for {
		if _, ok := q.TryPop(); ok {
			got++
			continue
		}
		break
	}
	assert.Equal(t, producers*perProducer, got)
}

func TestSPMC_PushPopOrder(t *testing.T) {
	q := NewSPMC[int](4)
	require.True(t, q.TryPush(10))
	require.True(t, q.TryPush(20))

	v, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestSPMC_OverflowCounts(t *testing.T) {
	q := NewSPMC[int](2)
	require.True(t, q.TryPush(1))
	require.True(t, q.TryPush(2))
	assert.False(t, q.TryPush(3))
	assert.Equal(t, uint64(1), q.Overflow())
}

func TestSPMC_ConcurrentConsumers(t *testing.T) {
	const total = 2000
	q := NewSPMC[int](4096)
	for i := 0; i < total; i++ {
		require.True(t, q.TryPush(i))
	}

	var mu sync.Mutex
	seen := 0
	var wg sync.WaitGroup
	wg.Add(4)
	for c := 0; c < 4; c++ {
		go func() {
			defer wg.Done()
			for {
				if _, ok := q.TryPop(); ok {
					mu.Lock()
					seen++
					mu.Unlock()
					continue
				}
				return
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, total, seen)
}

func TestMPSC_TryPushAllocs(t *testing.T) {
	q := NewMPSC[int](64)
	allocs := testing.AllocsPerRun(1000, func() {
		q.TryPush(1)
		q.TryPop()
	})
	assert.Zero(t, allocs)
}

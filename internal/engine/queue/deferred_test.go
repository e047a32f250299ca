// SPDX-License-Identifier: MIT
package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mkinney99/sushi/internal/engine/event"
)

func TestDeferred_PopsInTimestampOrder(t *testing.T) {
	d := NewDeferred(8)
	require.True(t, d.Push(event.Event{Timestamp: 300}))
	require.True(t, d.Push(event.Event{Timestamp: 100}))
	require.True(t, d.Push(event.Event{Timestamp: 200}))

	e, ok := d.Pop()
	require.True(t, ok)
	assert.Equal(t, int64(100), e.Timestamp)

	e, ok = d.Pop()
	require.True(t, ok)
	assert.Equal(t, int64(200), e.Timestamp)

	e, ok = d.Pop()
	require.True(t, ok)
	assert.Equal(t, int64(300), e.Timestamp)

	_, ok = d.Pop()
	assert.False(t, ok)
}

func TestDeferred_OverflowAtCapacity(t *testing.T) {
	d := NewDeferred(2)
	require.True(t, d.Push(event.Event{Timestamp: 1}))
	require.True(t, d.Push(event.Event{Timestamp: 2}))
	assert.False(t, d.Push(event.Event{Timestamp: 3}))
	assert.Equal(t, uint64(1), d.Overflow())
}

func TestDeferred_DrainDueAppliesOnlyDueEvents(t *testing.T) {
	d := NewDeferred(8)
	require.True(t, d.Push(event.Event{Timestamp: 50}))
	require.True(t, d.Push(event.Event{Timestamp: 150}))
	require.True(t, d.Push(event.Event{Timestamp: 250}))

	var applied []int64
	d.DrainDue(150, func(e event.Event) {
		applied = append(applied, e.Timestamp)
	})

	assert.Equal(t, []int64{50, 150}, applied)
	assert.Equal(t, 1, d.Len())
}

func TestDeferred_PeekDoesNotRemove(t *testing.T) {
	d := NewDeferred(4)
	require.True(t, d.Push(event.Event{Timestamp: 42}))
	e, ok := d.Peek()
	require.True(t, ok)
	assert.Equal(t, int64(42), e.Timestamp)
	assert.Equal(t, 1, d.Len())
}

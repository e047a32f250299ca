// SPDX-License-Identifier: MIT
package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/ids"
	"github.com/Mkinney99/sushi/internal/engine/telemetry"
)

func TestPipeline_DrainToRTDispatchesDueEvents(t *testing.T) {
	p := New(8, 8, 8, nil)
	target := ids.New()
	require.True(t, p.PostToRT(event.NewParameterChangeEvent(0, target, 0, 0.5)))

	var applied []event.RtEvent
	p.DrainToRT(0, 64, func(ids.ObjectId) bool { return true },
		func(event.Event) { t.Fatal("graphApply should not be called for a targeted event") },
		func(rt event.RtEvent) { applied = append(applied, rt) })

	require.Len(t, applied, 1)
	assert.Equal(t, target, applied[0].Target)
}

func TestPipeline_DrainToRTDropsEventsForNonResidentTargets(t *testing.T) {
	p := New(8, 8, 8, nil)
	target := ids.New()
	require.True(t, p.PostToRT(event.NewParameterChangeEvent(0, target, 0, 0.5)))

	var applied int
	p.DrainToRT(0, 64, func(ids.ObjectId) bool { return false },
		func(event.Event) {}, func(event.RtEvent) { applied++ })
	assert.Zero(t, applied)
}

func TestPipeline_DrainToRTDefersFutureEvents(t *testing.T) {
	p := New(8, 8, 8, nil)
	target := ids.New()
	require.True(t, p.PostToRT(event.NewParameterChangeEvent(1000, target, 0, 0.5)))

	var applied int
	p.DrainToRT(0, 64, func(ids.ObjectId) bool { return true },
		func(event.Event) {}, func(event.RtEvent) { applied++ })
	assert.Zero(t, applied)

	p.DrainToRT(1000, 1064, func(ids.ObjectId) bool { return true },
		func(event.Event) {}, func(event.RtEvent) { applied++ })
	assert.Equal(t, 1, applied)
}

func TestPipeline_DrainToRTRoutesTargetlessEventsToGraphApply(t *testing.T) {
	p := New(8, 8, 8, nil)
	require.True(t, p.PostToRT(event.NewTransportEvent(0, event.Playing)))

	var graphApplied int
	p.DrainToRT(0, 64, func(ids.ObjectId) bool { return true },
		func(event.Event) { graphApplied++ }, func(event.RtEvent) { t.Fatal("apply should not run for a targetless event") })
	assert.Equal(t, 1, graphApplied)
}

func TestPipeline_PostFromRTAndDrainFromRT(t *testing.T) {
	p := New(8, 8, 8, nil)
	target := ids.New()
	require.True(t, p.PostFromRT(event.NewParameterChangeEvent(0, target, 2, 0.25)))

	var got []event.RtEvent
	p.DrainFromRT(func(rt event.RtEvent) { got = append(got, rt) })
	require.Len(t, got, 1)
	assert.EqualValues(t, 2, got[0].ParamIndex)
}

func TestPipeline_OverflowCountersIncrementOnFullQueues(t *testing.T) {
	counters := &telemetry.Counters{}
	p := New(1, 1, 1, counters)
	target := ids.New()

	require.True(t, p.PostToRT(event.NewParameterChangeEvent(0, target, 0, 0)))
	assert.False(t, p.PostToRT(event.NewParameterChangeEvent(0, target, 0, 0)))
	assert.Equal(t, uint64(1), p.ToRTOverflow())
	assert.Equal(t, uint64(1), counters.Snapshot().ToRTOverflow)
}

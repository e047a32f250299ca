// SPDX-License-Identifier: MIT
package event

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mkinney99/sushi/internal/engine/ids"
)

func TestToRtEvent_SampleOffsetClampsToZero(t *testing.T) {
	e := Event{Kind: KindTransport, Timestamp: 40}
	rt, ok := ToRtEvent(e, 100)
	require.True(t, ok)
	assert.Zero(t, rt.SampleOffset)
}

func TestToRtEvent_SampleOffsetWithinBlock(t *testing.T) {
	e := Event{Kind: KindTransport, Timestamp: 150}
	rt, ok := ToRtEvent(e, 100)
	require.True(t, ok)
	assert.EqualValues(t, 50, rt.SampleOffset)
}

func TestToRtEvent_ParameterChangeCarriesFields(t *testing.T) {
	target := ids.New()
	e := NewParameterChangeEvent(10, target, 3, 0.5)
	rt, ok := ToRtEvent(e, 0)
	require.True(t, ok)
	assert.Equal(t, KindParameterChange, rt.Kind)
	assert.Equal(t, target, rt.Target)
	assert.EqualValues(t, 3, rt.ParamIndex)
	assert.Equal(t, ParamFloat, rt.ParamType)
	assert.Equal(t, float32(0.5), rt.FloatValue)
}

func TestToRtEvent_BlobFitsWithinCapacity(t *testing.T) {
	e := Event{Kind: KindDataParameterChange, DataVal: []byte("hello")}
	rt, ok := ToRtEvent(e, 0)
	require.True(t, ok)
	assert.Equal(t, "hello", string(rt.BlobBytes()))
}

func TestToRtEvent_BlobTooLargeFails(t *testing.T) {
	e := Event{Kind: KindDataParameterChange, DataVal: []byte(strings.Repeat("x", rtBlobCap+1))}
	_, ok := ToRtEvent(e, 0)
	assert.False(t, ok)
}

func TestToRtEvent_AsyncWorkResponseCarriesErrorFlag(t *testing.T) {
	e := Event{Kind: KindAsyncWorkResponse, Result: []byte("ok"), Err: assert.AnError}
	rt, ok := ToRtEvent(e, 0)
	require.True(t, ok)
	assert.True(t, rt.BoolValue)
}

func TestKind_StringCoversEveryKind(t *testing.T) {
	kinds := []Kind{
		KindKeyboard, KindParameterChange, KindStringParameterChange,
		KindDataParameterChange, KindProgramChange, KindSetBypass,
		KindTransport, KindAddProcessor, KindRemoveProcessor,
		KindAsyncWork, KindAsyncWorkResponse, KindParameterChangeNotification,
	}
	for _, k := range kinds {
		assert.NotEqual(t, "UNKNOWN", k.String())
	}
	assert.Equal(t, "UNKNOWN", Kind(255).String())
}

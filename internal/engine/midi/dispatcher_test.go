// SPDX-License-Identifier: MIT
package midi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/ids"
)

type fakePoster struct {
	posted []event.Event
}

func (f *fakePoster) PostToRT(e event.Event) bool {
	f.posted = append(f.posted, e)
	return true
}

type fakeSink struct {
	sent [][]byte
	err  error
}

func (f *fakeSink) Send(port int, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

func TestDispatcher_IngressKeyboardDeliversToConnectedTrack(t *testing.T) {
	poster := &fakePoster{}
	d := New(poster, &fakeSink{}, 4, nil)
	target := ids.New()
	require.NoError(t, d.ConnectKeyboard(0, 0, target))

	raw := []byte{0x90, 60, 100} // note-on, channel 0, note 60, velocity 100
	n := d.Ingress(0, raw, 1000)

	assert.Equal(t, 3, n)
	require.Len(t, poster.posted, 1)
	assert.Equal(t, event.KindKeyboard, poster.posted[0].Kind)
	assert.Equal(t, target, poster.posted[0].Target)
}

func TestDispatcher_IngressOmniDeliversTwiceWhenAlsoRegisteredOnChannel(t *testing.T) {
	poster := &fakePoster{}
	d := New(poster, &fakeSink{}, 4, nil)
	target := ids.New()
	require.NoError(t, d.ConnectKeyboard(0, OmniChannel, target))
	require.NoError(t, d.ConnectKeyboard(0, 0, target))

	raw := []byte{0x90, 60, 100}
	d.Ingress(0, raw, 0)

	assert.Len(t, poster.posted, 2, "registering both OMNI and the specific channel double-delivers by design")
}

func TestDispatcher_IngressCCMapsNormalizedRange(t *testing.T) {
	poster := &fakePoster{}
	d := New(poster, &fakeSink{}, 4, nil)
	target := ids.New()
	require.NoError(t, d.ConnectCC(0, 7, 0, target, 2, 0.5, 1.0))

	raw := []byte{0xB0, 7, 127} // CC 7, value 127 (max)
	d.Ingress(0, raw, 0)

	require.Len(t, poster.posted, 1)
	assert.EqualValues(t, 2, poster.posted[0].ParamIndex)
	assert.InDelta(t, 1.0, poster.posted[0].FloatValue, 1e-3)
}

func TestDispatcher_IngressCCZeroValueMapsToMin(t *testing.T) {
	poster := &fakePoster{}
	d := New(poster, &fakeSink{}, 4, nil)
	target := ids.New()
	require.NoError(t, d.ConnectCC(0, 7, 0, target, 0, 0.5, 1.0))

	raw := []byte{0xB0, 7, 0}
	d.Ingress(0, raw, 0)

	require.Len(t, poster.posted, 1)
	assert.InDelta(t, 0.5, poster.posted[0].FloatValue, 1e-3)
}

func TestDispatcher_IngressUnmappedMessageIsSilentlyDropped(t *testing.T) {
	poster := &fakePoster{}
	d := New(poster, &fakeSink{}, 4, nil)

	raw := []byte{0x90, 60, 100}
	n := d.Ingress(0, raw, 0)

	assert.Equal(t, 3, n)
	assert.Empty(t, poster.posted)
	assert.Equal(t, uint64(1), d.DroppedIngress())
}

func TestDispatcher_IngressRawForwardsUndecodedBytes(t *testing.T) {
	poster := &fakePoster{}
	d := New(poster, &fakeSink{}, 4, nil)
	target := ids.New()
	require.NoError(t, d.ConnectRaw(0, 0, target))

	raw := []byte{0x90, 60, 100} // note-on, channel 0, note 60, velocity 100
	d.Ingress(0, raw, 500)

	require.Len(t, poster.posted, 1)
	got := poster.posted[0]
	assert.Equal(t, event.KindDataParameterChange, got.Kind)
	assert.Equal(t, target, got.Target)
	assert.Equal(t, int64(500), got.Timestamp)
	assert.Equal(t, raw, got.DataVal)
}

func TestDispatcher_IngressRawAndKeyboardBothDeliverForSameMessage(t *testing.T) {
	poster := &fakePoster{}
	d := New(poster, &fakeSink{}, 4, nil)
	rawTarget, kbTarget := ids.New(), ids.New()
	require.NoError(t, d.ConnectRaw(0, 0, rawTarget))
	require.NoError(t, d.ConnectKeyboard(0, 0, kbTarget))

	raw := []byte{0x90, 60, 100}
	d.Ingress(0, raw, 0)

	require.Len(t, poster.posted, 2)
	assert.Equal(t, event.KindDataParameterChange, poster.posted[0].Kind)
	assert.Equal(t, event.KindKeyboard, poster.posted[1].Kind)
}

func TestDispatcher_ConnectRejectsInvalidPortOrChannel(t *testing.T) {
	d := New(&fakePoster{}, &fakeSink{}, 2, nil)
	target := ids.New()
	assert.Error(t, d.ConnectKeyboard(5, 0, target))
	assert.Error(t, d.ConnectKeyboard(0, 17, target))
	assert.Error(t, d.ConnectCC(0, 128, 0, target, 0, 0, 1))
}

func TestDispatcher_EgressEncodesAndSendsNoteOn(t *testing.T) {
	sink := &fakeSink{}
	d := New(&fakePoster{}, sink, 4, nil)
	target := ids.New()
	require.NoError(t, d.ConnectOutput(target, 0, 3))

	rt := event.RtEvent{Kind: event.KindKeyboard, KeyboardSubtype: event.NoteOn, Note: 64, Velocity: 1.0}
	d.Egress(target, rt)

	require.Len(t, sink.sent, 1)
}

func TestDispatcher_EgressCountsSendFailures(t *testing.T) {
	sink := &fakeSink{err: errors.New("device gone")}
	d := New(&fakePoster{}, sink, 4, nil)
	target := ids.New()
	require.NoError(t, d.ConnectOutput(target, 0, 0))

	d.Egress(target, event.RtEvent{Kind: event.KindKeyboard, KeyboardSubtype: event.NoteOn, Note: 1, Velocity: 0.5})
	assert.Equal(t, uint64(1), d.DroppedEgress())
}

func TestDispatcher_EgressIgnoresNonKeyboardEvents(t *testing.T) {
	sink := &fakeSink{}
	d := New(&fakePoster{}, sink, 4, nil)
	target := ids.New()
	require.NoError(t, d.ConnectOutput(target, 0, 0))

	d.Egress(target, event.RtEvent{Kind: event.KindTransport})
	assert.Empty(t, sink.sent)
}

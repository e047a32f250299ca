// SPDX-License-Identifier: MIT
package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/ids"
)

type fakePoster struct {
	toRT   []event.Event
	fromRT []event.Event
}

func (f *fakePoster) PostToRT(e event.Event) bool   { f.toRT = append(f.toRT, e); return true }
func (f *fakePoster) PostFromRT(e event.Event) bool { f.fromRT = append(f.fromRT, e); return true }

type fakeAsync struct {
	requested bool
	target    ids.ObjectId
}

func (f *fakeAsync) Request(target ids.ObjectId, argument []byte, handler func([]byte) ([]byte, error)) uint64 {
	f.requested = true
	f.target = target
	return 42
}

func TestHost_PostEventRoutesByOnRTFlag(t *testing.T) {
	poster := &fakePoster{}
	h := NewHost(poster, New(), &fakeAsync{})

	h.SetOnRT(false)
	require.True(t, h.PostEvent(event.Event{Kind: event.KindTransport}))
	assert.Len(t, poster.toRT, 1)
	assert.Empty(t, poster.fromRT)

	h.SetOnRT(true)
	require.True(t, h.PostEvent(event.Event{Kind: event.KindTransport}))
	assert.Len(t, poster.fromRT, 1)
}

func TestHost_SampleRateRoundTrips(t *testing.T) {
	h := NewHost(&fakePoster{}, New(), &fakeAsync{})
	h.SetSampleRate(44100)
	assert.Equal(t, 44100.0, h.SampleRate())
}

func TestHost_TransportStateReflectsUnderlyingTransport(t *testing.T) {
	tr := New()
	h := NewHost(&fakePoster{}, tr, &fakeAsync{})
	tr.ApplyEvent(event.Event{Kind: event.KindTransport, Tempo: 140})
	assert.Equal(t, 140.0, h.TransportState().Tempo)
}

func TestHost_RequestNonRTCallbackDelegatesToAsyncRequester(t *testing.T) {
	async := &fakeAsync{}
	h := NewHost(&fakePoster{}, New(), async)
	target := ids.New()
	id := h.RequestNonRTCallback(target, []byte("x"), func([]byte) ([]byte, error) { return nil, nil })
	assert.EqualValues(t, 42, id)
	assert.True(t, async.requested)
	assert.Equal(t, target, async.target)
}

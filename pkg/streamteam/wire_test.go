package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWire_RoundTripsAtomicElement(t *testing.T) {
	e := NewElementBuilder(StreamFieldObjectState, CategoryState, "match-1", 1000).
		WithObjectIDs("ball").
		WithPositions(Vector3{X: 1, Y: 2, Z: 0.1}).
		WithPayload(NewPayloadBuilder().WithDouble("velocityAbs", 5.5).WithBool("inField", true).Build()).
		Build()

	raw, err := EncodeElement(e)
	require.NoError(t, err)

	got, err := DecodeElement(raw)
	require.NoError(t, err)

	assert.Equal(t, e.StreamName(), got.StreamName())
	assert.Equal(t, e.Key(), got.Key())
	assert.Equal(t, e.Timestamp(), got.Timestamp())
	assert.Equal(t, e.ObjectIDs(), got.ObjectIDs())
	assert.Equal(t, e.Positions(), got.Positions())
	assert.True(t, got.IsAtomic())

	vabs, ok := got.Payload().Double("velocityAbs")
	require.True(t, ok)
	assert.Equal(t, 5.5, vabs)
}

func TestWire_RoundTripsNonAtomicEpisode(t *testing.T) {
	e := NewElementBuilder(StreamDribblingEvent, CategoryEvent, "match-1", 2000).
		WithNonAtomic(PhaseActive, "dribble-1", 3).
		Build()

	raw, err := EncodeElement(e)
	require.NoError(t, err)

	got, err := DecodeElement(raw)
	require.NoError(t, err)

	assert.False(t, got.IsAtomic())
	phase, ok := got.Phase()
	require.True(t, ok)
	assert.Equal(t, PhaseActive, phase)

	eventID, ok := got.EventID()
	require.True(t, ok)
	assert.Equal(t, "dribble-1", eventID)

	counter, ok := got.Counter()
	require.True(t, ok)
	assert.Equal(t, int64(3), counter)
}

package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passEvent(ts int64, team, kicker, receiver string, kickPos, receivePos Vector3) Element {
	return NewElementBuilder(StreamSuccessfulPassEvent, CategoryEvent, "match-1", ts).
		WithObjectIDs(kicker, receiver).
		WithGroupIDs(team).
		WithPositions(kickPos, receivePos).
		Build()
}

func newTestPassSequenceDetector() *PassSequenceDetector {
	return NewPassSequenceDetector(PassSequenceConfig{HistoryCapacity: 10, MaxTimeBetweenPasses: 5000}, NewMemoryBackend())
}

func TestPassSequence_ChainOfTwoEmitsSequenceEvent(t *testing.T) {
	d := newTestPassSequenceDetector()

	out, err := d.Process("match-1", passEvent(0, "home", "h1", "h2", Vector3{}, Vector3{X: 10}))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = d.Process("match-1", passEvent(100, "home", "h2", "h3", Vector3{X: 10}, Vector3{X: 20}))
	require.NoError(t, err)
	require.NotEmpty(t, out)
	seq, ok := findByStream(out, StreamPassSequenceEvent)
	require.True(t, ok)
	length, _ := seq.Payload().Long("length")
	assert.Equal(t, int64(2), length)
}

func TestPassSequence_ABADoublePassDetected(t *testing.T) {
	d := newTestPassSequenceDetector()

	_, err := d.Process("match-1", passEvent(0, "home", "h1", "h2", Vector3{}, Vector3{X: 10}))
	require.NoError(t, err)

	out, err := d.Process("match-1", passEvent(100, "home", "h2", "h1", Vector3{X: 10}, Vector3{}))
	require.NoError(t, err)
	_, found := findByStream(out, StreamDoublePassEvent)
	assert.True(t, found)
}

func TestPassSequence_BreakSeparatesChains(t *testing.T) {
	d := newTestPassSequenceDetector()

	_, err := d.Process("match-1", passEvent(0, "home", "h1", "h2", Vector3{}, Vector3{X: 10}))
	require.NoError(t, err)

	d.NoteBreak("match-1", "home", 50)

	out, err := d.Process("match-1", passEvent(100, "home", "h2", "h3", Vector3{X: 10}, Vector3{X: 20}))
	require.NoError(t, err)
	_, found := findByStream(out, StreamPassSequenceEvent)
	assert.False(t, found, "a break between the two passes must truncate the chain to length 1")
}

func TestPassSequence_MissingObjectIDsIsAnElementError(t *testing.T) {
	d := newTestPassSequenceDetector()
	bad := NewElementBuilder(StreamSuccessfulPassEvent, CategoryEvent, "match-1", 0).
		WithGroupIDs("home").
		Build()

	_, err := d.Process("match-1", bad)
	require.Error(t, err)
	assert.True(t, IsElementError(err))
}

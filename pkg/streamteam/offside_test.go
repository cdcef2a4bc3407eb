package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOffsideDetector(possession *PossessionDuelDetector) *OffsideDetector {
	return NewOffsideDetector(possession, NewMemoryBackend())
}

func TestOffside_NoPossessionEmitsNullOnce(t *testing.T) {
	possession := newTestDetector()
	d := newTestOffsideDetector(possession)

	out, err := d.Process("match-1", playerTick(0, "h1", "home", Vector3{X: 1}))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, StreamOffsideLineState, out[0].StreamName())

	out, err = d.Process("match-1", playerTick(1, "h1", "home", Vector3{X: 1}))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOffside_NonHolderElementIgnored(t *testing.T) {
	possession := newTestDetector()
	d := newTestOffsideDetector(possession)
	possession.SetLeftTeam("match-1", "home")
	possession.playerInPossession.PutAt("match-1", "all", "h1")

	out, err := d.Process("match-1", playerTick(0, "h2", "home", Vector3{X: 5}))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOffside_ComputesLineFromSecondLastDefender(t *testing.T) {
	possession := newTestDetector()
	d := newTestOffsideDetector(possession)
	possession.SetLeftTeam("match-1", "home")
	possession.playerInPossession.PutAt("match-1", "all", "h1")

	// Four away defenders at depths 10,8,5,2: the rule picks the
	// second-deepest (8), not whatever the shallow-end-relative index
	// len-2 (5) happens to land on with more than three defenders.
	possession.observePlayer("match-1", playerTick(0, "h1", "home", Vector3{X: 1}))
	possession.observePlayer("match-1", playerTick(0, "h2", "home", Vector3{X: 9}))
	possession.observePlayer("match-1", playerTick(0, "a1", "away", Vector3{X: 10}))
	possession.observePlayer("match-1", playerTick(0, "a2", "away", Vector3{X: 8}))
	possession.observePlayer("match-1", playerTick(0, "a3", "away", Vector3{X: 5}))
	possession.observePlayer("match-1", playerTick(0, "a4", "away", Vector3{X: 2}))

	out, err := d.Process("match-1", playerTick(0, "h1", "home", Vector3{X: 1}))
	require.NoError(t, err)
	require.Len(t, out, 1)

	lineX, _ := out[0].Payload().Double("lineX")
	assert.Equal(t, 8.0, lineX)
	beyond, _ := out[0].Payload().StringArray("playersBeyondLine")
	assert.Equal(t, []string{"h2"}, beyond)
}

package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKickDetector(possession *PossessionDuelDetector) *KickDetector {
	return NewKickDetector(KickConfig{MinKickDist: 2, MaxBallbackDist: 0.5}, possession, NewMemoryBackend())
}

func TestKick_FlagsWhenBallDepartsHolder(t *testing.T) {
	possession := newTestDetector()
	possession.SetLeftTeam("match-1", "home")
	possession.SetFieldLength("match-1", 100)
	possession.playerInPossession.PutAt("match-1", "all", "h1")
	possession.observePlayer("match-1", playerTick(0, "h1", "home", Vector3{X: 0}))

	k := newTestKickDetector(possession)

	out, err := k.Process("match-1", ballTick(0, Vector3{X: 5}, 0))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, StreamKickEvent, out[0].StreamName())
	assert.Equal(t, "h1", out[0].ObjectID())

	player, team, _, _, _, _, _, ok := k.LastKick("match-1")
	require.True(t, ok)
	assert.Equal(t, "h1", player)
	assert.Equal(t, "home", team)
}

func TestKick_NoActiveKickWhenNoHolder(t *testing.T) {
	possession := newTestDetector()
	k := newTestKickDetector(possession)

	out, err := k.Process("match-1", ballTick(0, Vector3{X: 5}, 0))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestKick_ConsumedOnceNotReusable(t *testing.T) {
	possession := newTestDetector()
	possession.SetLeftTeam("match-1", "home")
	possession.SetFieldLength("match-1", 100)
	possession.playerInPossession.PutAt("match-1", "all", "h1")
	possession.observePlayer("match-1", playerTick(0, "h1", "home", Vector3{X: 0}))

	k := newTestKickDetector(possession)
	_, err := k.Process("match-1", ballTick(0, Vector3{X: 5}, 0))
	require.NoError(t, err)

	_, _, _, ts, _, _, _, ok := k.LastKick("match-1")
	require.True(t, ok)
	assert.True(t, k.IsKickUnused("match-1", ts))
	k.MarkKickConsumed("match-1", ts)
	assert.False(t, k.IsKickUnused("match-1", ts))
}

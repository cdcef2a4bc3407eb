package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKickoffDetector(possession *PossessionDuelDetector) *KickoffDetector {
	backend := NewMemoryBackend()
	return NewKickoffDetector(KickoffConfig{
		BallID:                 "ball",
		MaxBallMidpointDist:    5,
		MinPlayerMidlineDist:   1,
		MinTimeBetweenKickoffs: 1000,
		TeamSize:               3,
	}, possession, backend)
}

func TestKickoff_ValidFormationEmitsEvent(t *testing.T) {
	possession := newTestDetector()
	d := newTestKickoffDetector(possession)

	possession.observePlayer("match-1", playerTick(0, "h0", "home", Vector3{X: 0.2}))
	possession.observePlayer("match-1", playerTick(0, "h1", "home", Vector3{X: -20}))
	possession.observePlayer("match-1", playerTick(0, "a1", "away", Vector3{X: 20}))

	out, err := d.Process("match-1", ballTick(0, Vector3{}, 0))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, StreamKickoffEvent, out[0].StreamName())
	leftTeam, _ := out[0].Payload().String("leftTeamId")
	assert.Equal(t, "home", leftTeam)
	assert.Equal(t, "home", possession.leftTeam.GetOrZero("match-1", "all"))
	assert.Equal(t, "h0", out[0].ObjectID())
}

func TestKickoff_MixedTeamsInHalfRejects(t *testing.T) {
	possession := newTestDetector()
	d := newTestKickoffDetector(possession)

	possession.observePlayer("match-1", playerTick(0, "h0", "home", Vector3{X: 0.2}))
	possession.observePlayer("match-1", playerTick(0, "h1", "home", Vector3{X: -20}))
	possession.observePlayer("match-1", playerTick(0, "a1", "away", Vector3{X: -25}))
	possession.observePlayer("match-1", playerTick(0, "a2", "away", Vector3{X: 20}))

	out, err := d.Process("match-1", ballTick(0, Vector3{}, 0))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestKickoff_SuppressesWithinMinTime(t *testing.T) {
	possession := newTestDetector()
	d := newTestKickoffDetector(possession)

	possession.observePlayer("match-1", playerTick(0, "h0", "home", Vector3{X: 0.2}))
	possession.observePlayer("match-1", playerTick(0, "h1", "home", Vector3{X: -20}))
	possession.observePlayer("match-1", playerTick(0, "a1", "away", Vector3{X: 20}))

	out, err := d.Process("match-1", ballTick(0, Vector3{}, 0))
	require.NoError(t, err)
	require.Len(t, out, 1)

	out, err = d.Process("match-1", ballTick(500, Vector3{}, 0))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestKickoff_BallOutsideMidpointRejects(t *testing.T) {
	possession := newTestDetector()
	d := newTestKickoffDetector(possession)

	out, err := d.Process("match-1", ballTick(0, Vector3{X: 30}, 0))
	require.NoError(t, err)
	assert.Empty(t, out)
}

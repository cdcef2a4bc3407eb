package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ballTick(t int64, pos Vector3, vabs float64) Element {
	payload := NewPayloadBuilder().WithDouble("velocityAbs", vabs).Build()
	return NewElementBuilder(StreamFieldObjectState, CategoryState, "match-1", t).
		WithObjectIDs("ball").
		WithPositions(pos).
		WithPayload(payload).
		Build()
}

func playerTick(t int64, playerID, teamID string, pos Vector3) Element {
	return NewElementBuilder(StreamFieldObjectState, CategoryState, "match-1", t).
		WithObjectIDs(playerID).
		WithGroupIDs(teamID).
		WithPositions(pos).
		Build()
}

func newTestDetector() *PossessionDuelDetector {
	backend := NewMemoryBackend()
	return NewPossessionDuelDetector(PossessionConfig{
		BallID:                      "ball",
		MaxVabsForVabsDiff:          5,
		MinVabsDiff:                 2,
		MinMovingDirAngleDiff:       1.0,
		MaxBallPossessionChangeDist: 2,
		MaxDuelDist:                 3,
	}, backend)
}

func TestPossession_InsufficientHistoryDrops(t *testing.T) {
	d := newTestDetector()
	d.SetBallInField("match-1", true)

	_, err := d.Process("match-1", ballTick(0, Vector3{}, 0))
	require.Error(t, err)
	assert.True(t, IsElementError(err))
}

func TestPossession_NearestPlayerTakesPossession(t *testing.T) {
	d := newTestDetector()
	d.SetBallInField("match-1", true)
	d.SetLeftTeam("match-1", "home")
	d.SetFieldLength("match-1", 100)

	d.observePlayer("match-1", playerTick(0, "p1", "home", Vector3{X: 0.5}))
	d.observePlayer("match-1", playerTick(0, "p2", "away", Vector3{X: 40}))

	// The first two ticks leave fewer than three ball samples, so hit
	// detection reports insufficient history.
	_, err := d.Process("match-1", ballTick(0, Vector3{}, 10))
	require.Error(t, err)
	_, err = d.Process("match-1", ballTick(100, Vector3{X: 0.1}, 10))
	require.Error(t, err)
	out, err := d.Process("match-1", ballTick(200, Vector3{X: 0.2}, 1))
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, StreamBallPossessionChangeEvent, out[0].StreamName())
	assert.Equal(t, "p1", out[0].ObjectID())
	assert.Equal(t, "home", out[0].GroupID())
}

func TestPossession_BallOutOfFieldResets(t *testing.T) {
	d := newTestDetector()
	d.playerInPossession.PutAt("match-1", "all", "p1")
	d.teamInPossession.PutAt("match-1", "all", "home")
	d.SetBallInField("match-1", false)

	out, err := d.Process("match-1", ballTick(0, Vector3{}, 0))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, StreamBallPossessionChangeEvent, out[0].StreamName())
	assert.Equal(t, "", out[0].ObjectID())

	assert.Equal(t, "", d.playerInPossession.GetOrZero("match-1", "all"))
}

func TestPossession_DuelStartsForTwoNearestToBall(t *testing.T) {
	d := newTestDetector()
	d.SetBallInField("match-1", true)

	d.observePlayer("match-1", playerTick(0, "p1", "home", Vector3{X: 0}))
	d.observePlayer("match-1", playerTick(0, "p2", "away", Vector3{X: 0.5}))
	d.observePlayer("match-1", playerTick(0, "p3", "away", Vector3{X: 40}))
	d.playerInPossession.PutAt("match-1", "all", "p1")
	d.teamInPossession.PutAt("match-1", "all", "home")

	// Warm up the ball history (capacity-gated hit detection needs 2
	// vabs samples and 3 positions); only the third call is asserted on.
	_, _ = d.Process("match-1", ballTick(0, Vector3{X: 0}, 10))
	_, _ = d.Process("match-1", ballTick(100, Vector3{X: 0}, 10))
	out, err := d.Process("match-1", ballTick(200, Vector3{X: 0}, 10))
	require.NoError(t, err)

	require.Len(t, out, 1)
	ev := out[0]
	assert.Equal(t, StreamDuelEvent, ev.StreamName())
	phase, ok := ev.Phase()
	require.True(t, ok)
	assert.Equal(t, PhaseStart, phase)
	assert.ElementsMatch(t, []string{"p1", "p2"}, ev.ObjectIDs())

	payload := ev.Payload()
	defenderID, _ := payload.String("defenderId")
	attackerID, _ := payload.String("attackerId")
	assert.Equal(t, "p1", defenderID)
	assert.Equal(t, "p2", attackerID)
}

func TestPossession_DuelIgnoresPlayersBeyondMaxDuelDist(t *testing.T) {
	d := newTestDetector()
	d.SetBallInField("match-1", true)

	d.observePlayer("match-1", playerTick(0, "p1", "home", Vector3{X: 0}))
	d.observePlayer("match-1", playerTick(0, "p2", "away", Vector3{X: 50}))
	d.playerInPossession.PutAt("match-1", "all", "p1")
	d.teamInPossession.PutAt("match-1", "all", "home")

	_, _ = d.Process("match-1", ballTick(0, Vector3{X: 0}, 10))
	_, _ = d.Process("match-1", ballTick(100, Vector3{X: 0}, 10))
	out, err := d.Process("match-1", ballTick(200, Vector3{X: 0}, 10))
	require.NoError(t, err)

	assert.Empty(t, out)
}

func TestPackingCountsOpponentsCloserToGoal(t *testing.T) {
	d := newTestDetector()
	d.SetLeftTeam("match-1", "home")
	d.SetFieldLength("match-1", 100)
	d.observePlayer("match-1", playerTick(0, "a1", "away", Vector3{X: 45}))
	d.observePlayer("match-1", playerTick(0, "a2", "away", Vector3{X: -10}))
	d.observePlayer("match-1", playerTick(0, "h1", "home", Vector3{X: 40}))

	packing := Packing("match-1", d, "home", "home", 100, Vector3{X: 0})
	assert.Equal(t, 1, packing)
}

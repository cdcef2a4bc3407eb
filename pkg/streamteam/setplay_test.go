package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSetPlayRig() (*PossessionDuelDetector, *SetPlayDetector) {
	possession := newTestDetector()
	possession.SetLeftTeam("match-1", "home")
	possession.observePlayer("match-1", playerTick(0, "h1", "home", Vector3{X: 0}))
	possession.observePlayer("match-1", playerTick(0, "a1", "away", Vector3{X: 10}))

	d := NewSetPlayDetector(SetPlayConfig{
		BallID:                 "ball",
		MaxBallSpeedForRestart: 1,
		MinQuietMs:             100,
	}, possession, NewMemoryBackend())
	return possession, d
}

func areaExitEvent(ts int64, areaID string, pos Vector3) Element {
	return NewElementBuilder(StreamAreaEvent, CategoryEvent, "match-1", ts).
		WithObjectIDs("ball").
		WithPositions(pos).
		WithPayload(NewPayloadBuilder().WithString("areaId", areaID).WithBool("inArea", true).Build()).
		Build()
}

func TestSetPlay_ThrowInAwardedToNonTouchingTeam(t *testing.T) {
	possession, d := newTestSetPlayRig()
	possession.teamInPossession.PutAt("match-1", "all", "home")
	possession.ballVabs.AddAt("match-1", "all", 0)

	out := d.handleAreaEvent("match-1", areaExitEvent(0, AreaLeftTouch, Vector3{X: 0, Y: 34}))
	assert.Empty(t, out)

	out = d.handleBallTick("match-1", ballTick(200, Vector3{X: 0, Y: 34}, 0))
	require.Len(t, out, 1)
	assert.Equal(t, StreamSetPlayEvent, out[0].StreamName())
	typ, _ := out[0].Payload().String("type")
	assert.Equal(t, string(SetPlayThrowIn), typ)
	team := out[0].GroupID()
	assert.Equal(t, "away", team)
}

func TestSetPlay_GoalLineExitByDefenderIsGoalKick(t *testing.T) {
	possession, d := newTestSetPlayRig()
	possession.teamInPossession.PutAt("match-1", "all", "home")

	d.handleAreaEvent("match-1", areaExitEvent(0, AreaSlightlyAboveLeftGoal, Vector3{X: -50}))
	out := d.handleBallTick("match-1", ballTick(200, Vector3{X: -50}, 0))
	require.Len(t, out, 1)
	typ, _ := out[0].Payload().String("type")
	assert.Equal(t, string(SetPlayGoalKick), typ)
	assert.Equal(t, "home", out[0].GroupID())
}

func TestSetPlay_GoalLineExitByAttackerIsCornerKick(t *testing.T) {
	possession, d := newTestSetPlayRig()
	possession.teamInPossession.PutAt("match-1", "all", "away")

	d.handleAreaEvent("match-1", areaExitEvent(0, AreaSlightlyAboveLeftGoal, Vector3{X: -50}))
	out := d.handleBallTick("match-1", ballTick(200, Vector3{X: -50}, 0))
	require.Len(t, out, 1)
	typ, _ := out[0].Payload().String("type")
	assert.Equal(t, string(SetPlayCornerKick), typ)
	assert.Equal(t, "away", out[0].GroupID())
}

func TestSetPlay_WaitsForQuietPeriodBeforeConfirming(t *testing.T) {
	_, d := newTestSetPlayRig()

	d.handleAreaEvent("match-1", areaExitEvent(0, AreaLeftTouch, Vector3{X: 0, Y: 34}))
	out := d.handleBallTick("match-1", ballTick(50, Vector3{X: 0, Y: 34}, 0))
	assert.Empty(t, out, "not enough quiet time has elapsed yet")
}

func TestSetPlay_FastBallRejectsRestartConfirmation(t *testing.T) {
	possession, d := newTestSetPlayRig()
	possession.ballVabs.AddAt("match-1", "all", 10)

	d.handleAreaEvent("match-1", areaExitEvent(0, AreaLeftTouch, Vector3{X: 0, Y: 34}))
	out := d.handleBallTick("match-1", ballTick(200, Vector3{X: 0, Y: 34}, 0))
	assert.Empty(t, out, "ball still moving too fast to confirm the restart")
}

func TestSetPlay_PenaltyAwardedThenEndedOnHit(t *testing.T) {
	_, d := newTestSetPlayRig()

	award := NewElementBuilder(StreamPenaltyAwardedEvent, CategoryEvent, "match-1", 0).
		WithGroupIDs("home").
		WithPositions(Vector3{X: 40}).
		Build()
	out, err := d.Process("match-1", award)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = d.Process("match-1", ballTick(200, Vector3{X: 40}, 0))
	require.NoError(t, err)
	require.Len(t, out, 1)
	typ, _ := out[0].Payload().String("type")
	assert.Equal(t, string(SetPlayPenalty), typ)
	phase, _ := out[0].Phase()
	assert.Equal(t, PhaseStart, phase)

	hit := NewElementBuilder(StreamBallPossessionChangeEvent, CategoryEvent, "match-1", 300).
		WithObjectIDs("h1").
		WithGroupIDs("home").
		Build()
	out, err = d.Process("match-1", hit)
	require.NoError(t, err)
	require.Len(t, out, 1)
	endPhase, _ := out[0].Phase()
	assert.Equal(t, PhaseEnd, endPhase)
}

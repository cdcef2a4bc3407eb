package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPassShotRig() (*PossessionDuelDetector, *KickDetector, *PassShotClassifier) {
	possession := newTestDetector()
	possession.SetLeftTeam("match-1", "home")
	possession.SetFieldLength("match-1", 100)

	kick := NewKickDetector(KickConfig{MinKickDist: 2, MaxBallbackDist: 0.5}, possession, NewMemoryBackend())
	classifier := NewPassShotClassifier(PassShotConfig{
		BallID:                  "ball",
		MaxTime:                 5000,
		SidewardsAngleThreshold: 0.5,
		GoalHeight:              2,
	}, kick, possession, NewMemoryBackend())
	return possession, kick, classifier
}

func triggerKick(t *testing.T, possession *PossessionDuelDetector, kick *KickDetector, holder, team string, holderPos, ballPos Vector3, ts int64) {
	possession.playerInPossession.PutAt("match-1", "all", holder)
	possession.observePlayer("match-1", playerTick(ts, holder, team, holderPos))
	_, err := kick.Process("match-1", ballTick(ts, ballPos, 0))
	require.NoError(t, err)
}

func TestPassShot_SuccessfulPassWithinSameTeam(t *testing.T) {
	possession, kick, classifier := newTestPassShotRig()

	// Three away players ahead of the kick (X=10,15,25 > kickPos.X=5) give
	// a kick-time packing of 3; only one (X=25) stays ahead of the receive
	// position (X=20), giving a receive-time packing of 1, so the pass
	// should report packingDiff=3-1=2 (the space gained by the pass).
	possession.observePlayer("match-1", playerTick(0, "a1", "away", Vector3{X: 10}))
	possession.observePlayer("match-1", playerTick(0, "a2", "away", Vector3{X: 15}))
	possession.observePlayer("match-1", playerTick(0, "a3", "away", Vector3{X: 25}))

	triggerKick(t, possession, kick, "h1", "home", Vector3{X: 0}, Vector3{X: 5}, 0)

	receive := NewElementBuilder(StreamBallPossessionChangeEvent, CategoryEvent, "match-1", 500).
		WithObjectIDs("h2").
		WithGroupIDs("home").
		WithPositions(Vector3{X: 20}).
		Build()

	out, err := classifier.Process("match-1", receive)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, StreamSuccessfulPassEvent, out[0].StreamName())

	packingDiff, ok := out[0].Payload().Long("packingDiff")
	require.True(t, ok)
	assert.Equal(t, int64(2), packingDiff)

	again, err := classifier.Process("match-1", receive)
	require.NoError(t, err)
	assert.Empty(t, again, "a consumed kick must not classify twice")
}

func TestPassShot_OpponentReceiptIsInterception(t *testing.T) {
	possession, kick, classifier := newTestPassShotRig()
	triggerKick(t, possession, kick, "h1", "home", Vector3{X: 0}, Vector3{X: 5}, 0)

	receive := NewElementBuilder(StreamBallPossessionChangeEvent, CategoryEvent, "match-1", 500).
		WithObjectIDs("a1").
		WithGroupIDs("away").
		WithPositions(Vector3{X: 20}).
		Build()

	out, err := classifier.Process("match-1", receive)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, StreamInterceptionEvent, out[0].StreamName())
}

func TestPassShot_StaleKickBeyondMaxTimeIsIgnored(t *testing.T) {
	possession, kick, classifier := newTestPassShotRig()
	triggerKick(t, possession, kick, "h1", "home", Vector3{X: 0}, Vector3{X: 5}, 0)

	receive := NewElementBuilder(StreamBallPossessionChangeEvent, CategoryEvent, "match-1", 10000).
		WithObjectIDs("h2").
		WithGroupIDs("home").
		WithPositions(Vector3{X: 20}).
		Build()

	out, err := classifier.Process("match-1", receive)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPassShot_BallEnteringAreaWithoutPriorKickIsIgnored(t *testing.T) {
	_, _, classifier := newTestPassShotRig()

	entry := NewElementBuilder(StreamAreaEvent, CategoryEvent, "match-1", 0).
		WithObjectIDs("ball").
		WithPositions(Vector3{X: 50}).
		WithPayload(NewPayloadBuilder().WithString("areaId", AreaLeftGoal).WithBool("inArea", true).Build()).
		Build()

	out, err := classifier.Process("match-1", entry)
	require.NoError(t, err)
	assert.Empty(t, out)
}

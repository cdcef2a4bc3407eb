package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamArea_EmitsOnAreaChange(t *testing.T) {
	possession := newTestDetector()
	d := NewTeamAreaPressingDetector("ball", possession, NewMemoryBackend())

	possession.observePlayer("match-1", playerTick(0, "h1", "home", Vector3{X: 0, Y: 0}))
	possession.observePlayer("match-1", playerTick(0, "h2", "home", Vector3{X: 10, Y: 10}))

	out, err := d.Process("match-1", playerTick(0, "h1", "home", Vector3{X: 0, Y: 0}))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, StreamTeamAreaState, out[0].StreamName())
	boundingArea, _ := out[0].Payload().Double("boundingArea")
	assert.Equal(t, 100.0, boundingArea)

	out, err = d.Process("match-1", playerTick(1, "h1", "home", Vector3{X: 0, Y: 0}))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTeamArea_PressingIndexComputedForDefendingTeam(t *testing.T) {
	possession := newTestDetector()
	possession.teamInPossession.PutAt("match-1", "all", "home")
	d := NewTeamAreaPressingDetector("ball", possession, NewMemoryBackend())

	possession.observePlayer("match-1", playerTick(0, "a1", "away", Vector3{X: 10, Y: 0}))

	_, err := d.Process("match-1", ballTick(0, Vector3{}, 0))
	require.NoError(t, err)

	velocityPayload := NewPayloadBuilder().WithVector("velocity", Vector3{X: -1}).Build()
	playerElem := NewElementBuilder(StreamFieldObjectState, CategoryState, "match-1", 1).
		WithObjectIDs("a1").
		WithGroupIDs("away").
		WithPositions(Vector3{X: 10, Y: 0}).
		WithPayload(velocityPayload).
		Build()

	_, err = d.Process("match-1", playerElem)
	require.NoError(t, err)

	pressing := d.pressingIndex.GetOrZero("match-1", "away")
	assert.Greater(t, pressing, 0.0)
}

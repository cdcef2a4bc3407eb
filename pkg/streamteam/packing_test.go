package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPacking_GoalPositionDependsOnSide(t *testing.T) {
	assert.Equal(t, Vector3{X: 50}, GoalPosition("home", "home", 100))
	assert.Equal(t, Vector3{X: -50}, GoalPosition("away", "home", 100))
}

func TestPacking_CountsOnlyOpponentsCloserThanReference(t *testing.T) {
	possession := newTestDetector()
	possession.SetLeftTeam("match-1", "home")
	possession.observePlayer("match-1", playerTick(0, "a1", "away", Vector3{X: 40}))
	possession.observePlayer("match-1", playerTick(0, "a2", "away", Vector3{X: -40}))
	possession.observePlayer("match-1", playerTick(0, "h1", "home", Vector3{X: 0}))

	// home attacks X=+50; a1 (X=40) is closer to goal than the reference
	// point at X=0, a2 (X=-40) is farther.
	count := Packing("match-1", possession, "home", "home", 100, Vector3{X: 0})
	assert.Equal(t, 1, count)
}

func TestPacking_ZeroWhenNoOpponentsCloser(t *testing.T) {
	possession := newTestDetector()
	possession.SetLeftTeam("match-1", "home")
	possession.observePlayer("match-1", playerTick(0, "a1", "away", Vector3{X: -40}))

	count := Packing("match-1", possession, "home", "home", 100, Vector3{X: 0})
	assert.Equal(t, 0, count)
}

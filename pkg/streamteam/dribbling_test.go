package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func speedTick(ts int64, playerID, teamID string, pos Vector3, vabs float64) Element {
	payload := NewPayloadBuilder().WithDouble("velocityAbs", vabs).Build()
	return NewElementBuilder(StreamFieldObjectState, CategoryState, "match-1", ts).
		WithObjectIDs(playerID).
		WithGroupIDs(teamID).
		WithPositions(pos).
		WithPayload(payload).
		Build()
}

func newTestDribblingDetector(possession *PossessionDuelDetector) *DribblingSpeedDetector {
	return NewDribblingSpeedDetector(DribblingConfig{
		SpeedLevelThresholds:    []float64{5, 10},
		DribblingSpeedThreshold: 5,
		DribblingTimeThreshold:  100,
	}, possession, NewMemoryBackend())
}

func TestDribbling_SpeedLevelTransitionEmitsEvent(t *testing.T) {
	possession := newTestDetector()
	d := newTestDribblingDetector(possession)

	out, err := d.Process("match-1", speedTick(0, "p1", "home", Vector3{}, 2))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = d.Process("match-1", speedTick(100, "p1", "home", Vector3{}, 12))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, StreamSpeedLevelChangeEvent, out[0].StreamName())
	level, _ := out[0].Payload().Long("speedLevel")
	assert.Equal(t, int64(2), level)
}

func TestDribbling_FullEpisodeLifecycle(t *testing.T) {
	possession := newTestDetector()
	possession.playerInPossession.PutAt("match-1", "all", "p1")
	d := newTestDribblingDetector(possession)

	// ts=10 avoids colliding with the waitingSince unset sentinel (0).
	out, err := d.Process("match-1", speedTick(10, "p1", "home", Vector3{X: 0}, 10))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = d.Process("match-1", speedTick(50, "p1", "home", Vector3{X: 0}, 10))
	require.NoError(t, err)
	assert.Empty(t, out, "still within the warm-up window")

	out, err = d.Process("match-1", speedTick(150, "p1", "home", Vector3{X: 1}, 10))
	require.NoError(t, err)
	startEvent, ok := findByStream(out, StreamDribblingEvent)
	require.True(t, ok)
	phase, _ := startEvent.Phase()
	assert.Equal(t, PhaseStart, phase)

	out, err = d.Process("match-1", speedTick(200, "p1", "home", Vector3{X: 2}, 10))
	require.NoError(t, err)
	activeEvent, ok := findByStream(out, StreamDribblingEvent)
	require.True(t, ok)
	activePhase, _ := activeEvent.Phase()
	assert.Equal(t, PhaseActive, activePhase)
	length, _ := activeEvent.Payload().Double("length")
	assert.Greater(t, length, 0.0)

	out, err = d.Process("match-1", speedTick(300, "p1", "home", Vector3{X: 2}, 1))
	require.NoError(t, err)
	endEvent, ok := findByStream(out, StreamDribblingEvent)
	require.True(t, ok)
	endPhase, _ := endEvent.Phase()
	assert.Equal(t, PhaseEnd, endPhase)

	foundStats := 0
	for _, el := range out {
		if el.StreamName() == StreamDribblingStatistics {
			foundStats++
		}
	}
	assert.Equal(t, 2, foundStats)
}

func findByStream(elements []Element, stream string) (Element, bool) {
	for _, el := range elements {
		if el.StreamName() == stream {
			return el, true
		}
	}
	return Element{}, false
}

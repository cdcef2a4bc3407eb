package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeatmap_ConstructionOutsideFieldContributesNothing(t *testing.T) {
	backend := NewMemoryBackend()
	cfg := HeatmapConfig{NumXGridCells: 10, NumYGridCells: 6, Intervals: []int64{0}}
	c := NewHeatmapConstructor(cfg, backend)
	c.SetFieldDimensions("match-1", 100, 60)

	out, err := c.Process("match-1", playerTick(0, "h1", "home", Vector3{X: 1000}))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestHeatmap_ConstructionAndSenderRoundTrip(t *testing.T) {
	backend := NewMemoryBackend()
	cfg := HeatmapConfig{NumXGridCells: 10, NumYGridCells: 6, Intervals: []int64{0, 2}}
	c := NewHeatmapConstructor(cfg, backend)
	c.SetFieldDimensions("match-1", 100, 60)
	s := NewHeatmapSender(cfg, backend)

	_, err := c.Process("match-1", playerTick(0, "h1", "home", Vector3{X: 0, Y: 0}))
	require.NoError(t, err)
	_, err = c.Process("match-1", playerTick(0, "h1", "home", Vector3{X: 0, Y: 0}))
	require.NoError(t, err)

	tick := NewElementBuilder(StreamInternalActiveKeys, CategoryState, "match-1", 1000).Build()
	out, err := s.Process("match-1", tick)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	found := false
	for _, el := range out {
		if el.ObjectID() == "h1" {
			interval, _ := el.Payload().Long("interval")
			if interval == 0 {
				total, _ := el.Payload().Long("total")
				assert.Equal(t, int64(2), total)
				found = true
			}
		}
	}
	assert.True(t, found)
}

func TestHeatmap_EncodeCellsRunLengthCompresses(t *testing.T) {
	cells := []int64{0, 0, 0, 0, 0, 3, 0, 0, 1}
	assert.Equal(t, "0x5;3;0x2;1", encodeHeatmapCells(cells))
}

package streamteam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArea_EmitsOnEntryAndExit(t *testing.T) {
	d := NewAreaDetector([]AreaRect{
		{AreaID: "leftGoal", XMin: -52, XMax: -50, YMin: -3.66, YMax: 3.66},
	}, NewMemoryBackend())

	out, err := d.Process("match-1", ballTick(0, Vector3{X: -51}, 0))
	require.NoError(t, err)
	require.Len(t, out, 1)
	inArea, _ := out[0].Payload().Bool("inArea")
	assert.True(t, inArea)

	out, err = d.Process("match-1", ballTick(1, Vector3{X: -51}, 0))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = d.Process("match-1", ballTick(2, Vector3{X: 0}, 0))
	require.NoError(t, err)
	require.Len(t, out, 1)
	inArea, _ = out[0].Payload().Bool("inArea")
	assert.False(t, inArea)
}

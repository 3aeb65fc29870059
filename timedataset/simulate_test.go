package timedataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMonths(t *testing.T) {
	res := GenerateMonths(14, month(2023, 1))
	assert.Len(t, res, 14)

	assert.Equal(t, month(2023, 1), res[0])
	assert.Equal(t, month(2024, 2), res[13])
}

func TestSeries(t *testing.T) {
	numPnts := 5
	s := GenerateConstY(numPnts, 1)

	res := s.Add(GenerateLinearY(numPnts, 0, 1))
	require.Equal(t, Series{1, 2, 3, 4, 5}, res)

	s.Add(GenerateChange(numPnts, 3, 10, 1))
	assert.Equal(t, Series{1, 2, 3, 14, 16}, s)

	s.SetNaN(1, 7)
	assert.True(t, math.IsNaN(s[1]))

	obs := s.Observations(GenerateMonths(numPnts, month(2023, 1)))
	require.Len(t, obs, numPnts)
	assert.False(t, obs[1].Valid())
	assert.True(t, obs[0].Valid())
}

func TestGenerateNoiseReproducible(t *testing.T) {
	a := GenerateNoise(10, 0.5, 42)
	b := GenerateNoise(10, 0.5, 42)
	assert.Equal(t, a, b)
}

func TestGenerateWaveY(t *testing.T) {
	y := GenerateWaveY(13, 2, 12, 0)
	assert.InDelta(t, 0.0, y[0], 1e-9)
	assert.InDelta(t, 2.0, y[3], 1e-9)
	assert.InDelta(t, 0.0, y[12], 1e-9)
}

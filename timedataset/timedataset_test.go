package timedataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestNewUnivariateDataset(t *testing.T) {
	testData := map[string]struct {
		t        []time.Time
		y        []float64
		expected *TimeDataset
		err      error
	}{
		"empty": {
			expected: &TimeDataset{T: []time.Time{}, Y: []float64{}},
		},
		"length mismatch": {
			y:   []float64{1},
			err: ErrDatasetLenMismatch,
		},
		"non increasing time": {
			t:   []time.Time{month(2023, 2), month(2023, 1)},
			y:   []float64{1, 2},
			err: ErrNonMontonic,
		},
		"duplicate time": {
			t:   []time.Time{month(2023, 1), month(2023, 1)},
			y:   []float64{1, 2},
			err: ErrNonMontonic,
		},
		"valid": {
			t: []time.Time{month(2023, 1), month(2023, 2)},
			y: []float64{1, 2},
			expected: &TimeDataset{
				T: []time.Time{month(2023, 1), month(2023, 2)},
				Y: []float64{1, 2},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ds, err := NewUnivariateDataset(td.t, td.y)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, ds)
		})
	}
}

func TestCopy(t *testing.T) {
	ds, err := NewUnivariateDataset([]time.Time{month(2023, 1), month(2023, 2)}, []float64{0, 1})
	require.NoError(t, err)

	nextDs := ds.Copy()
	require.Equal(t, ds, nextDs)

	ds.Y[0] = 10
	assert.Equal(t, 0.0, nextDs.Y[0])
}

func TestDropNan(t *testing.T) {
	testData := map[string]struct {
		tdset    *TimeDataset
		expected *TimeDataset
	}{
		"nil input for nan drop": {tdset: nil, expected: nil},
		"no data to drop": {
			tdset: &TimeDataset{},
			expected: &TimeDataset{
				T: []time.Time{},
				Y: []float64{},
			},
		},
		"data with NaNs": {
			tdset: &TimeDataset{
				T: GenerateMonths(5, month(2023, 1)),
				Y: []float64{math.NaN(), 2, 3, math.NaN(), 5},
			},
			expected: &TimeDataset{
				T: []time.Time{month(2023, 2), month(2023, 3), month(2023, 5)},
				Y: []float64{2, 3, 5},
			},
		},
		"data with infinities": {
			tdset: &TimeDataset{
				T: GenerateMonths(4, month(2023, 1)),
				Y: []float64{1, math.Inf(1), 3, math.Inf(-1)},
			},
			expected: &TimeDataset{
				T: []time.Time{month(2023, 1), month(2023, 3)},
				Y: []float64{1, 3},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := td.tdset.DropNan()
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestTailAndSince(t *testing.T) {
	ds := &TimeDataset{
		T: GenerateMonths(4, month(2023, 1)),
		Y: []float64{1, 2, 3, 4},
	}

	assert.Equal(t, []float64{3, 4}, ds.Tail(2).Y)
	assert.Equal(t, []float64{1, 2, 3, 4}, ds.Tail(10).Y)
	assert.Equal(t, []float64{}, ds.Tail(0).Y)

	since := ds.Since(month(2023, 3))
	assert.Equal(t, []time.Time{month(2023, 3), month(2023, 4)}, since.T)
	assert.Equal(t, 0, ds.Since(month(2024, 1)).Len())

	var nilDs *TimeDataset
	assert.Equal(t, 0, nilDs.Len())
	assert.Nil(t, nilDs.Tail(2))
}

func TestPrepare(t *testing.T) {
	testData := map[string]struct {
		obs      []Observation
		window   int
		expected *TimeDataset
		err      error
	}{
		"invalid window": {
			window: 1,
			err:    ErrInvalidWindow,
		},
		"no observations": {
			window:   DefaultWindow,
			expected: &TimeDataset{T: []time.Time{}, Y: []float64{}},
		},
		"all missing": {
			obs: []Observation{
				Missing(month(2023, 1)),
				NewObservation(month(2023, 2), math.NaN()),
			},
			window:   DefaultWindow,
			expected: &TimeDataset{T: []time.Time{}, Y: []float64{}},
		},
		"unsorted with missing values": {
			obs: []Observation{
				NewObservation(month(2023, 3), 3),
				Missing(month(2023, 2)),
				NewObservation(month(2023, 1), 1),
				NewObservation(month(2023, 4), math.NaN()),
				NewObservation(month(2023, 5), 5),
			},
			window: DefaultWindow,
			expected: &TimeDataset{
				T: []time.Time{month(2023, 1), month(2023, 3), month(2023, 5)},
				Y: []float64{1, 3, 5},
			},
		},
		"trailing window": {
			obs:    GenerateLinearY(6, 1, 1).Observations(GenerateMonths(6, month(2023, 1))),
			window: 3,
			expected: &TimeDataset{
				T: []time.Time{month(2023, 4), month(2023, 5), month(2023, 6)},
				Y: []float64{4, 5, 6},
			},
		},
		"normalizes to month start and keeps last duplicate": {
			obs: []Observation{
				NewObservation(time.Date(2023, 1, 15, 12, 0, 0, 0, time.UTC), 1),
				NewObservation(time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), 1.5),
				NewObservation(time.Date(2023, 2, 3, 0, 0, 0, 0, time.UTC), 2),
			},
			window: 2,
			expected: &TimeDataset{
				T: []time.Time{month(2023, 1), month(2023, 2)},
				Y: []float64{1.5, 2},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Prepare(td.obs, td.window)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestPrepareIdempotent(t *testing.T) {
	y := GenerateLinearY(30, 2, 0.1).SetNaN(3, 17)
	obs := y.Observations(GenerateMonths(30, month(2021, 1)))

	first, err := Prepare(obs, DefaultWindow)
	require.NoError(t, err)
	second, err := Prepare(first.Observations(), DefaultWindow)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, DefaultWindow, first.Len())
	assert.Len(t, obs, 30, "input must not be modified")
}

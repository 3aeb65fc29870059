// Package timedataset holds the monthly series types shared by the forecaster and the data
// collaborators, and the preparation step that turns raw observations into a training window.
package timedataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// DefaultWindow is the number of trailing observations kept by Prepare when the caller has no
// preference.
const DefaultWindow = 24

var (
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrInvalidWindow      = errors.New("window must be at least 2")
)

// Observation is a single raw point of a series. A nil or NaN Y marks a missing value.
type Observation struct {
	T time.Time `json:"time"`
	Y *float64  `json:"value"`
}

// NewObservation returns an observation with a valid value.
func NewObservation(t time.Time, y float64) Observation {
	return Observation{T: t, Y: &y}
}

// Missing returns an observation without a value.
func Missing(t time.Time) Observation {
	return Observation{T: t}
}

// Valid reports if the observation carries a usable value.
func (o Observation) Valid() bool {
	return o.Y != nil && !math.IsNaN(*o.Y) && !math.IsInf(*o.Y, 0)
}

// TimeDataset represents a time series storing a slice of time points and values.
// Both must be of the same length.
type TimeDataset struct {
	T []time.Time `json:"time"`
	Y []float64   `json:"value"`
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice. Times
// must be strictly increasing. An empty dataset is valid.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(t))
	copy(tSeries, t)
	copy(ySeries, y)
	td := &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}

	return td, nil
}

// Len returns the number of points in the dataset
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.Y)
}

func (td *TimeDataset) Copy() *TimeDataset {
	if td == nil {
		return nil
	}
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.Y))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// DropNan returns a new dataset without NaN or infinite values
func (td *TimeDataset) DropNan() *TimeDataset {
	if td == nil {
		return nil
	}

	tSeries := make([]time.Time, 0, len(td.T))
	ySeries := make([]float64, 0, len(td.Y))
	for i := 0; i < len(td.T); i++ {
		if math.IsNaN(td.Y[i]) || math.IsInf(td.Y[i], 0) {
			continue
		}
		tSeries = append(tSeries, td.T[i])
		ySeries = append(ySeries, td.Y[i])
	}
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// Tail returns a copy of the last n points. If the dataset is shorter, all points are returned.
func (td *TimeDataset) Tail(n int) *TimeDataset {
	if td == nil {
		return nil
	}
	start := len(td.T) - n
	if start < 0 {
		start = 0
	}
	out := &TimeDataset{
		T: make([]time.Time, len(td.T)-start),
		Y: make([]float64, len(td.Y)-start),
	}
	copy(out.T, td.T[start:])
	copy(out.Y, td.Y[start:])
	return out
}

// Since returns a copy of the points at or after start
func (td *TimeDataset) Since(start time.Time) *TimeDataset {
	if td == nil {
		return nil
	}
	idx := sort.Search(len(td.T), func(i int) bool {
		return !td.T[i].Before(start)
	})
	return td.Tail(len(td.T) - idx)
}

// Observations converts the dataset back into raw observations
func (td *TimeDataset) Observations() []Observation {
	if td == nil {
		return nil
	}
	obs := make([]Observation, 0, len(td.T))
	for i := range td.T {
		obs = append(obs, NewObservation(td.T[i], td.Y[i]))
	}
	return obs
}

// Clean normalizes every timestamp to the start of its month, sorts chronologically, removes
// missing values and collapses duplicate months keeping the last valid observation. The input
// is not modified.
func Clean(obs []Observation) *TimeDataset {
	sorted := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if !o.Valid() {
			continue
		}
		sorted = append(sorted, Observation{T: MonthStart(o.T), Y: o.Y})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].T.Before(sorted[j].T)
	})

	td := &TimeDataset{
		T: make([]time.Time, 0, len(sorted)),
		Y: make([]float64, 0, len(sorted)),
	}
	for _, o := range sorted {
		n := len(td.T)
		if n > 0 && td.T[n-1].Equal(o.T) {
			td.Y[n-1] = *o.Y
			continue
		}
		td.T = append(td.T, o.T)
		td.Y = append(td.Y, *o.Y)
	}
	return td
}

// Prepare returns the trailing window of valid observations in chronological order. A series
// without valid observations yields an empty dataset rather than an error. Gaps left by removed
// values are not filled so consecutive points are not guaranteed to be one month apart.
func Prepare(obs []Observation, window int) (*TimeDataset, error) {
	if window < 2 {
		return nil, fmt.Errorf("got window of %d, %w", window, ErrInvalidWindow)
	}
	return Clean(obs).Tail(window), nil
}

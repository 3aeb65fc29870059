package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateMonths returns n consecutive month starts beginning at start
func GenerateMonths(n int, start time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := MonthStart(start)
	for i := 0; i < n; i++ {
		t = append(t, ct.AddDate(0, i, 0))
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// SetNaN marks the values at the given indices as missing
func (s Series) SetNaN(idxs ...int) Series {
	for _, idx := range idxs {
		if idx >= 0 && idx < len(s) {
			s[idx] = math.NaN()
		}
	}
	return s
}

// Observations pairs the series with times. NaN values become missing observations.
func (s Series) Observations(t []time.Time) []Observation {
	obs := make([]Observation, 0, len(s))
	for i := 0; i < len(s) && i < len(t); i++ {
		if math.IsNaN(s[i]) {
			obs = append(obs, Missing(t[i]))
			continue
		}
		obs = append(obs, NewObservation(t[i], s[i]))
	}
	return obs
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateLinearY returns intercept + slope*i for i in [0, n)
func GenerateLinearY(n int, intercept, slope float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, intercept+slope*float64(i))
	}
	return Series(y)
}

// GenerateWaveY returns a sine wave with the given period in months
func GenerateWaveY(n int, amp, periodMonths, offsetMonths float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi/periodMonths*(float64(i)+offsetMonths))
		y = append(y, val)
	}
	return Series(y)
}

// GenerateNoise returns gaussian noise with the given scale from a seeded source so that
// simulated series are reproducible
func GenerateNoise(n int, noiseScale float64, seed uint64) Series {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rng.NormFloat64()*noiseScale)
	}
	return Series(y)
}

// GenerateChange returns a level shift of bias starting at index chpt followed by slope per month
func GenerateChange(n, chpt int, bias, slope float64) Series {
	y := make([]float64, n)
	for i := chpt; i < n; i++ {
		if i < 0 {
			continue
		}
		y[i] = bias + slope*float64(i-chpt)
	}
	return Series(y)
}

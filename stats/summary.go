package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aouyang1/go-macroforecast/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// VerdictThreshold is the mean difference in percentage points beyond which one region is
// considered higher or lower than the other
const VerdictThreshold = 0.1

var ErrNoData = errors.New("no data points to summarize")

// Summary holds descriptive statistics of a series over an analysis window
type Summary struct {
	Count      int       `json:"count"`
	Mean       float64   `json:"mean"`
	Median     float64   `json:"median"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Std        float64   `json:"std"`
	Latest     float64   `json:"latest"`
	LatestDate time.Time `json:"latest_date"`

	// Outliers are the months flagged by DetectOutliers
	Outliers []time.Time `json:"outliers,omitempty"`
}

// Summarize computes statistics over the points at or after since. A zero since uses every point.
// The standard deviation is the sample standard deviation and is 0 for a single point.
func Summarize(td *timedataset.TimeDataset, since time.Time) (*Summary, error) {
	td = td.DropNan()
	if !since.IsZero() {
		td = td.Since(since)
	}
	n := td.Len()
	if n == 0 {
		return nil, ErrNoData
	}

	sorted := append([]float64(nil), td.Y...)
	sort.Float64s(sorted)

	std := 0.0
	if n > 1 {
		std = stat.StdDev(td.Y, nil)
	}

	s := &Summary{
		Count:      n,
		Mean:       stat.Mean(td.Y, nil),
		Median:     median(sorted),
		Min:        floats.Min(td.Y),
		Max:        floats.Max(td.Y),
		Std:        std,
		Latest:     td.Y[n-1],
		LatestDate: td.T[n-1],
	}
	for _, idx := range DetectOutliers(td.Y, DefaultLowerPercentile, DefaultUpperPercentile, DefaultTukeyFactor) {
		s.Outliers = append(s.Outliers, td.T[idx])
	}
	return s, nil
}

// median of an ascending slice, averaging the middle pair for even lengths
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Extremes records the highest and lowest observation of a series. Ties resolve to the earliest
// month.
type Extremes struct {
	Highest     float64   `json:"highest"`
	HighestDate time.Time `json:"highest_date"`
	Lowest      float64   `json:"lowest"`
	LowestDate  time.Time `json:"lowest_date"`
}

// FindExtremes scans the full series for its highest and lowest values
func FindExtremes(td *timedataset.TimeDataset) (*Extremes, error) {
	td = td.DropNan()
	if td.Len() == 0 {
		return nil, ErrNoData
	}

	hi := floats.MaxIdx(td.Y)
	lo := floats.MinIdx(td.Y)
	return &Extremes{
		Highest:     td.Y[hi],
		HighestDate: td.T[hi],
		Lowest:      td.Y[lo],
		LowestDate:  td.T[lo],
	}, nil
}

// Verdict summarizes whether the first region of a comparison tends to run above the second
type Verdict string

const (
	VerdictHigher  Verdict = "higher"
	VerdictLower   Verdict = "lower"
	VerdictAligned Verdict = "aligned"
)

// Comparison is the month by month difference a - b over the months both series share
type Comparison struct {
	T          []time.Time `json:"time"`
	A          []float64   `json:"a"`
	B          []float64   `json:"b"`
	Difference []float64   `json:"difference"`

	MeanDifference float64 `json:"mean_difference"`
	MonthsHigher   int     `json:"months_higher"`
	Verdict        Verdict `json:"verdict"`
}

// Compare aligns two monthly series on shared months and computes their difference
func Compare(a, b *timedataset.TimeDataset) (*Comparison, error) {
	a = a.DropNan()
	b = b.DropNan()
	if a.Len() == 0 || b.Len() == 0 {
		return nil, fmt.Errorf("both series need points to compare, %w", ErrNoData)
	}

	bIdx := make(map[time.Time]int, b.Len())
	for i, t := range b.T {
		bIdx[timedataset.MonthStart(t)] = i
	}

	c := &Comparison{}
	for i, t := range a.T {
		j, ok := bIdx[timedataset.MonthStart(t)]
		if !ok {
			continue
		}
		diff := a.Y[i] - b.Y[j]
		c.T = append(c.T, t)
		c.A = append(c.A, a.Y[i])
		c.B = append(c.B, b.Y[j])
		c.Difference = append(c.Difference, diff)
		if diff > 0 {
			c.MonthsHigher++
		}
	}
	if len(c.T) == 0 {
		return nil, fmt.Errorf("series share no months, %w", ErrNoData)
	}

	c.MeanDifference = stat.Mean(c.Difference, nil)
	c.Verdict = verdict(c.MeanDifference)
	return c, nil
}

func verdict(meanDiff float64) Verdict {
	switch {
	case meanDiff > VerdictThreshold:
		return VerdictHigher
	case meanDiff < -VerdictThreshold:
		return VerdictLower
	default:
		return VerdictAligned
	}
}

// ShareHigher is the fraction of compared months where a exceeded b
func (c *Comparison) ShareHigher() float64 {
	if c == nil || len(c.T) == 0 {
		return math.NaN()
	}
	return float64(c.MonthsHigher) / float64(len(c.T))
}

// Tail returns the last n compared months
func (c *Comparison) Tail(n int) *Comparison {
	if c == nil {
		return nil
	}
	start := max(len(c.T)-n, 0)
	out := *c
	out.T = c.T[start:]
	out.A = c.A[start:]
	out.B = c.B[start:]
	out.Difference = c.Difference[start:]
	return &out
}

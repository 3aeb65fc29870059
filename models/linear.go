package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearTrend fits a straight line against the point index 0..n-1 of a series. A single point
// produces a flat line through it.
type LinearTrend struct {
	n         int
	intercept float64
	slope     float64
	fitted    []float64

	// nil for a single point fit
	ols *OLSRegression
}

// NewLinearTrend returns an unfit linear trend model
func NewLinearTrend() *LinearTrend {
	return &LinearTrend{}
}

// indexMatrix is the single column design matrix start, start+1, ..., start+count-1
func indexMatrix(start, count int) *mat.Dense {
	x := mat.NewDense(count, 1, nil)
	for i := 0; i < count; i++ {
		x.Set(i, 0, float64(start+i))
	}
	return x
}

// Fit computes the least squares line through y using the point index as the regressor
func (l *LinearTrend) Fit(y []float64) error {
	n := len(y)
	switch n {
	case 0:
		return fmt.Errorf("linear trend needs at least one point, %w", ErrInsufficientData)
	case 1:
		l.intercept = y[0]
		l.slope = 0
		l.ols = nil
	default:
		yMx := mat.NewDense(n, 1, append([]float64(nil), y...))

		ols, err := NewOLSRegression(NewDefaultOLSOptions())
		if err != nil {
			return err
		}
		if err := ols.Fit(indexMatrix(0, n), yMx); err != nil {
			return fmt.Errorf("unable to fit linear trend, %w", err)
		}
		l.intercept = ols.Intercept()
		l.slope = ols.Coef()[0]
		l.ols = ols
	}

	l.n = n
	fitted, err := l.predict(0, n)
	if err != nil {
		l.n = 0
		return fmt.Errorf("unable to compute fitted line, %w", err)
	}
	l.fitted = fitted
	return nil
}

// predict evaluates the line at count indices beginning at start
func (l *LinearTrend) predict(start, count int) ([]float64, error) {
	if count == 0 {
		return []float64{}, nil
	}
	if l.ols == nil {
		res := make([]float64, count)
		for i := range res {
			res[i] = l.intercept
		}
		return res, nil
	}
	return l.ols.Predict(indexMatrix(start, count))
}

// Fitted returns the in-sample values of the line
func (l *LinearTrend) Fitted() []float64 {
	res := make([]float64, len(l.fitted))
	copy(res, l.fitted)
	return res
}

// Forecast extends the line past the last fitted index
func (l *LinearTrend) Forecast(horizon int) ([]float64, error) {
	if l.n == 0 {
		return nil, ErrUnfitModel
	}
	if horizon < 0 {
		return nil, ErrNegativeHorizon
	}
	return l.predict(l.n, horizon)
}

// Intercept is the value of the line at index 0
func (l *LinearTrend) Intercept() float64 {
	return l.intercept
}

// Slope is the change per point
func (l *LinearTrend) Slope() float64 {
	return l.slope
}

func (l *LinearTrend) Params() map[string]float64 {
	return map[string]float64{
		"intercept": l.intercept,
		"slope":     l.slope,
	}
}

package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-macroforecast/floatsunrolled"
	"gonum.org/v1/gonum/stat"
)

var ErrResLenMismatch = errors.New("predicted and actual have different lengths")

// Scores tracks the in-sample fit quality of a series model
type Scores struct {
	MSE  float64 `json:"mean_squared_error"`
	RMSE float64 `json:"root_mean_squared_error"`
	MAE  float64 `json:"mean_absolute_error"`
	MAPE float64 `json:"mean_average_percent_error"`
	R2   float64 `json:"r_squared"`
}

// NewScores calculates the fit scores given the predicted and actual input slice values. Pairs where
// either side is NaN are skipped.
func NewScores(predicted, actual []float64) (*Scores, error) {
	p, a, err := validPairs(predicted, actual)
	if err != nil {
		return nil, err
	}
	if len(a) == 0 {
		return &Scores{}, nil
	}

	mse := finite(MSE(p, a))
	return &Scores{
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		MAE:  finite(MAE(p, a)),
		MAPE: finite(MAPE(p, a)),
		R2:   RSquared(p, a),
	}, nil
}

// finite saturates overflowed scores at the largest float
func finite(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.Copysign(math.MaxFloat64, v)
	}
	return v
}

func validPairs(predicted, actual []float64) ([]float64, []float64, error) {
	if len(predicted) != len(actual) {
		return nil, nil, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	p := make([]float64, 0, len(predicted))
	a := make([]float64, 0, len(actual))
	for i := range actual {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		p = append(p, predicted[i])
		a = append(a, actual[i])
	}
	return p, a, nil
}

// MSE computes the mean squared error. A score of 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) float64 {
	return floatsunrolled.SumSquares(floatsunrolled.SubTo(nil, actual, predicted)) / float64(len(actual))
}

// MAE computes the mean absolute error
func MAE(predicted, actual []float64) float64 {
	mae := 0.0
	for i := range actual {
		mae += math.Abs(actual[i] - predicted[i])
	}
	return mae / float64(len(actual))
}

// MAPE calculates the mean average percent error, skipping zero actuals
func MAPE(predicted, actual []float64) float64 {
	mape := 0.0
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		mape += math.Abs((actual[i] - predicted[i]) / actual[i])
	}
	return mape / float64(len(actual))
}

// RSquared computes the r squared value between the predicted and actual where 1.0 means perfect
// fit. A constant actual series scores 1 when matched exactly and 0 otherwise.
func RSquared(predicted, actual []float64) float64 {
	r2 := stat.RSquaredFrom(predicted, actual, nil)
	switch {
	case math.IsNaN(r2):
		return 1.0
	case math.IsInf(r2, 0):
		return 0.0
	}
	return r2
}

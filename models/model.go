// Package models is a collection of fitting implementations used by the forecaster. OLS works on a
// design matrix while series models work directly on an ordered slice of observations.
package models

// SeriesModel is fit on an ordered series of equally weighted observations and extrapolates
// past the last one.
type SeriesModel interface {
	Fit(y []float64) error
	Fitted() []float64
	Forecast(horizon int) ([]float64, error)
	Params() map[string]float64
}

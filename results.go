package forecaster

import (
	"math"
	"time"

	"github.com/aouyang1/go-macroforecast/models"
	"github.com/goccy/go-json"
)

// ModelType labels which strategy produced a forecast
type ModelType string

const (
	ModelDampedTrend ModelType = "DAMPED_TREND"

	// ModelLinearFallback labels least squares line forecasts, including the all NoData result of
	// an empty series
	ModelLinearFallback ModelType = "LINEAR_FALLBACK"
)

// NoData is the sentinel estimate used when there is nothing to forecast from
var NoData = math.NaN()

// IsNoData reports whether v is the missing value sentinel
func IsNoData(v float64) bool {
	return math.IsNaN(v)
}

// Results is a forecast over a fixed horizon. The time, forecast, upper and lower slices are
// parallel and ordered by time.
type Results struct {
	Model    ModelType   `json:"model"`
	Horizon  int         `json:"horizon"`
	T        []time.Time `json:"time"`
	Forecast []float64   `json:"forecast"`
	Upper    []float64   `json:"upper"`
	Lower    []float64   `json:"lower"`

	// Sigma is the sample standard deviation of the in-sample residuals
	Sigma  float64            `json:"sigma"`
	Params map[string]float64 `json:"params,omitempty"`
	Scores *models.Scores     `json:"scores,omitempty"`
}

// Point is a single forecast step
type Point struct {
	T        time.Time `json:"time"`
	Estimate float64   `json:"estimate"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
}

// Points returns the forecast as ordered (time, estimate, lower, upper) tuples
func (r *Results) Points() []Point {
	if r == nil {
		return nil
	}
	pts := make([]Point, len(r.T))
	for i := range r.T {
		pts[i] = Point{
			T:        r.T[i],
			Estimate: r.Forecast[i],
			Lower:    r.Lower[i],
			Upper:    r.Upper[i],
		}
	}
	return pts
}

// Truncate returns a copy holding only the steps at or before limit. A zero limit keeps every step.
func (r *Results) Truncate(limit time.Time) *Results {
	if r == nil {
		return nil
	}
	n := len(r.T)
	if !limit.IsZero() {
		for n > 0 && r.T[n-1].After(limit) {
			n--
		}
	}

	res := *r
	res.T = append([]time.Time{}, r.T[:n]...)
	res.Forecast = append([]float64{}, r.Forecast[:n]...)
	res.Upper = append([]float64{}, r.Upper[:n]...)
	res.Lower = append([]float64{}, r.Lower[:n]...)
	if r.Params != nil {
		res.Params = make(map[string]float64, len(r.Params))
		for k, v := range r.Params {
			res.Params[k] = v
		}
	}
	return &res
}

func nullable(vals []float64) []*float64 {
	res := make([]*float64, len(vals))
	for i, v := range vals {
		if IsNoData(v) || math.IsInf(v, 0) {
			continue
		}
		val := v
		res[i] = &val
	}
	return res
}

// MarshalJSON writes missing estimates and bounds as null
func (r Results) MarshalJSON() ([]byte, error) {
	type results struct {
		Model    ModelType          `json:"model"`
		Horizon  int                `json:"horizon"`
		T        []time.Time        `json:"time"`
		Forecast []*float64         `json:"forecast"`
		Upper    []*float64         `json:"upper"`
		Lower    []*float64         `json:"lower"`
		Sigma    float64            `json:"sigma"`
		Params   map[string]float64 `json:"params,omitempty"`
		Scores   *models.Scores     `json:"scores,omitempty"`
	}
	return json.Marshal(results{
		Model:    r.Model,
		Horizon:  r.Horizon,
		T:        r.T,
		Forecast: nullable(r.Forecast),
		Upper:    nullable(r.Upper),
		Lower:    nullable(r.Lower),
		Sigma:    r.Sigma,
		Params:   r.Params,
		Scores:   r.Scores,
	})
}

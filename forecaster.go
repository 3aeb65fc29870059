// Package forecaster produces short horizon monthly forecasts with uncertainty bands from a prepared
// series. A damped trend exponential smoothing model is tried first and a least squares line over
// the point index is used whenever the series is too short or the fit is unstable.
package forecaster

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-macroforecast/floatsunrolled"
	"github.com/aouyang1/go-macroforecast/models"
	"github.com/aouyang1/go-macroforecast/timedataset"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInvalidHorizon is the caller facing fault; data problems are absorbed by the fallback
	ErrInvalidHorizon = errors.New("forecast horizon must be at least 1")
	ErrNotFit         = errors.New("forecaster has not been fit")
)

// Forecaster fits a single prepared series and extrapolates it
type Forecaster struct {
	opt *Options

	td        *timedataset.TimeDataset
	model     models.SeriesModel
	modelType ModelType
	fitted    []float64
	residuals []float64
	sigma     float64
	isFit     bool
}

// New creates a forecaster with validated options
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Forecaster{opt: opt}, nil
}

// Forecast fits the prepared series and returns horizon monthly estimates with bounds. An empty
// series produces a full horizon of NoData estimates rather than an error.
func Forecast(td *timedataset.TimeDataset, horizon int, opt *Options) (*Results, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("got %d, %w", horizon, ErrInvalidHorizon)
	}
	f, err := New(opt)
	if err != nil {
		return nil, err
	}
	if err := f.Fit(td); err != nil {
		return nil, err
	}
	return f.Predict(horizon)
}

// Fit selects and fits a model on the series values. The dataset is copied without missing or
// infinite values and never modified.
func (f *Forecaster) Fit(td *timedataset.TimeDataset) error {
	if td == nil {
		td = &timedataset.TimeDataset{}
	}
	td = td.DropNan()

	f.td = td
	f.model = nil
	f.modelType = ModelLinearFallback
	f.fitted = nil
	f.residuals = nil
	f.sigma = 0
	f.isFit = true

	if td.Len() == 0 {
		return nil
	}

	primary, err := models.NewDampedHolt(f.opt.Holt)
	if err != nil {
		f.isFit = false
		return fmt.Errorf("unable to initialize damped trend model, %w", err)
	}
	chosen, err := selectModel(
		td.Y,
		strategy{model: primary, modelType: ModelDampedTrend},
		strategy{model: models.NewLinearTrend(), modelType: ModelLinearFallback},
	)
	if err != nil {
		f.isFit = false
		return err
	}
	f.model = chosen.model
	f.modelType = chosen.modelType
	f.fitted = chosen.model.Fitted()

	f.residuals = floatsunrolled.SubTo(nil, f.fitted, td.Y)
	if len(f.residuals) >= 2 {
		f.sigma = clampFinite(stat.StdDev(f.residuals, nil))
	}
	return nil
}

// strategy pairs a series model with the label reported in the results
type strategy struct {
	model     models.SeriesModel
	modelType ModelType
}

// isRecoverable reports whether a primary model failure should be routed to the fallback
func isRecoverable(err error) bool {
	return errors.Is(err, models.ErrInsufficientData) || errors.Is(err, models.ErrNumericalInstability)
}

// selectModel fits the primary strategy and falls back only when the primary fit reports
// insufficient data or numerical instability. Any other failure is returned.
func selectModel(y []float64, primary, fallback strategy) (strategy, error) {
	err := primary.model.Fit(y)
	if err == nil {
		return primary, nil
	}
	if !isRecoverable(err) {
		return strategy{}, fmt.Errorf("unable to fit %s model, %w", primary.modelType, err)
	}

	if err := fallback.model.Fit(y); err != nil {
		return strategy{}, fmt.Errorf("unable to fit %s model after primary failure, %w", fallback.modelType, err)
	}
	return fallback, nil
}

// Predict extrapolates the fit series horizon months past the last observation
func (f *Forecaster) Predict(horizon int) (*Results, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("got %d, %w", horizon, ErrInvalidHorizon)
	}
	if !f.isFit {
		return nil, ErrNotFit
	}

	res := &Results{
		Model:    f.modelType,
		Horizon:  horizon,
		T:        timedataset.TimeSlice(f.td.T).NextMonths(horizon),
		Forecast: make([]float64, horizon),
		Upper:    make([]float64, horizon),
		Lower:    make([]float64, horizon),
		Sigma:    f.sigma,
	}

	if f.model == nil {
		for i := 0; i < horizon; i++ {
			res.Forecast[i] = NoData
			res.Upper[i] = NoData
			res.Lower[i] = NoData
		}
		return res, nil
	}

	estimates, err := f.model.Forecast(horizon)
	if err != nil {
		return nil, fmt.Errorf("unable to forecast from %s model, %w", f.modelType, err)
	}
	for i, est := range estimates {
		width := f.opt.Zscore * f.sigma * f.opt.Interval.factor(i+1)
		res.Forecast[i] = est
		res.Upper[i] = clampFinite(est + width)
		res.Lower[i] = clampFinite(est - width)
	}

	res.Params = f.model.Params()
	scores, err := models.NewScores(f.fitted, f.td.Y)
	if err != nil {
		return nil, fmt.Errorf("unable to score in-sample fit, %w", err)
	}
	res.Scores = scores
	return res, nil
}

// clampFinite saturates overflowed values at the largest finite float
func clampFinite(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

// ModelType returns the strategy chosen by the last fit
func (f *Forecaster) ModelType() ModelType {
	return f.modelType
}

// Fitted returns the in-sample fit values
func (f *Forecaster) Fitted() []float64 {
	return append([]float64(nil), f.fitted...)
}

// Residuals returns fitted minus observed for every training point
func (f *Forecaster) Residuals() []float64 {
	return append([]float64(nil), f.residuals...)
}

// TrainingData returns a copy of the series the forecaster was fit on
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	if f.td == nil {
		return nil
	}
	return f.td.Copy()
}

package forecaster

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-macroforecast/models"
)

// DefaultZscore gives a 95% band under normal residuals
const DefaultZscore = 1.96

var (
	ErrInvalidZscore   = errors.New("interval zscore must be non-negative")
	ErrUnknownInterval = errors.New("unknown interval growth")
)

// IntervalGrowth controls how the uncertainty band widens with the forecast step
type IntervalGrowth string

const (
	// IntervalConstant uses the same band width for every step
	IntervalConstant IntervalGrowth = "constant"

	// IntervalSqrtStep scales the band by the square root of the step number
	IntervalSqrtStep IntervalGrowth = "sqrt"
)

// factor returns the band multiplier for step h starting at 1
func (g IntervalGrowth) factor(h int) float64 {
	if g == IntervalSqrtStep {
		return math.Sqrt(float64(h))
	}
	return 1.0
}

// Options configures a forecast
type Options struct {
	// Holt configures the primary damped trend model including the minimum number of points
	// required before falling back to a linear trend
	Holt *models.HoltOptions `json:"holt"`

	// Zscore is the number of residual standard deviations between the estimate and each bound
	Zscore float64 `json:"zscore"`

	Interval IntervalGrowth `json:"interval"`
}

// NewDefaultOptions returns estimated damped trend parameters with a constant 95% band
func NewDefaultOptions() *Options {
	return &Options{
		Holt:     models.NewDefaultHoltOptions(),
		Zscore:   DefaultZscore,
		Interval: IntervalConstant,
	}
}

// Validate fills in unset fields with defaults and checks the rest
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	opt := *o

	holt, err := opt.Holt.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid damped trend options, %w", err)
	}
	opt.Holt = holt

	if opt.Zscore == 0 {
		opt.Zscore = DefaultZscore
	}
	if opt.Zscore < 0 || math.IsNaN(opt.Zscore) {
		return nil, fmt.Errorf("got %.3f, %w", opt.Zscore, ErrInvalidZscore)
	}

	switch opt.Interval {
	case "":
		opt.Interval = IntervalConstant
	case IntervalConstant, IntervalSqrtStep:
	default:
		return nil, fmt.Errorf("got %q, %w", opt.Interval, ErrUnknownInterval)
	}
	return &opt, nil
}

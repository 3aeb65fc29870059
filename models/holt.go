package models

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

const (
	DefaultHoltMinPoints     = 8
	DefaultHoltInitPoints    = 10
	DefaultHoltMinPhi        = 0.8
	DefaultHoltMaxPhi        = 0.98
	DefaultHoltMaxIterations = 2000

	// keeps the logistic transform away from the open interval edges
	paramEps = 1e-4
)

var (
	ErrInvalidSmoothing = errors.New("smoothing parameter must be in (0, 1)")
	ErrInvalidDamping   = errors.New("damping parameter must be within the configured phi bounds")
	ErrInvalidPhiBounds = errors.New("phi bounds must satisfy 0 < min < max <= 1")
	ErrInvalidMinPoints = errors.New("minimum points must be at least 3")
	ErrInvalidInitPts   = errors.New("initialization points must be at least 2")
)

// HoltOptions configures the damped trend exponential smoothing model. Alpha, Beta and Phi are
// only used when all three are set, otherwise they are estimated from the data.
type HoltOptions struct {
	Alpha float64 `json:"alpha,omitempty"`
	Beta  float64 `json:"beta,omitempty"`
	Phi   float64 `json:"phi,omitempty"`

	MinPhi float64 `json:"min_phi"`
	MaxPhi float64 `json:"max_phi"`

	// MinPoints is the fewest observations the model will attempt to fit
	MinPoints int `json:"min_points"`

	// InitPoints is the number of leading observations used to seed the level and trend
	InitPoints int `json:"init_points"`

	MaxIterations int `json:"max_iterations"`
}

// NewDefaultHoltOptions returns the default damped trend options with estimated parameters
func NewDefaultHoltOptions() *HoltOptions {
	return &HoltOptions{
		MinPhi:        DefaultHoltMinPhi,
		MaxPhi:        DefaultHoltMaxPhi,
		MinPoints:     DefaultHoltMinPoints,
		InitPoints:    DefaultHoltInitPoints,
		MaxIterations: DefaultHoltMaxIterations,
	}
}

// Fixed reports whether the smoothing parameters were supplied rather than estimated
func (h *HoltOptions) Fixed() bool {
	return h.Alpha != 0 && h.Beta != 0 && h.Phi != 0
}

// Validate fills in defaults for unset fields and checks parameter bounds
func (h *HoltOptions) Validate() (*HoltOptions, error) {
	if h == nil {
		return NewDefaultHoltOptions(), nil
	}
	opt := *h
	if opt.MinPhi == 0 && opt.MaxPhi == 0 {
		opt.MinPhi = DefaultHoltMinPhi
		opt.MaxPhi = DefaultHoltMaxPhi
	}
	if opt.MinPoints == 0 {
		opt.MinPoints = DefaultHoltMinPoints
	}
	if opt.InitPoints == 0 {
		opt.InitPoints = DefaultHoltInitPoints
	}
	if opt.MaxIterations <= 0 {
		opt.MaxIterations = DefaultHoltMaxIterations
	}

	if opt.MinPhi <= 0 || opt.MaxPhi > 1 || opt.MinPhi >= opt.MaxPhi {
		return nil, fmt.Errorf("min phi %.3f, max phi %.3f, %w", opt.MinPhi, opt.MaxPhi, ErrInvalidPhiBounds)
	}
	if opt.MinPoints < 3 {
		return nil, fmt.Errorf("got %d, %w", opt.MinPoints, ErrInvalidMinPoints)
	}
	if opt.InitPoints < 2 {
		return nil, fmt.Errorf("got %d, %w", opt.InitPoints, ErrInvalidInitPts)
	}
	if opt.Fixed() {
		if opt.Alpha <= 0 || opt.Alpha >= 1 {
			return nil, fmt.Errorf("alpha %.3f, %w", opt.Alpha, ErrInvalidSmoothing)
		}
		if opt.Beta <= 0 || opt.Beta >= 1 {
			return nil, fmt.Errorf("beta %.3f, %w", opt.Beta, ErrInvalidSmoothing)
		}
		if opt.Phi < opt.MinPhi || opt.Phi > opt.MaxPhi {
			return nil, fmt.Errorf("phi %.3f, %w", opt.Phi, ErrInvalidDamping)
		}
	}
	return &opt, nil
}

// HoltParams are the fitted smoothing parameters and final states of a damped trend model
type HoltParams struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Phi   float64 `json:"phi"`
	Level float64 `json:"level"`
	Trend float64 `json:"trend"`
	SSE   float64 `json:"sse"`
}

// DampedHolt is additive error, additive damped trend exponential smoothing without seasonality.
//
//	yhat_t = l_{t-1} + phi*b_{t-1}
//	l_t    = yhat_t + alpha*e_t
//	b_t    = phi*b_{t-1} + alpha*beta*e_t
//
// Forecasts flatten out towards l_n + phi/(1-phi)*b_n as the horizon grows.
type DampedHolt struct {
	opt    *HoltOptions
	params HoltParams
	fitted []float64
	n      int
}

// NewDampedHolt initializes a damped trend model ready for fitting
func NewDampedHolt(opt *HoltOptions) (*DampedHolt, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &DampedHolt{opt: opt}, nil
}

// Fit estimates the smoothing parameters by minimizing the one step ahead squared error, which
// is the gaussian maximum likelihood estimate for a fixed initial state.
func (d *DampedHolt) Fit(y []float64) error {
	if d.opt == nil {
		return ErrNoOptions
	}
	n := len(y)
	if n < d.opt.MinPoints {
		return fmt.Errorf("got %d points but need at least %d, %w", n, d.opt.MinPoints, ErrInsufficientData)
	}
	for i, v := range y {
		if !isFinite(v) {
			return fmt.Errorf("non-finite value at index %d, %w", i, ErrNumericalInstability)
		}
	}

	level0, trend0, err := initialStates(y, d.opt.InitPoints)
	if err != nil {
		return err
	}

	alpha, beta, phi := d.opt.Alpha, d.opt.Beta, d.opt.Phi
	if !d.opt.Fixed() {
		alpha, beta, phi, err = d.estimate(y, level0, trend0)
		if err != nil {
			return err
		}
	}

	fitted, sse, level, trend := dampedFilter(y, alpha, beta, phi, level0, trend0)
	if !isFinite(sse) || !isFinite(level) || !isFinite(trend) {
		return fmt.Errorf("non-finite states after filtering, %w", ErrNumericalInstability)
	}

	d.params = HoltParams{
		Alpha: alpha,
		Beta:  beta,
		Phi:   phi,
		Level: level,
		Trend: trend,
		SSE:   sse,
	}
	d.fitted = fitted
	d.n = n
	return nil
}

func (d *DampedHolt) estimate(y []float64, level0, trend0 float64) (float64, float64, float64, error) {
	minPhi, maxPhi := d.opt.MinPhi, d.opt.MaxPhi
	unpack := func(x []float64) (float64, float64, float64) {
		alpha := boundedLogistic(x[0], paramEps, 1-paramEps)
		beta := boundedLogistic(x[1], paramEps, 1-paramEps)
		phi := boundedLogistic(x[2], minPhi, maxPhi)
		return alpha, beta, phi
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			alpha, beta, phi := unpack(x)
			_, sse, _, _ := dampedFilter(y, alpha, beta, phi, level0, trend0)
			if !isFinite(sse) {
				return math.MaxFloat64
			}
			return sse
		},
	}
	x0 := []float64{
		logit(0.5, paramEps, 1-paramEps),
		logit(0.1, paramEps, 1-paramEps),
		logit((minPhi+maxPhi)/2, minPhi, maxPhi),
	}
	settings := &optimize.Settings{
		MajorIterations: d.opt.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 100,
		},
	}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("unable to estimate smoothing parameters, %w, %w", ErrNumericalInstability, err)
	}
	if res == nil || !isFinite(res.F) || res.F == math.MaxFloat64 {
		return 0, 0, 0, fmt.Errorf("optimizer did not find a finite likelihood, %w", ErrNumericalInstability)
	}
	alpha, beta, phi := unpack(res.X)
	return alpha, beta, phi, nil
}

// Fitted returns the one step ahead in-sample predictions
func (d *DampedHolt) Fitted() []float64 {
	res := make([]float64, len(d.fitted))
	copy(res, d.fitted)
	return res
}

// Forecast returns l_n + (phi + phi^2 + ... + phi^h)*b_n for h in [1, horizon]
func (d *DampedHolt) Forecast(horizon int) ([]float64, error) {
	if d.n == 0 {
		return nil, ErrUnfitModel
	}
	if horizon < 0 {
		return nil, ErrNegativeHorizon
	}
	res := make([]float64, horizon)
	damp := 0.0
	phiPow := 1.0
	for i := range res {
		phiPow *= d.params.Phi
		damp += phiPow
		res[i] = d.params.Level + damp*d.params.Trend
	}
	return res, nil
}

// HoltParams returns the fitted parameters and final states
func (d *DampedHolt) HoltParams() HoltParams {
	return d.params
}

func (d *DampedHolt) Params() map[string]float64 {
	return map[string]float64{
		"alpha": d.params.Alpha,
		"beta":  d.params.Beta,
		"phi":   d.params.Phi,
		"level": d.params.Level,
		"trend": d.params.Trend,
	}
}

// dampedFilter runs the smoothing recursion and returns the one step ahead fits, the sum of squared
// errors and the final level and trend
func dampedFilter(y []float64, alpha, beta, phi, level, trend float64) ([]float64, float64, float64, float64) {
	fitted := make([]float64, len(y))
	sse := 0.0
	for i, v := range y {
		yhat := level + phi*trend
		e := v - yhat
		fitted[i] = yhat
		sse += e * e

		level = yhat + alpha*e
		trend = phi*trend + alpha*beta*e
	}
	return fitted, sse, level, trend
}

// initialStates places the level and trend one step before the first point on a least squares line
// through the leading points.
func initialStates(y []float64, initPoints int) (float64, float64, error) {
	k := min(len(y), initPoints)
	lt := NewLinearTrend()
	if err := lt.Fit(y[:k]); err != nil {
		return 0, 0, fmt.Errorf("unable to initialize level and trend, %w", err)
	}
	return lt.Intercept() - lt.Slope(), lt.Slope(), nil
}

func boundedLogistic(x, lo, hi float64) float64 {
	return lo + (hi-lo)/(1+math.Exp(-x))
}

func logit(v, lo, hi float64) float64 {
	p := (v - lo) / (hi - lo)
	return math.Log(p / (1 - p))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

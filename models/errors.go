package models

import (
	"errors"
)

var (
	ErrNoOptions          = errors.New("no initialized model options")
	ErrTargetLenMismatch  = errors.New("target length does not match target rows")
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrNoTargetMatrix     = errors.New("no target matrix")
	ErrNoDesignMatrix     = errors.New("no design matrix for inference")
	ErrFeatureLenMismatch = errors.New("number of features does not match number of model coefficients")
	ErrUnfitModel         = errors.New("model has not been fit")
	ErrNegativeHorizon    = errors.New("negative forecast horizon")

	// ErrInsufficientData is returned when a model is given fewer points than it needs to produce
	// a meaningful fit.
	ErrInsufficientData = errors.New("insufficient data to fit model")

	// ErrNumericalInstability is returned when a fit diverges, fails to converge or produces
	// non-finite parameters.
	ErrNumericalInstability = errors.New("model fit is numerically unstable")
)

package forecaster

import (
	"testing"

	"github.com/aouyang1/go-macroforecast/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *Options
		expected *Options
		err      error
	}{
		"nil": {
			expected: NewDefaultOptions(),
		},
		"zero value": {
			opt:      &Options{},
			expected: NewDefaultOptions(),
		},
		"sqrt growth": {
			opt: &Options{Zscore: 1.645, Interval: IntervalSqrtStep},
			expected: &Options{
				Holt:     models.NewDefaultHoltOptions(),
				Zscore:   1.645,
				Interval: IntervalSqrtStep,
			},
		},
		"negative zscore": {
			opt: &Options{Zscore: -1},
			err: ErrInvalidZscore,
		},
		"unknown interval": {
			opt: &Options{Interval: "linear"},
			err: ErrUnknownInterval,
		},
		"invalid holt": {
			opt: &Options{Holt: &models.HoltOptions{MinPoints: 1}},
			err: models.ErrInvalidMinPoints,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestIntervalGrowthFactor(t *testing.T) {
	assert.Equal(t, 1.0, IntervalConstant.factor(9))
	assert.Equal(t, 3.0, IntervalSqrtStep.factor(9))
}

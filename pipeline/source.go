package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/aouyang1/go-macroforecast/config"
	"github.com/aouyang1/go-macroforecast/eurostat"
	"github.com/aouyang1/go-macroforecast/fred"
	"github.com/aouyang1/go-macroforecast/timedataset"
)

// Source fetches the raw observations of an indicator for a region starting at since
type Source interface {
	Name() string
	Fetch(ctx context.Context, region string, ind Indicator, since time.Time) ([]timedataset.Observation, error)
}

// Sources routes indicator kinds to the source serving them
type Sources map[string]Source

// NewSources wires the Eurostat and FRED clients, or only the sample series when offline
func NewSources(cfg *config.Config) Sources {
	if cfg.Offline {
		return Sources{KindHICP: SampleSource{}}
	}
	es := &EurostatSource{Client: eurostat.NewClient(eurostat.ClientOptions{
		BaseURL:        cfg.EurostatBaseURL,
		RequestTimeout: cfg.RequestTimeout,
		RequestsPerSec: cfg.RequestsPerSec,
	})}
	return Sources{
		KindHICP: es,
		KindECB:  es,
		KindFed: &FredSource{Client: fred.NewClient(fred.ClientOptions{
			BaseURL:        cfg.FredBaseURL,
			RequestTimeout: cfg.RequestTimeout,
			RequestsPerSec: cfg.RequestsPerSec,
		})},
	}
}

// EurostatSource serves HICP rates of change and ECB key rates
type EurostatSource struct {
	Client *eurostat.Client
}

func (s *EurostatSource) Name() string {
	return "eurostat"
}

func (s *EurostatSource) Fetch(ctx context.Context, region string, ind Indicator, since time.Time) ([]timedataset.Observation, error) {
	switch ind.Kind {
	case KindHICP:
		return s.Client.HICP(ctx, region, ind.Code, since)
	case KindECB:
		return s.Client.InterestRate(ctx, ind.Region(), ind.Code, since)
	}
	return nil, fmt.Errorf("%s from %s, %w", ind, s.Name(), ErrUnsupportedIndicator)
}

// FredSource serves monthly means of daily FRED series
type FredSource struct {
	Client *fred.Client
}

func (s *FredSource) Name() string {
	return "fred"
}

func (s *FredSource) Fetch(ctx context.Context, region string, ind Indicator, since time.Time) ([]timedataset.Observation, error) {
	if ind.Kind != KindFed {
		return nil, fmt.Errorf("%s from %s, %w", ind, s.Name(), ErrUnsupportedIndicator)
	}
	return s.Client.Monthly(ctx, ind.Code, since)
}

// SampleSource serves the deterministic demonstration HICP series
type SampleSource struct{}

func (SampleSource) Name() string {
	return "sample"
}

func (s SampleSource) Fetch(_ context.Context, region string, ind Indicator, since time.Time) ([]timedataset.Observation, error) {
	if ind.Kind != KindHICP {
		return nil, fmt.Errorf("%s from %s, %w", ind, s.Name(), ErrUnsupportedIndicator)
	}
	obs := eurostat.SampleHICP(region, ind.Code)
	out := obs[:0]
	for _, o := range obs {
		if !o.T.Before(timedataset.MonthStart(since)) {
			out = append(out, o)
		}
	}
	return out, nil
}

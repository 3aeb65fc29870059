// Package pipeline fetches, caches and prepares the configured series and assembles the report
// consumed by the text, chart and web outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	forecaster "github.com/aouyang1/go-macroforecast"
	"github.com/aouyang1/go-macroforecast/cache"
	"github.com/aouyang1/go-macroforecast/config"
	"github.com/aouyang1/go-macroforecast/eurostat"
	"github.com/aouyang1/go-macroforecast/metrics"
	"github.com/aouyang1/go-macroforecast/stats"
	"github.com/aouyang1/go-macroforecast/timedataset"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoConfig      = errors.New("no pipeline config")
	ErrInvalidWindow = errors.New("series window must not be negative")
)

// Options holds the collaborators of a Pipeline. Unset fields get defaults built from the config.
type Options struct {
	Sources Sources
	Cache   *cache.Cache
	Metrics *metrics.Exporter
	Now     func() time.Time
}

// Pipeline turns configured indicators into prepared series, forecasts and reports
type Pipeline struct {
	cfg      *config.Config
	sources  Sources
	fallback Source
	cache    *cache.Cache
	metrics  *metrics.Exporter
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates a pipeline over a validated copy of cfg
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		return nil, ErrNoConfig
	}
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline config, %w", err)
	}
	if opts.Sources == nil {
		opts.Sources = NewSources(cfg)
	}
	if opts.Cache == nil {
		opts.Cache = cache.New(cfg.CacheTTL)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		cfg:      cfg,
		sources:  opts.Sources,
		fallback: SampleSource{},
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		now:      opts.Now,
		logger:   log.With().Str("component", "pipeline").Logger(),
	}, nil
}

// Config returns the validated configuration
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

// WithConfig returns a pipeline over another configuration sharing sources, cache and metrics
func (p *Pipeline) WithConfig(cfg *config.Config) (*Pipeline, error) {
	return New(cfg, Options{
		Sources: p.sources,
		Cache:   p.cache,
		Metrics: p.metrics,
		Now:     p.now,
	})
}

// Invalidate drops every cached series so the next request refetches
func (p *Pipeline) Invalidate() {
	p.cache.Purge()
}

// Series returns the cleaned history of an indicator since the historical start. A positive window
// keeps only the trailing window prepared for forecasting.
func (p *Pipeline) Series(ctx context.Context, region, indicator string, window int) (*timedataset.TimeDataset, error) {
	ind, err := ParseIndicator(indicator)
	if err != nil {
		return nil, err
	}
	td, _, err := p.series(ctx, region, ind, window)
	return td, err
}

func (p *Pipeline) series(ctx context.Context, region string, ind Indicator, window int) (*timedataset.TimeDataset, string, error) {
	if window < 0 {
		return nil, "", fmt.Errorf("got %d, %w", window, ErrInvalidWindow)
	}
	if r := ind.Region(); r != "" {
		region = r
	}

	key := cache.Key{Region: region, Indicator: ind.String(), Window: window}
	if td, ok := p.cache.Get(key); ok {
		p.metrics.RecordCacheHit()
		return td, p.sourceName(ind), nil
	}
	p.metrics.RecordCacheMiss()

	obs, origin, fellBack, err := p.fetch(ctx, region, ind)
	if err != nil {
		return nil, "", err
	}
	td := timedataset.Clean(obs).Since(p.cfg.HistoricalStart.Time)
	if window > 0 {
		td, err = timedataset.Prepare(td.Observations(), window)
		if err != nil {
			return nil, "", err
		}
	}
	if !fellBack {
		p.cache.Set(key, td)
	}
	return td, origin, nil
}

func (p *Pipeline) sourceName(ind Indicator) string {
	if src, ok := p.sources[ind.Kind]; ok {
		return src.Name()
	}
	return ""
}

// fetch downloads raw observations. HICP failures fall back to the sample series and rate failures
// to an empty series so one unreachable upstream never fails the whole report.
func (p *Pipeline) fetch(ctx context.Context, region string, ind Indicator) ([]timedataset.Observation, string, bool, error) {
	since := p.cfg.HistoricalStart.Time
	src, ok := p.sources[ind.Kind]

	var obs []timedataset.Observation
	err := fmt.Errorf("no source for %s, %w", ind.Kind, ErrUnsupportedIndicator)
	if ok {
		obs, err = src.Fetch(ctx, region, ind, since)
		if err == nil {
			p.metrics.RecordFetch(src.Name(), metrics.ResultSuccess)
			return obs, src.Name(), false, nil
		}
		p.metrics.RecordFetch(src.Name(), metrics.ResultFailure)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, "", false, ctxErr
	}

	if ind.Kind == KindHICP {
		p.logger.Warn().Err(err).
			Str("region", region).
			Str("indicator", ind.String()).
			Msg("using sample series")
		obs, err = p.fallback.Fetch(ctx, region, ind, since)
		if err != nil {
			return nil, "", false, err
		}
		p.metrics.RecordFetch(p.fallback.Name(), metrics.ResultFallback)
		return obs, p.fallback.Name(), true, nil
	}

	p.logger.Warn().Err(err).
		Str("region", region).
		Str("indicator", ind.String()).
		Msg("series unavailable")
	return nil, "", true, nil
}

// Forecast fits the trailing training window of an indicator and extrapolates it. A zero horizon
// uses the configured number of forecast months.
func (p *Pipeline) Forecast(ctx context.Context, region, indicator string, horizon int) (*forecaster.Results, error) {
	ind, err := ParseIndicator(indicator)
	if err != nil {
		return nil, err
	}
	return p.forecast(ctx, region, ind, horizon)
}

func (p *Pipeline) forecast(ctx context.Context, region string, ind Indicator, horizon int) (*forecaster.Results, error) {
	if horizon == 0 {
		horizon = p.cfg.ForecastMonths
	}
	td, _, err := p.series(ctx, region, ind, p.cfg.TrainingWindow)
	if err != nil {
		return nil, err
	}
	res, err := forecaster.Forecast(td, horizon, p.cfg.ForecastOptions())
	if err != nil {
		return nil, err
	}
	p.metrics.RecordForecast(string(res.Model))
	evt := p.logger.Debug()
	if gaps := timedataset.TimeSlice(td.T).Gaps(); gaps > 0 {
		evt = p.logger.Warn().Int("missing_months", gaps)
	}
	evt.Str("region", region).
		Str("indicator", ind.String()).
		Str("model", string(res.Model)).
		Int("points", td.Len()).
		Msg("forecast")
	return res, nil
}

// Run fetches every configured series and assembles the report
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	ind, err := ParseIndicator(p.cfg.Indicator)
	if err != nil {
		return nil, err
	}
	start := p.now()
	rep := &Report{
		GeneratedAt: start.UTC(),
		Config:      p.cfg,
		Indicator:   ind,
	}

	for _, region := range p.cfg.Countries {
		rr, err := p.region(ctx, region, ind)
		if err != nil {
			return nil, fmt.Errorf("unable to build %s report, %w", region, err)
		}
		rep.Regions = append(rep.Regions, rr)
	}

	for _, s := range p.cfg.RateIndicators {
		rind, err := ParseIndicator(s)
		if err != nil {
			return nil, err
		}
		td, _, err := p.series(ctx, "", rind, 0)
		if err != nil {
			return nil, fmt.Errorf("unable to load %s, %w", rind, err)
		}
		rep.Rates = append(rep.Rates, &RateSeries{
			Indicator: rind,
			Name:      rind.Name(),
			Series:    td,
		})
	}

	rep.compare(p.cfg.AnalysisStart.Time)
	rep.annotate()

	p.metrics.RecordRefresh(p.now())
	p.logger.Info().
		Int("regions", len(rep.Regions)).
		Int("rates", len(rep.Rates)).
		Dur("took", p.now().Sub(start)).
		Msg("report assembled")
	return rep, nil
}

func (p *Pipeline) region(ctx context.Context, region string, ind Indicator) (*RegionReport, error) {
	history, origin, err := p.series(ctx, region, ind, 0)
	if err != nil {
		return nil, err
	}
	rr := &RegionReport{
		Region:  region,
		Name:    eurostat.RegionName(region),
		Source:  origin,
		History: history,

		MissingMonths: timedataset.TimeSlice(history.T).Gaps(),
	}

	analysis := p.cfg.AnalysisStart.Time
	if rr.Summary, err = stats.Summarize(history, analysis); err != nil {
		p.logger.Warn().Err(err).Str("region", region).Msg("no statistics")
	}
	if rr.Extremes, err = stats.FindExtremes(history); err != nil {
		p.logger.Warn().Err(err).Str("region", region).Msg("no extremes")
	}

	if rr.Forecast, err = p.forecast(ctx, region, ind, 0); err != nil {
		return nil, err
	}

	if ind.Kind != KindHICP {
		return rr, nil
	}
	rr.Components = make(map[string]*timedataset.TimeDataset)
	for _, cat := range p.cfg.Categories {
		cind := Indicator{Kind: KindHICP, Code: cat}
		td, _, err := p.series(ctx, region, cind, 0)
		if err != nil {
			return nil, err
		}
		rr.Components[cat] = td.Since(analysis)
	}
	return rr, nil
}

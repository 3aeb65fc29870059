package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	forecaster "github.com/aouyang1/go-macroforecast"
	"github.com/aouyang1/go-macroforecast/cache"
	"github.com/aouyang1/go-macroforecast/config"
	"github.com/aouyang1/go-macroforecast/metrics"
	"github.com/aouyang1/go-macroforecast/stats"
	"github.com/aouyang1/go-macroforecast/timedataset"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream unavailable")

type fakeSource struct {
	name string
	data map[string][]timedataset.Observation
	err  error

	mu    sync.Mutex
	calls []string
}

func (f *fakeSource) Name() string {
	return f.name
}

func (f *fakeSource) Fetch(_ context.Context, region string, ind Indicator, _ time.Time) ([]timedataset.Observation, error) {
	f.mu.Lock()
	f.calls = append(f.calls, region+"/"+ind.String())
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.data[region+"/"+ind.String()], nil
}

func (f *fakeSource) numCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func linearObs(n int, start time.Time, intercept, slope float64) []timedataset.Observation {
	months := timedataset.GenerateMonths(n, start)
	return timedataset.GenerateLinearY(n, intercept, slope).Observations(months)
}

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func newTestPipeline(t *testing.T, cfg *config.Config, sources Sources) (*Pipeline, *metrics.Exporter) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	exporter := metrics.NewExporter(prometheus.NewRegistry())
	p, err := New(cfg, Options{
		Sources: sources,
		Cache:   cache.New(time.Hour),
		Metrics: exporter,
		Now:     func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return p, exporter
}

func TestParseIndicator(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected Indicator
		err      error
	}{
		"hicp":         {input: "hicp:CP00", expected: Indicator{Kind: KindHICP, Code: "CP00"}},
		"normalized":   {input: " ECB:dfr ", expected: Indicator{Kind: KindECB, Code: "DFR"}},
		"fed":          {input: "fed:DFF", expected: Indicator{Kind: KindFed, Code: "DFF"}},
		"missing code": {input: "hicp:", err: ErrInvalidIndicator},
		"no separator": {input: "CP00", err: ErrInvalidIndicator},
		"unknown kind": {input: "imf:CPI", err: ErrUnsupportedIndicator},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ind, err := ParseIndicator(td.input)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, ind)
		})
	}
}

func TestIndicatorNames(t *testing.T) {
	assert.Equal(t, "Energy", Indicator{Kind: KindHICP, Code: "NRG"}.Name())
	assert.Equal(t, "ECB Main refinancing rate", Indicator{Kind: KindECB, Code: "MRR_RT"}.Name())
	assert.Equal(t, "Fed funds effective rate", Indicator{Kind: KindFed, Code: "DFF"}.Name())
	assert.Equal(t, "EA", Indicator{Kind: KindECB, Code: "DFR"}.Region())
	assert.Equal(t, "", Indicator{Kind: KindHICP, Code: "CP00"}.Region())
}

func TestSeriesCaching(t *testing.T) {
	src := &fakeSource{
		name: "eurostat",
		data: map[string][]timedataset.Observation{
			"AT/hicp:CP00": linearObs(36, month(2021, 1), 1, 0.1),
		},
	}
	p, exporter := newTestPipeline(t, nil, Sources{KindHICP: src})
	ctx := context.Background()

	full, err := p.Series(ctx, "AT", "hicp:CP00", 0)
	require.NoError(t, err)
	assert.Equal(t, 36, full.Len())

	again, err := p.Series(ctx, "AT", "hicp:CP00", 0)
	require.NoError(t, err)
	assert.Equal(t, full, again)
	assert.Equal(t, 1, src.numCalls())

	window, err := p.Series(ctx, "AT", "hicp:CP00", 24)
	require.NoError(t, err)
	assert.Equal(t, 24, window.Len())
	assert.Equal(t, full.T[12:], window.T)
	assert.Equal(t, 2, src.numCalls())

	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.CacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.CacheRequests.WithLabelValues("miss")))

	p.Invalidate()
	_, err = p.Series(ctx, "AT", "hicp:CP00", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, src.numCalls())

	_, err = p.Series(ctx, "AT", "hicp:CP00", -1)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	_, err = p.Series(ctx, "AT", "CP00", 0)
	assert.ErrorIs(t, err, ErrInvalidIndicator)
}

func TestSeriesHistoricalStart(t *testing.T) {
	src := &fakeSource{
		name: "eurostat",
		data: map[string][]timedataset.Observation{
			"AT/hicp:CP00": linearObs(36, month(2000, 1), 1, 0.1),
		},
	}
	p, _ := newTestPipeline(t, nil, Sources{KindHICP: src})

	td, err := p.Series(context.Background(), "AT", "hicp:CP00", 0)
	require.NoError(t, err)
	assert.Equal(t, 12, td.Len())
	assert.Equal(t, month(2002, 1), td.T[0])
}

func TestSeriesFallbacks(t *testing.T) {
	failing := &fakeSource{name: "eurostat", err: errUpstream}
	p, exporter := newTestPipeline(t, nil, Sources{KindHICP: failing, KindECB: failing})
	ctx := context.Background()

	hicp, origin, err := p.series(ctx, "AT", Indicator{Kind: KindHICP, Code: "CP00"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "sample", origin)
	assert.Equal(t, 34, hicp.Len())

	// fallbacks are not cached
	_, _, err = p.series(ctx, "AT", Indicator{Kind: KindHICP, Code: "CP00"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, failing.numCalls())

	rates, err := p.Series(ctx, "", "ecb:DFR", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, rates.Len())

	// no fed source configured
	fed, err := p.Series(ctx, "", "fed:DFF", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, fed.Len())

	assert.Equal(t, 3.0, testutil.ToFloat64(exporter.Fetches.WithLabelValues("eurostat", metrics.ResultFailure)))
	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.Fetches.WithLabelValues("sample", metrics.ResultFallback)))
}

func TestSeriesCanceled(t *testing.T) {
	failing := &fakeSource{name: "eurostat", err: context.Canceled}
	p, _ := newTestPipeline(t, nil, Sources{KindHICP: failing})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Series(ctx, "AT", "hicp:CP00", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineForecast(t *testing.T) {
	src := &fakeSource{
		name: "eurostat",
		data: map[string][]timedataset.Observation{
			"AT/hicp:CP00": linearObs(12, month(2023, 1), 2.5, 0),
			"DE/hicp:CP00": linearObs(2, month(2024, 1), 3, 1),
		},
	}
	p, exporter := newTestPipeline(t, nil, Sources{KindHICP: src})
	ctx := context.Background()

	res, err := p.Forecast(ctx, "AT", "hicp:CP00", 0)
	require.NoError(t, err)
	assert.Equal(t, forecaster.ModelDampedTrend, res.Model)
	require.Len(t, res.Forecast, 12)
	assert.Equal(t, month(2024, 1), res.T[0])
	for _, v := range res.Forecast {
		assert.InDelta(t, 2.5, v, 1e-6)
	}

	res, err = p.Forecast(ctx, "DE", "hicp:CP00", 2)
	require.NoError(t, err)
	assert.Equal(t, forecaster.ModelLinearFallback, res.Model)
	assert.InDeltaSlice(t, []float64{5, 6}, res.Forecast, 1e-9)

	_, err = p.Forecast(ctx, "DE", "hicp:CP00", -1)
	assert.ErrorIs(t, err, forecaster.ErrInvalidHorizon)

	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.Forecasts.WithLabelValues(string(forecaster.ModelDampedTrend))))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.Forecasts.WithLabelValues(string(forecaster.ModelLinearFallback))))
}

func TestRun(t *testing.T) {
	cfg := config.Default()
	cfg.Categories = []string{"CP00", "NRG"}
	cfg.RateIndicators = []string{"ecb:DFR", "fed:DFF"}
	cfg.Countries = []string{"AT", "EA20"}

	es := &fakeSource{
		name: "eurostat",
		data: map[string][]timedataset.Observation{
			"AT/hicp:CP00":   linearObs(48, month(2020, 1), 3, 0),
			"AT/hicp:NRG":    linearObs(48, month(2020, 1), 5, 0.1),
			"EA20/hicp:CP00": linearObs(48, month(2020, 1), 2.5, 0),
			"EA20/hicp:NRG":  linearObs(48, month(2020, 1), 4, 0.1),
			"EA/ecb:DFR":     linearObs(48, month(2020, 1), -0.5, 0.05),
		},
	}
	fed := &fakeSource{
		name: "fred",
		data: map[string][]timedataset.Observation{
			"US/fed:DFF": linearObs(48, month(2020, 1), 0.1, 0.1),
		},
	}
	p, exporter := newTestPipeline(t, cfg, Sources{KindHICP: es, KindECB: es, KindFed: fed})

	rep, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Regions, 2)
	at := rep.Region("AT")
	require.NotNil(t, at)
	assert.Equal(t, "Austria", at.Name)
	assert.Equal(t, "eurostat", at.Source)
	assert.Equal(t, 48, at.History.Len())
	assert.Equal(t, 0, at.MissingMonths)
	require.NotNil(t, at.Summary)
	assert.InDelta(t, 3.0, at.Summary.Mean, 1e-9)
	require.NotNil(t, at.Extremes)
	require.NotNil(t, at.Forecast)
	assert.Len(t, at.Forecast.Forecast, 12)
	assert.Len(t, at.Components, 2)
	assert.Equal(t, 48, at.Components["NRG"].Len())

	require.NotNil(t, rep.Comparison)
	assert.Equal(t, "AT", rep.Comparison.A)
	assert.Equal(t, "EA20", rep.Comparison.B)
	assert.InDelta(t, 0.5, rep.Comparison.MeanDifference, 1e-9)
	assert.Equal(t, stats.VerdictHigher, rep.Comparison.Verdict)
	assert.Equal(t, 48, rep.Comparison.MonthsHigher)

	require.Len(t, rep.Rates, 2)
	assert.Equal(t, "ecb:DFR", rep.Rates[0].Indicator.String())
	assert.Equal(t, 48, rep.Rates[0].Series.Len())
	assert.Equal(t, 48, rep.Rates[1].Series.Len())

	// history covers 2020-01 to 2023-12 and forecasts run through 2024-12
	names := make([]string, len(rep.Events))
	for i, e := range rep.Events {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"COVID-19", "Ukraine war"}, names)

	assert.Equal(t, "2024-06-01", rep.GeneratedAt.Format(config.DateLayout))
	assert.Equal(t, 1717200000.0, testutil.ToFloat64(exporter.LastRefresh))

	display := rep.DisplayForecast(at)
	assert.Len(t, display.T, 12)
}

func TestRunOffline(t *testing.T) {
	cfg := config.Default()
	cfg.Offline = true
	p, err := New(cfg, Options{})
	require.NoError(t, err)

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Regions, 3)
	for _, rr := range rep.Regions {
		assert.Equal(t, "sample", rr.Source)
		assert.Equal(t, 34, rr.History.Len())
		assert.Equal(t, forecaster.ModelDampedTrend, rr.Forecast.Model)
	}
	require.NotNil(t, rep.Comparison)
	assert.Equal(t, "AT", rep.Comparison.A)
	assert.Equal(t, "EA20", rep.Comparison.B)
	for _, r := range rep.Rates {
		assert.Equal(t, 0, r.Series.Len())
	}

	// the display limit cuts forecasts past 2026-03
	display := rep.DisplayForecast(rep.Regions[0])
	assert.Len(t, display.T, 5)
}

func TestWithConfig(t *testing.T) {
	src := &fakeSource{name: "eurostat"}
	p, _ := newTestPipeline(t, nil, Sources{KindHICP: src})

	cfg, err := p.Config().WithCountries([]string{"FR"})
	require.NoError(t, err)
	other, err := p.WithConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"FR"}, other.Config().Countries)
	assert.Equal(t, []string{"AT", "DE", "EA20"}, p.Config().Countries)
}

func TestSampleSource(t *testing.T) {
	obs, err := SampleSource{}.Fetch(context.Background(), "AT", Indicator{Kind: KindHICP, Code: "CP00"}, month(2025, 1))
	require.NoError(t, err)
	require.Len(t, obs, 10)
	assert.Equal(t, month(2025, 1), obs[0].T)

	_, err = SampleSource{}.Fetch(context.Background(), "", Indicator{Kind: KindECB, Code: "DFR"}, time.Time{})
	assert.ErrorIs(t, err, ErrUnsupportedIndicator)
}

func TestRunMissingMonths(t *testing.T) {
	cfg := config.Default()
	cfg.Categories = []string{"CP00"}
	cfg.RateIndicators = []string{}
	cfg.Countries = []string{"AT", "EA20"}

	gapped := linearObs(36, month(2021, 1), 2, 0.05)
	gapped = append(gapped[:10], gapped[13:]...)
	es := &fakeSource{
		name: "eurostat",
		data: map[string][]timedataset.Observation{
			"AT/hicp:CP00":   gapped,
			"EA20/hicp:CP00": linearObs(36, month(2021, 1), 2, 0.05),
		},
	}
	p, _ := newTestPipeline(t, cfg, Sources{KindHICP: es})

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Region("AT").MissingMonths)
	assert.Equal(t, 33, rep.Region("AT").History.Len())
	assert.Equal(t, 0, rep.Region("EA20").MissingMonths)
}

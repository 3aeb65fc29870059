package pipeline

import (
	"sort"
	"time"

	forecaster "github.com/aouyang1/go-macroforecast"
	"github.com/aouyang1/go-macroforecast/config"
	"github.com/aouyang1/go-macroforecast/eurostat"
	"github.com/aouyang1/go-macroforecast/event"
	"github.com/aouyang1/go-macroforecast/stats"
	"github.com/aouyang1/go-macroforecast/timedataset"
)

// Report is everything the text report, chart page and dashboard api render
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Config      *config.Config `json:"config"`
	Indicator   Indicator      `json:"indicator"`

	Regions []*RegionReport `json:"regions"`
	Rates   []*RateSeries   `json:"interest_rates"`

	// Comparison is the first country against the euro area aggregate since the analysis start
	Comparison *ComparisonReport `json:"comparison,omitempty"`

	Events []event.Event `json:"events"`
}

// RegionReport holds the history, statistics and forecast of one country or aggregate
type RegionReport struct {
	Region string `json:"region"`
	Name   string `json:"name"`

	// Source is the upstream that served the history, "sample" when the fallback was used
	Source string `json:"source"`

	History *timedataset.TimeDataset `json:"history"`

	// MissingMonths counts the months absent between the first and last month of History
	MissingMonths int `json:"missing_months"`

	Summary  *stats.Summary      `json:"summary,omitempty"`
	Extremes *stats.Extremes     `json:"extremes,omitempty"`
	Forecast *forecaster.Results `json:"forecast,omitempty"`

	// Components maps COICOP categories to their history since the analysis start
	Components map[string]*timedataset.TimeDataset `json:"components,omitempty"`
}

// RateSeries is a monthly interest rate series
type RateSeries struct {
	Indicator Indicator                `json:"indicator"`
	Name      string                   `json:"name"`
	Series    *timedataset.TimeDataset `json:"series"`
}

// ComparisonReport labels the two sides of a comparison
type ComparisonReport struct {
	A string `json:"a"`
	B string `json:"b"`
	*stats.Comparison
}

// Region looks up a region by code
func (r *Report) Region(code string) *RegionReport {
	for _, rr := range r.Regions {
		if rr.Region == code {
			return rr
		}
	}
	return nil
}

// DisplayForecast is the forecast of a region cut at the configured display limit
func (r *Report) DisplayForecast(rr *RegionReport) *forecaster.Results {
	if rr == nil || rr.Forecast == nil {
		return nil
	}
	limit := time.Time{}
	if r.Config != nil {
		limit = r.Config.DisplayLimit.Time
	}
	return rr.Forecast.Truncate(limit)
}

// Months returns every month that appears in a regional history, ascending
func (r *Report) Months() []time.Time {
	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, rr := range r.Regions {
		if rr.History == nil {
			continue
		}
		for _, t := range rr.History.T {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Before(out[j])
	})
	return out
}

// compare picks the first non euro area country and the euro area aggregate
func (r *Report) compare(since time.Time) {
	var a, b *RegionReport
	codes := make([]string, 0, len(r.Regions))
	for _, rr := range r.Regions {
		codes = append(codes, rr.Region)
		if a == nil && !eurostat.IsEuroArea(rr.Region) {
			a = rr
		}
	}
	if ea := eurostat.PreferEuroArea(codes); ea != "" {
		b = r.Region(ea)
	}
	if a == nil || b == nil {
		return
	}
	c, err := stats.Compare(a.History.Since(since), b.History.Since(since))
	if err != nil {
		return
	}
	r.Comparison = &ComparisonReport{A: a.Region, B: b.Region, Comparison: c}
}

// annotate keeps the events within the charted range
func (r *Report) annotate() {
	months := r.Months()
	if len(months) == 0 {
		r.Events = []event.Event{}
		return
	}
	end := months[len(months)-1]
	for _, rr := range r.Regions {
		if rr.Forecast != nil && len(rr.Forecast.T) > 0 && rr.Forecast.T[len(rr.Forecast.T)-1].After(end) {
			end = rr.Forecast.T[len(rr.Forecast.T)-1]
		}
	}
	r.Events = event.Within(event.DefaultEvents(), months[0], end.AddDate(0, 1, 0))
	if r.Events == nil {
		r.Events = []event.Event{}
	}
}

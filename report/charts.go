package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	forecaster "github.com/aouyang1/go-macroforecast"
	"github.com/aouyang1/go-macroforecast/eurostat"
	"github.com/aouyang1/go-macroforecast/event"
	"github.com/aouyang1/go-macroforecast/pipeline"
	"github.com/aouyang1/go-macroforecast/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const PageTitle = "Macroeconomic forecast report"

// Page assembles every chart of the report
func Page(rep *pipeline.Report) *components.Page {
	page := components.NewPage()
	page.PageTitle = PageTitle

	analysis := time.Time{}
	historical := time.Time{}
	if rep.Config != nil {
		analysis = rep.Config.AnalysisStart.Time
		historical = rep.Config.HistoricalStart.Time
	}

	page.AddCharts(ComparisonChart(rep, analysis))
	for _, rr := range rep.Regions {
		if rr.Forecast == nil {
			continue
		}
		window := rr.History
		if rep.Config != nil {
			window = window.Tail(rep.Config.TrainingWindow)
		}
		page.AddCharts(forecaster.LineForecaster(
			fmt.Sprintf("%s forecast", rr.Name), window, rep.DisplayForecast(rr),
		))
	}
	if len(rep.Rates) > 0 {
		page.AddCharts(RatesChart(rep, analysis))
	}
	if rep.Comparison != nil {
		page.AddCharts(DifferenceChart(rep))
	}
	page.AddCharts(StatisticsChart(rep))
	for _, rr := range rep.Regions {
		if len(rr.Components) > 0 {
			page.AddCharts(ComponentsChart(rr))
		}
	}
	page.AddCharts(HistoricalChart(rep, historical))
	return page
}

// WriteHTML renders the report page
func WriteHTML(w io.Writer, rep *pipeline.Report) error {
	return Page(rep).Render(w)
}

// ComparisonChart draws each region since the analysis start followed by its displayed forecast
// band, with event markers on the first series
func ComparisonChart(rep *pipeline.Report, since time.Time) *charts.Line {
	var all [][]time.Time
	for _, rr := range rep.Regions {
		all = append(all, rr.History.Since(since).T)
		if fc := rep.DisplayForecast(rr); fc != nil {
			all = append(all, validTimes(fc.T))
		}
	}
	months := unionMonths(all...)
	labels := forecaster.MonthLabels(months)

	line := newLine(fmt.Sprintf("%s by region", rep.Indicator.Name()), "")
	line.SetXAxis(labels)

	markers := eventMarkers(rep.Events, months)
	for i, rr := range rep.Regions {
		var seriesOpts []charts.SeriesOpts
		if i == 0 && len(markers) > 0 {
			seriesOpts = append(seriesOpts, charts.WithMarkLineNameXAxisItemOpts(markers...))
		}
		line.AddSeries(rr.Name, forecaster.LineData(valuesAt(rr.History, months)), seriesOpts...)

		fc := rep.DisplayForecast(rr)
		if fc == nil {
			continue
		}
		name := fmt.Sprintf("%s forecast (%s)", rr.Name, ModelLabel(fc.Model))
		dashed := charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"})
		line.AddSeries(name, forecaster.LineData(resultsAt(fc, fc.Forecast, months)), dashed)
		line.AddSeries(rr.Name+" upper", forecaster.LineData(resultsAt(fc, fc.Upper, months)), dashed)
		line.AddSeries(rr.Name+" lower", forecaster.LineData(resultsAt(fc, fc.Lower, months)), dashed)
	}
	return line
}

// RatesChart draws the interest rate series since the analysis start
func RatesChart(rep *pipeline.Report, since time.Time) *charts.Line {
	var all [][]time.Time
	for _, r := range rep.Rates {
		all = append(all, r.Series.Since(since).T)
	}
	months := unionMonths(all...)

	names := make([]string, len(rep.Rates))
	y := make([][]float64, len(rep.Rates))
	for i, r := range rep.Rates {
		names[i] = r.Name
		y[i] = valuesAt(r.Series, months)
	}
	return forecaster.LineTSeries("Key interest rates", names, months, y)
}

// DifferenceChart draws the monthly difference between the compared regions
func DifferenceChart(rep *pipeline.Report) *charts.Bar {
	c := rep.Comparison
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Difference %s - %s", c.A, c.B),
			Subtitle: fmt.Sprintf("mean %.2f pp, %s", c.MeanDifference, c.Verdict),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	data := make([]opts.BarData, len(c.Difference))
	for i, d := range c.Difference {
		data[i] = opts.BarData{Value: d}
	}
	bar.SetXAxis(forecaster.MonthLabels(c.T)).AddSeries("difference (pp)", data)
	return bar
}

// StatisticsChart compares the summary statistics of every region
func StatisticsChart(rep *pipeline.Report) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Statistics since analysis start"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	var names []string
	var mean, median, lo, hi, std []opts.BarData
	for _, rr := range rep.Regions {
		if rr.Summary == nil {
			continue
		}
		names = append(names, rr.Name)
		mean = append(mean, opts.BarData{Value: rr.Summary.Mean})
		median = append(median, opts.BarData{Value: rr.Summary.Median})
		lo = append(lo, opts.BarData{Value: rr.Summary.Min})
		hi = append(hi, opts.BarData{Value: rr.Summary.Max})
		std = append(std, opts.BarData{Value: rr.Summary.Std})
	}
	bar.SetXAxis(names).
		AddSeries("mean", mean).
		AddSeries("median", median).
		AddSeries("min", lo).
		AddSeries("max", hi).
		AddSeries("std", std)
	return bar
}

// ComponentsChart draws the HICP categories of one region
func ComponentsChart(rr *pipeline.RegionReport) *charts.Line {
	codes := make([]string, 0, len(rr.Components))
	for code := range rr.Components {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return categoryOrder(codes[i]) < categoryOrder(codes[j])
	})

	var all [][]time.Time
	for _, code := range codes {
		all = append(all, rr.Components[code].T)
	}
	months := unionMonths(all...)

	names := make([]string, len(codes))
	y := make([][]float64, len(codes))
	for i, code := range codes {
		names[i] = eurostat.CategoryName(code)
		y[i] = valuesAt(rr.Components[code], months)
	}
	return forecaster.LineTSeries(fmt.Sprintf("%s components", rr.Name), names, months, y)
}

// HistoricalChart draws the full history of every region with event markers
func HistoricalChart(rep *pipeline.Report, since time.Time) *charts.Line {
	var all [][]time.Time
	for _, rr := range rep.Regions {
		all = append(all, rr.History.Since(since).T)
	}
	months := unionMonths(all...)

	line := newLine("Historical comparison", "")
	line.SetXAxis(forecaster.MonthLabels(months))
	markers := eventMarkers(rep.Events, months)
	for i, rr := range rep.Regions {
		var seriesOpts []charts.SeriesOpts
		if i == 0 && len(markers) > 0 {
			seriesOpts = append(seriesOpts, charts.WithMarkLineNameXAxisItemOpts(markers...))
		}
		line.AddSeries(rr.Name, forecaster.LineData(valuesAt(rr.History, months)), seriesOpts...)
	}
	return line
}

func newLine(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	return line
}

func categoryOrder(code string) int {
	for i, c := range eurostat.Categories {
		if c == code {
			return i
		}
	}
	return len(eurostat.Categories)
}

// eventMarkers places events that start within the charted months
func eventMarkers(events []event.Event, months []time.Time) []opts.MarkLineNameXAxisItem {
	if len(months) == 0 {
		return nil
	}
	var items []opts.MarkLineNameXAxisItem
	for _, e := range event.Within(events, months[0], months[len(months)-1].AddDate(0, 1, 0)) {
		if e.Month().Before(months[0]) {
			continue
		}
		items = append(items, opts.MarkLineNameXAxisItem{
			Name:  e.Name,
			XAxis: e.Month().Format(forecaster.MonthLabel),
		})
	}
	return items
}

func validTimes(t []time.Time) []time.Time {
	out := make([]time.Time, 0, len(t))
	for _, ct := range t {
		if !ct.IsZero() {
			out = append(out, ct)
		}
	}
	return out
}

// unionMonths merges sorted month slices into one ascending slice without duplicates
func unionMonths(series ...[]time.Time) []time.Time {
	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, s := range series {
		for _, t := range s {
			m := timedataset.MonthStart(t)
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Before(out[j])
	})
	return out
}

func valuesAt(td *timedataset.TimeDataset, months []time.Time) []float64 {
	idx := make(map[time.Time]float64)
	if td != nil {
		for i, t := range td.T {
			idx[timedataset.MonthStart(t)] = td.Y[i]
		}
	}
	out := make([]float64, len(months))
	for i, m := range months {
		v, ok := idx[m]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

func resultsAt(res *forecaster.Results, y []float64, months []time.Time) []float64 {
	td := &timedataset.TimeDataset{T: res.T, Y: y}
	return valuesAt(td, months)
}

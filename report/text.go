// Package report renders a pipeline report as plain text and as an echarts page.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	forecaster "github.com/aouyang1/go-macroforecast"
	"github.com/aouyang1/go-macroforecast/pipeline"
	"github.com/aouyang1/go-macroforecast/stats"
	"github.com/aouyang1/go-macroforecast/timedataset"
)

const (
	// ComparisonMonths is the number of trailing months listed in the monthly comparison
	ComparisonMonths = 12

	lineWidth = 80
)

// ModelLabel describes the forecasting model so fallback forecasts are never mistaken for the
// primary model
func ModelLabel(m forecaster.ModelType) string {
	switch m {
	case forecaster.ModelDampedTrend:
		return "damped trend"
	case forecaster.ModelLinearFallback:
		return "linear fallback"
	}
	return string(m)
}

type textWriter struct {
	sb strings.Builder
}

func (t *textWriter) line(format string, args ...interface{}) {
	fmt.Fprintf(&t.sb, format, args...)
	t.sb.WriteByte('\n')
}

func (t *textWriter) rule(c string) {
	t.line("%s", strings.Repeat(c, lineWidth))
}

func (t *textWriter) section(title string) {
	t.line("")
	t.line("%s", title)
	t.rule("-")
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v)
}

func longMonth(t time.Time) string {
	return t.Format("January 2006")
}

// WriteText writes the plain text report
func WriteText(w io.Writer, rep *pipeline.Report) error {
	t := &textWriter{}
	t.rule("=")
	t.line("MACROECONOMIC REPORT: %s", strings.ToUpper(rep.Indicator.Name()))
	t.rule("=")
	t.line("Generated: %s", rep.GeneratedAt.Format("2006-01-02 15:04:05"))

	writeSummary(t, rep)
	writeStatistics(t, rep)
	writeExtremes(t, rep)
	writeComparison(t, rep)
	writeForecasts(t, rep)
	writeRates(t, rep)

	t.line("")
	t.rule("=")
	t.line("END OF REPORT")
	t.rule("=")

	_, err := io.WriteString(w, t.sb.String())
	return err
}

func writeSummary(t *textWriter, rep *pipeline.Report) {
	t.section("SUMMARY")
	if months := rep.Months(); len(months) > 0 {
		t.line("Analysis period: %d - %d", months[0].Year(), months[len(months)-1].Year())
		t.line("")
	}
	for _, rr := range rep.Regions {
		note := ""
		if rr.Source == "sample" {
			note = " [sample data]"
		}
		if rr.MissingMonths > 0 {
			note += fmt.Sprintf(" [%d months missing]", rr.MissingMonths)
		}
		if rr.Summary == nil {
			t.line("%s - no data%s", rr.Name, note)
			continue
		}
		t.line("%s - latest rate (%s): %s%s", rr.Name, longMonth(rr.Summary.LatestDate), percent(rr.Summary.Latest), note)
	}
}

func writeStatistics(t *textWriter, rep *pipeline.Report) {
	since := ""
	if rep.Config != nil {
		since = fmt.Sprintf(" (SINCE %d)", rep.Config.AnalysisStart.Year())
	}
	t.section("STATISTICS" + since)
	for _, rr := range rep.Regions {
		s := rr.Summary
		if s == nil {
			continue
		}
		t.line("")
		t.line("%s:", rr.Name)
		t.line("  Mean:               %s", percent(s.Mean))
		t.line("  Median:             %s", percent(s.Median))
		t.line("  Minimum:            %s", percent(s.Min))
		t.line("  Maximum:            %s", percent(s.Max))
		t.line("  Standard deviation: %.2f", s.Std)
		if len(s.Outliers) > 0 {
			months := make([]string, len(s.Outliers))
			for i, o := range s.Outliers {
				months[i] = o.Format(forecaster.MonthLabel)
			}
			t.line("  Unusual months:     %s", strings.Join(months, ", "))
		}
	}
}

func writeExtremes(t *textWriter, rep *pipeline.Report) {
	t.section("TRENDS AND EXTREMES")
	for _, rr := range rep.Regions {
		e := rr.Extremes
		if e == nil {
			continue
		}
		t.line("")
		t.line("%s:", rr.Name)
		t.line("  Highest: %s in %s", percent(e.Highest), longMonth(e.HighestDate))
		t.line("  Lowest:  %s in %s", percent(e.Lowest), longMonth(e.LowestDate))
	}
}

func writeComparison(t *textWriter, rep *pipeline.Report) {
	c := rep.Comparison
	if c == nil {
		return
	}
	a, b := rep.Region(c.A), rep.Region(c.B)

	t.section("MONTHLY COMPARISON")
	header := fmt.Sprintf("%-12s", "Month")
	for _, rr := range rep.Regions {
		header += fmt.Sprintf(" %-15s", truncate(rr.Name, 15))
	}
	header += fmt.Sprintf(" Difference (%s-%s)", c.A, c.B)
	t.line("%s", header)
	t.rule("-")

	tail := c.Tail(ComparisonMonths)
	for i, m := range tail.T {
		row := fmt.Sprintf("%-12s", m.Format(forecaster.MonthLabel))
		for _, rr := range rep.Regions {
			row += fmt.Sprintf(" %-15s", fmt.Sprintf("%8s", percent(valueAt(rr.History, m))))
		}
		row += fmt.Sprintf(" %8.2f pp", tail.Difference[i])
		t.line("%s", row)
	}

	t.section("ANALYSIS SUMMARY")
	t.line("Average difference (%s - %s): %.2f percentage points.", a.Name, b.Name, c.MeanDifference)
	t.line("%s had higher rates than %s in %d of %d months (%.1f%%).",
		a.Name, b.Name, c.MonthsHigher, len(c.T), 100*c.ShareHigher())
	switch c.Verdict {
	case stats.VerdictHigher:
		t.line("On average, rates in %s tended to be higher than in %s.", a.Name, b.Name)
	case stats.VerdictLower:
		t.line("On average, rates in %s tended to be lower than in %s.", a.Name, b.Name)
	default:
		t.line("On average, rates in %s were broadly in line with %s.", a.Name, b.Name)
	}
}

func writeForecasts(t *textWriter, rep *pipeline.Report) {
	t.section("FORECAST")
	for _, rr := range rep.Regions {
		res := rep.DisplayForecast(rr)
		if res == nil {
			continue
		}
		t.line("")
		t.line("%s (%s, sigma %.2f):", rr.Name, ModelLabel(res.Model), res.Sigma)
		t.line("  %-10s %10s %10s %10s", "Month", "Estimate", "Lower", "Upper")
		for _, p := range res.Points() {
			label := "n/a"
			if !p.T.IsZero() {
				label = p.T.Format(forecaster.MonthLabel)
			}
			t.line("  %-10s %10s %10s %10s", label, percent(p.Estimate), percent(p.Lower), percent(p.Upper))
		}
	}
}

func writeRates(t *textWriter, rep *pipeline.Report) {
	if len(rep.Rates) == 0 {
		return
	}
	t.section("INTEREST RATES")
	for _, r := range rep.Rates {
		n := r.Series.Len()
		if n == 0 {
			t.line("%-32s unavailable", r.Name+":")
			continue
		}
		t.line("%-32s %s (%s)", r.Name+":", percent(r.Series.Y[n-1]), longMonth(r.Series.T[n-1]))
	}
}

func valueAt(td *timedataset.TimeDataset, m time.Time) float64 {
	return valuesAt(td, []time.Time{m})[0]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

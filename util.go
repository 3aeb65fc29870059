package forecaster

import (
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-macroforecast/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// MonthLabel is the x axis label format used by every chart
const MonthLabel = "2006-01"

// emptyValue is rendered by echarts as a gap in the line
const emptyValue = "-"

func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return opts.LineData{Value: emptyValue}
	}
	return opts.LineData{Value: v}
}

// LineData converts values to echarts line points, drawing NaN as a gap
func LineData(y []float64) []opts.LineData {
	data := make([]opts.LineData, len(y))
	for i, v := range y {
		data[i] = lineValue(v)
	}
	return data
}

// MonthLabels formats times as x axis labels
func MonthLabels(t []time.Time) []string {
	return monthLabels(t)
}

func monthLabels(t []time.Time) []string {
	labels := make([]string, len(t))
	for i, ct := range t {
		labels[i] = ct.Format(MonthLabel)
	}
	return labels
}

// LineTSeries generates an echart multi-line chart for some arbitrary month/value combination. Each
// slice in y must have the same length as the input time slice. NaN values are drawn as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	line = line.SetXAxis(monthLabels(t))
	for i, series := range seriesName {
		if i >= len(y) {
			break
		}
		lineData := make([]opts.LineData, 0, len(t))
		for j := 0; j < len(t) && j < len(y[i]); j++ {
			lineData = append(lineData, lineValue(y[i][j]))
		}
		line = line.AddSeries(series, lineData)
	}

	return line
}

// LineForecaster generates an echart line chart of the training series followed by the forecast
// and its upper and lower bounds. The subtitle names the model that produced the forecast.
func LineForecaster(title string, trainingData *timedataset.TimeDataset, res *Results) *charts.Line {
	line := charts.NewLine()
	subtitle := ""
	if res != nil {
		subtitle = fmt.Sprintf("model: %s", res.Model)
	}
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title:    title,
				Subtitle: subtitle,
			},
		),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	var hist []time.Time
	if trainingData != nil {
		hist = trainingData.T
	}
	var fcT []time.Time
	if res != nil {
		fcT = res.T
	}

	numPnts := len(hist) + len(fcT)
	lineDataActual := make([]opts.LineData, 0, numPnts)
	lineDataForecast := make([]opts.LineData, 0, numPnts)
	lineDataUpper := make([]opts.LineData, 0, numPnts)
	lineDataLower := make([]opts.LineData, 0, numPnts)

	for i := range hist {
		lineDataActual = append(lineDataActual, lineValue(trainingData.Y[i]))
		lineDataForecast = append(lineDataForecast, lineValue(math.NaN()))
		lineDataUpper = append(lineDataUpper, lineValue(math.NaN()))
		lineDataLower = append(lineDataLower, lineValue(math.NaN()))
	}
	for i := range fcT {
		lineDataActual = append(lineDataActual, lineValue(math.NaN()))
		lineDataForecast = append(lineDataForecast, lineValue(res.Forecast[i]))
		lineDataUpper = append(lineDataUpper, lineValue(res.Upper[i]))
		lineDataLower = append(lineDataLower, lineValue(res.Lower[i]))
	}

	xAxis := append(monthLabels(hist), monthLabels(fcT)...)
	line.SetXAxis(xAxis).
		AddSeries("Actual", lineDataActual).
		AddSeries("Forecast", lineDataForecast).
		AddSeries("Upper", lineDataUpper).
		AddSeries("Lower", lineDataLower)
	return line
}

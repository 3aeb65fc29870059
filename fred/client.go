// Package fred downloads daily Federal Reserve Economic Data series and aggregates them to monthly
// means.
package fred

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-macroforecast/event"
	"github.com/aouyang1/go-macroforecast/httpclient"
	"github.com/aouyang1/go-macroforecast/timedataset"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://fred.stlouisfed.org/graph/fredgraph.csv"

	// SeriesFedFunds is the daily effective federal funds rate
	SeriesFedFunds = "DFF"

	missingValue = "."
)

var (
	ErrMalformedCSV = errors.New("malformed fred csv")
	ErrEmptySeries  = errors.New("fred series has no observations")
)

// Client is the FRED graph csv client
type Client struct {
	baseURL    string
	httpClient *httpclient.Client
	calendar   *event.BusinessCalendar
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new FRED client
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
	MaxRetries     int

	// Calendar decides whether the trailing month is complete. Defaults to US federal holidays.
	Calendar *event.BusinessCalendar
}

// NewClient creates a new FRED client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.Calendar == nil {
		options.Calendar = event.NewBusinessCalendar()
	}
	return &Client{
		baseURL: options.BaseURL,
		httpClient: httpclient.NewClient(httpclient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
			MaxRetries:     options.MaxRetries,
		}),
		calendar: options.Calendar,
		logger:   log.With().Str("component", "fred_client").Logger(),
	}
}

// Daily is a single daily observation
type Daily struct {
	Date  time.Time
	Value float64
}

// Daily downloads the raw daily observations of a series starting at since. Missing days are
// skipped.
func (c *Client) Daily(ctx context.Context, seriesID string, since time.Time) ([]Daily, error) {
	query := url.Values{}
	query.Set("id", seriesID)
	if !since.IsZero() {
		query.Set("cosd", since.Format(time.DateOnly))
	}
	u := fmt.Sprintf("%s?%s", c.baseURL, query.Encode())
	c.logger.Debug().Str("url", u).Msg("fetching series")

	body, err := c.httpClient.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	days, err := ParseCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s, %w", seriesID, err)
	}
	return days, nil
}

// Monthly downloads a daily series and returns its monthly means. The trailing month is dropped
// when its last observation falls before that month's last business day.
func (c *Client) Monthly(ctx context.Context, seriesID string, since time.Time) ([]timedataset.Observation, error) {
	days, err := c.Daily(ctx, seriesID, since)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%s, %w", seriesID, ErrEmptySeries)
	}

	obs := MonthlyMean(days)
	last := days[len(days)-1].Date
	if last.Before(c.calendar.LastBusinessDay(last)) {
		c.logger.Debug().
			Str("series", seriesID).
			Str("month", last.Format("2006-01")).
			Msg("dropping incomplete month")
		obs = obs[:len(obs)-1]
	}
	return obs, nil
}

// ParseCSV reads a two column date,value csv with a header row. Values of "." are missing and
// skipped. Rows are returned sorted by date.
func ParseCSV(r io.Reader) ([]Daily, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%v, %w", err, ErrMalformedCSV)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header, %w", ErrMalformedCSV)
	}

	days := make([]Daily, 0, len(records)-1)
	for i, rec := range records[1:] {
		val := strings.TrimSpace(rec[1])
		if val == missingValue || val == "" {
			continue
		}
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d date %q, %w", i+2, rec[0], ErrMalformedCSV)
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d value %q, %w", i+2, rec[1], ErrMalformedCSV)
		}
		days = append(days, Daily{Date: date.UTC(), Value: v})
	}
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days, nil
}

// MonthlyMean averages sorted daily observations per calendar month
func MonthlyMean(days []Daily) []timedataset.Observation {
	var obs []timedataset.Observation
	var sum float64
	var cnt int
	var cur time.Time
	flush := func() {
		if cnt > 0 {
			obs = append(obs, timedataset.NewObservation(cur, sum/float64(cnt)))
		}
	}
	for _, d := range days {
		m := timedataset.MonthStart(d.Date)
		if !m.Equal(cur) {
			flush()
			cur, sum, cnt = m, 0, 0
		}
		sum += d.Value
		cnt++
	}
	flush()
	return obs
}

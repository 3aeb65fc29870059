package eurostat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aouyang1/go-macroforecast/httpclient"
	"github.com/aouyang1/go-macroforecast/timedataset"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "https://ec.europa.eu/eurostat/api/dissemination/statistics/1.0/data"

var ErrNoSeries = errors.New("no series returned")

// Client is the Eurostat dissemination api client
type Client struct {
	baseURL    string
	httpClient *httpclient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Eurostat client
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
	MaxRetries     int
}

// NewClient creates a new Eurostat api client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: options.BaseURL,
		httpClient: httpclient.NewClient(httpclient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
			MaxRetries:     options.MaxRetries,
		}),
		logger: log.With().Str("component", "eurostat_client").Logger(),
	}
}

func (c *Client) datasetURL(dataset string, query url.Values) string {
	query.Set("format", "JSON")
	query.Set("lang", "EN")
	return fmt.Sprintf("%s/%s?%s", c.baseURL, dataset, query.Encode())
}

// Fetch downloads and decodes a dataset filtered by the query
func (c *Client) Fetch(ctx context.Context, dataset string, query url.Values) (*Dataset, error) {
	u := c.datasetURL(dataset, query)
	c.logger.Debug().Str("url", u).Msg("fetching dataset")

	body, err := c.httpClient.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	ds, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s, %w", dataset, err)
	}
	return ds, nil
}

// HICP fetches the annual rate of change of a COICOP category for a region. A zero since fetches the
// full history. Requests for EA20 are retried as EA19 when Eurostat has no EA20 data.
func (c *Client) HICP(ctx context.Context, geo, coicop string, since time.Time) ([]timedataset.Observation, error) {
	obs, err := c.hicp(ctx, geo, coicop, since)
	if geo == RegionEuroArea20 && (errors.Is(err, ErrNoSeries) || isNotFound(err)) {
		c.logger.Info().Str("coicop", coicop).Msg("no EA20 series, using EA19")
		return c.hicp(ctx, RegionEuroArea19, coicop, since)
	}
	return obs, err
}

func (c *Client) hicp(ctx context.Context, geo, coicop string, since time.Time) ([]timedataset.Observation, error) {
	query := url.Values{}
	query.Set("geo", geo)
	query.Set("coicop", coicop)
	query.Set("unit", UnitAnnualRate)
	if !since.IsZero() {
		query.Set("sinceTimePeriod", since.Format("2006-01"))
	}

	ds, err := c.Fetch(ctx, DatasetHICP, query)
	if err != nil {
		return nil, err
	}
	return slice(ds, map[string]string{"geo": geo, "coicop": coicop})
}

// InterestRate fetches an ECB key rate for a euro area aggregate
func (c *Client) InterestRate(ctx context.Context, geo, rateType string, since time.Time) ([]timedataset.Observation, error) {
	if geo == "" {
		geo = DefaultInterestRegion
	}
	query := url.Values{}
	query.Set("geo", geo)
	query.Set("int_rt", rateType)
	if !since.IsZero() {
		query.Set("sinceTimePeriod", since.Format("2006-01"))
	}

	ds, err := c.Fetch(ctx, DatasetInterestRates, query)
	if err != nil {
		return nil, err
	}
	return slice(ds, map[string]string{"geo": geo, "int_rt": rateType})
}

func slice(ds *Dataset, fixed map[string]string) ([]timedataset.Observation, error) {
	if ds.Len() == 0 {
		return nil, ErrNoSeries
	}
	// fix only the dimensions present in the response
	present := make(map[string]string, len(fixed))
	for dim, code := range fixed {
		if _, ok := ds.Dimension[dim]; ok {
			present[dim] = code
		}
	}
	obs, err := ds.Observations(present)
	if err != nil {
		if errors.Is(err, ErrUnknownCategory) {
			return nil, fmt.Errorf("%v, %w", err, ErrNoSeries)
		}
		return nil, err
	}
	return obs, nil
}

func isNotFound(err error) bool {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusNotFound || statusErr.StatusCode == http.StatusBadRequest
	}
	return false
}

package eurostat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	queries []map[string]string
}

func (r *recorder) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := map[string]string{"path": req.URL.Path}
	for k := range req.URL.Query() {
		q[k] = req.URL.Query().Get(k)
	}
	r.queries = append(r.queries, q)
}

func newTestServer(t *testing.T, rec *recorder, handler func(w http.ResponseWriter, r *http.Request)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{BaseURL: srv.URL, RequestTimeout: time.Second, RequestsPerSec: 50})
}

func TestClientHICP(t *testing.T) {
	rec := &recorder{}
	c := newTestServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(hicpFixture))
	})

	obs, err := c.HICP(context.Background(), "AT", CategoryEnergy, month(2024, 1))
	require.NoError(t, err)
	assert.Equal(t, []*float64{ptr(12.1), nil, ptr(9.8)}, values(obs))

	require.Len(t, rec.queries, 1)
	q := rec.queries[0]
	assert.Equal(t, "/"+DatasetHICP, q["path"])
	assert.Equal(t, "AT", q["geo"])
	assert.Equal(t, "NRG", q["coicop"])
	assert.Equal(t, "RCH_A", q["unit"])
	assert.Equal(t, "2024-01", q["sinceTimePeriod"])
	assert.Equal(t, "JSON", q["format"])
}

func TestClientHICPFallsBackToEA19(t *testing.T) {
	rec := &recorder{}
	ea19 := strings.ReplaceAll(hicpFixture, "EA20", "EA19")
	c := newTestServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("geo") == RegionEuroArea20 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(ea19))
	})

	obs, err := c.HICP(context.Background(), RegionEuroArea20, CategoryAllItems, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []*float64{ptr(6.1), nil, ptr(5.3)}, values(obs))

	require.Len(t, rec.queries, 2)
	assert.Equal(t, "EA19", rec.queries[1]["geo"])
	assert.NotContains(t, rec.queries[1], "sinceTimePeriod")
}

func TestClientInterestRate(t *testing.T) {
	rec := &recorder{}
	c := newTestServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rateFixture))
	})

	obs, err := c.InterestRate(context.Background(), "", RateMainRefinancing, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []*float64{ptr(4.5), ptr(4.5)}, values(obs))
	assert.Equal(t, "/"+DatasetInterestRates, rec.queries[0]["path"])
	assert.Equal(t, "EA", rec.queries[0]["geo"])
	assert.Equal(t, "MRR_RT", rec.queries[0]["int_rt"])
}

func TestClientNoSeries(t *testing.T) {
	rec := &recorder{}
	c := newTestServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(hicpFixture))
	})

	_, err := c.HICP(context.Background(), "FR", CategoryAllItems, time.Time{})
	assert.ErrorIs(t, err, ErrNoSeries)
}

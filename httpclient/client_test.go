package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return NewClient(ClientOptions{
		Timeout:         time.Second,
		RequestsPerSec:  100,
		MaxRetries:      3,
		MaxRetryTimeout: 2 * time.Second,
		InitialInterval: time.Millisecond,
	})
}

func TestClientGet(t *testing.T) {
	testData := map[string]struct {
		statuses   []int
		body       string
		calls      int32
		statusCode int
	}{
		"ok": {
			statuses: []int{http.StatusOK},
			body:     "payload",
			calls:    1,
		},
		"retries server error": {
			statuses: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusOK},
			body:     "payload",
			calls:    3,
		},
		"retries rate limit": {
			statuses: []int{http.StatusTooManyRequests, http.StatusOK},
			body:     "payload",
			calls:    2,
		},
		"not found is permanent": {
			statuses:   []int{http.StatusNotFound},
			calls:      1,
			statusCode: http.StatusNotFound,
		},
		"gives up after max retries": {
			statuses:   []int{500, 500, 500, 500, 500, 500},
			calls:      4,
			statusCode: http.StatusInternalServerError,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				status := td.statuses[min(int(n)-1, len(td.statuses)-1)]
				assert.Equal(t, "go-macroforecast", r.Header.Get("User-Agent"))
				w.WriteHeader(status)
				if status == http.StatusOK {
					w.Write([]byte(td.body))
				}
			}))
			defer srv.Close()

			body, err := testClient().Get(context.Background(), srv.URL)
			assert.Equal(t, td.calls, calls.Load())
			if td.statusCode != 0 {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, td.statusCode, statusErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.body, string(body))
		})
	}
}

func TestClientGetCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient().Get(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientGetEmptyURL(t *testing.T) {
	_, err := testClient().Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

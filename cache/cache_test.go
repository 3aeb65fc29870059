package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/aouyang1/go-macroforecast/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func series(t *testing.T, y ...float64) *timedataset.TimeDataset {
	t.Helper()
	months := timedataset.GenerateMonths(len(y), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	td, err := timedataset.NewUnivariateDataset(months, y)
	require.NoError(t, err)
	return td
}

func TestCacheGetSet(t *testing.T) {
	c := New(time.Hour)
	key := Key{Region: "AT", Indicator: "hicp:CP00", Window: 24}

	_, ok := c.Get(key)
	assert.False(t, ok)

	td := series(t, 1, 2, 3)
	c.Set(key, td)

	// mutating the stored or returned value must not leak into the cache
	td.Y[0] = 100
	res, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, res.Y)
	res.Y[1] = 100

	res, ok = c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, res.Y)

	_, ok = c.Get(Key{Region: "AT", Indicator: "hicp:CP00", Window: 12})
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(time.Hour, WithClock(clock.Now))
	key := Key{Region: "DE", Indicator: "ecb:DFR"}

	c.Set(key, series(t, 4))
	assert.Equal(t, 1, c.Len())

	clock.Advance(59 * time.Minute)
	_, ok := c.Get(key)
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCachePurge(t *testing.T) {
	c := New(0)
	c.Set(Key{Region: "AT", Indicator: "hicp:CP00", Window: 24}, series(t, 1))
	c.Set(Key{Region: "AT", Indicator: "hicp:CP00"}, series(t, 1))
	c.Set(Key{Region: "AT", Indicator: "hicp:NRG"}, series(t, 1))
	c.Set(Key{Region: "DE", Indicator: "hicp:CP00"}, nil)

	assert.Equal(t, 4, c.Len())

	res, ok := c.Get(Key{Region: "DE", Indicator: "hicp:CP00"})
	require.True(t, ok)
	assert.Equal(t, 0, res.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCacheConcurrent(t *testing.T) {
	c := New(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key{Region: "AT", Window: i}
			for j := 0; j < 100; j++ {
				c.Set(key, series(t, float64(j)))
				_, ok := c.Get(key)
				assert.True(t, ok)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, c.Len())
}

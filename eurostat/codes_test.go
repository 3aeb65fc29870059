package eurostat

import (
	"testing"

	"github.com/aouyang1/go-macroforecast/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, "Austria", RegionName("AT"))
	assert.Equal(t, "Euro area", RegionName("EA20"))
	assert.Equal(t, "XX", RegionName("XX"))
	assert.Equal(t, "Energy", CategoryName(CategoryEnergy))
	assert.Equal(t, "Deposit facility rate", RateName(RateDepositFacility))
	assert.True(t, IsEuroArea("EA19"))
	assert.False(t, IsEuroArea("AT"))
}

func TestPreferEuroArea(t *testing.T) {
	assert.Equal(t, "EA20", PreferEuroArea([]string{"EA19", "AT", "EA20"}))
	assert.Equal(t, "EA19", PreferEuroArea([]string{"AT", "EA19"}))
	assert.Equal(t, "", PreferEuroArea([]string{"AT", "DE"}))
}

func TestSampleHICP(t *testing.T) {
	at := SampleHICP("AT", CategoryAllItems)
	require.Len(t, at, 34)
	assert.Equal(t, month(2023, 1), at[0].T)
	assert.Equal(t, month(2025, 10), at[33].T)
	assert.Equal(t, at, SampleHICP("AT", CategoryAllItems))
	assert.NotEqual(t, at, SampleHICP("DE", CategoryAllItems))

	td, err := timedataset.Prepare(at, timedataset.DefaultWindow)
	require.NoError(t, err)
	assert.Equal(t, timedataset.DefaultWindow, td.Len())
	// 2025 values sit around the 2.8 base
	assert.InDelta(t, 2.8, td.Y[td.Len()-1], 2.0)
}

package eurostat

import (
	"hash/fnv"
	"time"

	"github.com/aouyang1/go-macroforecast/timedataset"
)

var (
	sampleStart  = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	sampleMonths = 34
	sampleNoise  = 0.35

	// annual base rates for 2023, 2024 and 2025 onwards
	sampleBase = map[string][3]float64{
		"AT":   {6.8, 4.2, 2.8},
		"DE":   {6.1, 3.8, 2.3},
		"EA20": {6.1, 3.8, 2.5},
	}
)

// SampleHICP returns a deterministic demonstration series used when Eurostat is unreachable.
// Unknown regions follow the euro area profile.
func SampleHICP(geo, coicop string) []timedataset.Observation {
	base, ok := sampleBase[geo]
	if !ok {
		base = sampleBase[RegionEuroArea20]
	}

	h := fnv.New64a()
	h.Write([]byte(geo + "/" + coicop))
	noise := timedataset.GenerateNoise(sampleMonths, sampleNoise, h.Sum64())

	months := timedataset.GenerateMonths(sampleMonths, sampleStart)
	obs := make([]timedataset.Observation, 0, sampleMonths)
	for i, t := range months {
		yearIdx := min(t.Year()-sampleStart.Year(), len(base)-1)
		obs = append(obs, timedataset.NewObservation(t, base[yearIdx]+noise[i]))
	}
	return obs
}

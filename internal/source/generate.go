package source

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// GeneratorSeed fixes the synthetic sample set so every regenerated
// cache is byte-identical. GeneratorCadence is the seconds between
// intraday samples.
const (
	GeneratorSeed    int64 = 100
	GeneratorCadence       = 15
)

// GenerateDays produces the deterministic CycleLength-day sample set
// that backs a regenerated cache. Values follow a diurnal curve (low
// overnight, peaks in the morning and early evening) with seeded noise,
// so charts over replayed data look plausible.
func GenerateDays(seed int64, cadenceSeconds int) []DayRecord {
	rng := rand.New(rand.NewSource(seed))
	days := make([]DayRecord, 0, CycleLength)

	for d := 0; d < CycleLength; d++ {
		date := baseDate.AddDate(0, 0, d)
		dataset := make([]Sample, 0, 86400/cadenceSeconds)

		for sec := 0; sec < 86400; sec += cadenceSeconds {
			v := diurnalRate(sec) + rng.NormFloat64()*3
			if v < 45 {
				v = 45
			}
			if v > 195 {
				v = 195
			}
			dataset = append(dataset, Sample{
				Time:  fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec/60)%60, sec%60),
				Value: math.Round(v*100) / 100,
			})
		}

		resting := 60 + rng.Intn(21)
		days = append(days, DayRecord{
			HeartRateDay: []HeartRateDay{{
				ActivitiesHeart: []ActivitiesHeart{{
					DateTime: date.Format("2006-01-02"),
					Value: SummaryValue{
						RestingHeartRate:     resting,
						HeartRateZones:       zonePayload(rng, 30, 120, 60, 180, 20, 90, 5, 30),
						CustomHeartRateZones: zonePayload(rng, 20, 100, 50, 160, 15, 80, 3, 25),
					},
				}},
				Intraday: IntradaySet{
					Dataset:         dataset,
					DatasetInterval: cadenceSeconds,
					DatasetType:     "second",
				},
			}},
		})
	}
	return days
}

// SynthesizeSummary builds the pseudo-plausible daily summary used when
// no cached data exists for the summary stream. It is an explicit,
// documented fallback rather than silent data loss, reproducible for a
// fixed seed.
func SynthesizeSummary(seed int64) SummaryValue {
	rng := rand.New(rand.NewSource(seed))
	return SummaryValue{
		RestingHeartRate:     60 + rng.Intn(21),
		HeartRateZones:       zonePayload(rng, 30, 120, 60, 180, 20, 90, 5, 30),
		CustomHeartRateZones: zonePayload(rng, 20, 100, 50, 160, 15, 80, 3, 25),
	}
}

// diurnalRate is the noise-free heart rate at a given second of day.
func diurnalRate(sec int) float64 {
	h := float64(sec) / 3600
	base := 62.0
	// overnight trough, then two waking peaks around 09:00 and 18:00
	base += 14 * math.Sin((h-7)*math.Pi/12)
	base += 6 * math.Sin((h-15)*math.Pi/6)
	return base
}

type zoneRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Minutes int `json:"minutes"`
}

func zonePayload(rng *rand.Rand, bounds ...int) json.RawMessage {
	zones := map[string]zoneRange{
		"outOfRange": {Min: 60, Max: 70, Minutes: between(rng, bounds[0], bounds[1])},
		"fatBurn":    {Min: 70, Max: 85, Minutes: between(rng, bounds[2], bounds[3])},
		"cardio":     {Min: 85, Max: 100, Minutes: between(rng, bounds[4], bounds[5])},
		"peak":       {Min: 100, Max: 120, Minutes: between(rng, bounds[6], bounds[7])},
	}
	data, _ := json.Marshal(zones)
	return data
}

func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

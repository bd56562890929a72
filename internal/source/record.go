package source

import "encoding/json"

// DayRecord is the unprocessed upstream payload for one calendar day,
// kept in the source vocabulary of the wearable API it was captured
// from. It is produced by the replay cache and consumed once by an
// extractor; nothing downstream retains it.
type DayRecord struct {
	HeartRateDay []HeartRateDay `json:"heart_rate_day"`
}

type HeartRateDay struct {
	ActivitiesHeart []ActivitiesHeart `json:"activities-heart"`
	Intraday        IntradaySet       `json:"activities-heart-intraday"`
}

type ActivitiesHeart struct {
	DateTime string       `json:"dateTime"`
	Value    SummaryValue `json:"value"`
}

// SummaryValue carries the daily summary. The zone structures are
// opaque payloads passed through to storage, never interpreted.
type SummaryValue struct {
	RestingHeartRate     any             `json:"restingHeartRate,omitempty"`
	HeartRateZones       json.RawMessage `json:"heartRateZones,omitempty"`
	CustomHeartRateZones json.RawMessage `json:"customHeartRateZones,omitempty"`
}

type IntradaySet struct {
	Dataset         []Sample `json:"dataset"`
	DatasetInterval int      `json:"datasetInterval"`
	DatasetType     string   `json:"datasetType"`
}

// Sample is one intraday reading. Value stays loosely typed until the
// transformer coerces it; replayed caches are machine-written but the
// shape tolerates hand-edited fixtures.
type Sample struct {
	Time  string `json:"time"`
	Value any    `json:"value"`
}

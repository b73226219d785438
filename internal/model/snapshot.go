package model

import "time"

// Snapshot is a recorded estimation result, persisted so the last known
// value can be served when every live tier fails.
type Snapshot struct {
	ID            string         `json:"id"`
	FundCode      string         `json:"fundCode"`
	Kind          EstimationKind `json:"kind"`
	Value         float64        `json:"value"`
	ChangePercent float64        `json:"changePercent"`
	SourceLabel   string         `json:"sourceLabel"`
	SampleCount   int            `json:"sampleCount"`
	SampleWeight  float64        `json:"sampleWeight"`
	ComputedAt    time.Time      `json:"computedAt"`
}

package model

import "time"

// EstimationKind identifies which fallback tier produced an EstimationResult.
type EstimationKind string

const (
	// KindLiveEstimate means the provider's intraday estimate feed answered.
	KindLiveEstimate EstimationKind = "live_estimate"
	// KindHoldingsWeighted means the value was computed from disclosed
	// holdings weighted by live quote changes.
	KindHoldingsWeighted EstimationKind = "holdings_weighted"
	// KindLastNav means the last officially published NAV was used.
	KindLastNav EstimationKind = "last_nav"
)

// SourceLabel returns the user-facing label for the tier.
func (k EstimationKind) SourceLabel() string {
	switch k {
	case KindLiveEstimate:
		return "live estimate"
	case KindHoldingsWeighted:
		return "holdings-weighted calculation"
	case KindLastNav:
		return "last published NAV"
	}
	return "unknown"
}

// EstimationResult is the single output type of the estimation engine.
// It is immutable once constructed.
//
// SampleCount and SampleWeight are only set for holdings-weighted results
// and describe the subset of holdings for which a live quote matched.
// BaselineMissing marks results whose absolute Value is not meaningful
// because no NAV baseline was available (only ChangePercent is).
type EstimationResult struct {
	Code            string         `json:"code"`
	Kind            EstimationKind `json:"kind"`
	Value           float64        `json:"value"`
	ChangePercent   float64        `json:"changePercent"`
	SourceLabel     string         `json:"sourceLabel"`
	ComputedAt      time.Time      `json:"computedAt"`
	SampleCount     int            `json:"sampleCount,omitempty"`
	SampleWeight    float64        `json:"sampleWeight,omitempty"`
	BaselineValue   float64        `json:"baselineValue,omitempty"`
	BaselineDate    string         `json:"baselineDate,omitempty"`
	BaselineMissing bool           `json:"baselineMissing,omitempty"`
}

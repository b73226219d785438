package model

import "time"

// FundProfile is the basic metadata for a fund. It is fetched on demand and
// never cached authoritatively; callers accept staleness across calls.
type FundProfile struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// HoldingEntry is one disclosed position in a fund's top-10 holdings.
// WeightPercent is the position's share of fund NAV, in [0,100].
type HoldingEntry struct {
	StockCode     string  `json:"stockCode"`
	StockName     string  `json:"stockName"`
	WeightPercent float64 `json:"weightPercent"`
}

// QuoteSnapshot is the latest observed price and percentage change for one
// security, relative to its previous settlement.
type QuoteSnapshot struct {
	StockCode     string  `json:"stockCode"`
	StockName     string  `json:"stockName"`
	LastPrice     float64 `json:"lastPrice"`
	PercentChange float64 `json:"percentChange"`
}

// NavPoint is one published daily valuation of a fund. HasGrowth reports
// whether the provider published a daily growth figure for the point.
type NavPoint struct {
	Date               time.Time `json:"date"`
	UnitNav            float64   `json:"unitNav"`
	AccumulatedNav     float64   `json:"accumulatedNav,omitempty"`
	DailyGrowthPercent float64   `json:"dailyGrowthPercent"`
	HasGrowth          bool      `json:"-"`
}

// LiveEstimate is a provider-computed intraday approximation of a fund's
// NAV, published before the official value.
type LiveEstimate struct {
	Value         float64   `json:"value"`
	ChangePercent float64   `json:"changePercent"`
	Time          time.Time `json:"time"`
}

// HoldingDetail is a holding enriched with its live quote, when one matched.
type HoldingDetail struct {
	HoldingEntry
	LastPrice     float64 `json:"lastPrice"`
	PercentChange float64 `json:"percentChange"`
	QuoteMatched  bool    `json:"quoteMatched"`
}

// HoldingsReport is a fund's filtered holdings with live enrichment and
// the weighted aggregate change over the quote-matched subset.
type HoldingsReport struct {
	FundCode              string          `json:"fundCode"`
	Holdings              []HoldingDetail `json:"holdings"`
	WeightedChangePercent float64         `json:"weightedChangePercent"`
	MatchedWeight         float64         `json:"matchedWeight"`
	MatchedCount          int             `json:"matchedCount"`
}

package service

import (
	"context"
	"sort"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
	"github.com/fundwatch/fundwatch-backend/internal/calendar"
	"github.com/fundwatch/fundwatch-backend/internal/eastmoney"
	"github.com/fundwatch/fundwatch-backend/internal/model"
)

// FundService handles fund-related business logic: metadata lookup, search,
// holdings detail, and the estimation fallback chain (see estimation.go).
type FundService struct {
	gateway eastmoney.Client
	cal     *calendar.Calendar
}

// NewFundService creates a new FundService with the provided gateway and
// trading calendar.
func NewFundService(gateway eastmoney.Client, cal *calendar.Calendar) *FundService {
	return &FundService{
		gateway: gateway,
		cal:     cal,
	}
}

// Profile retrieves fund metadata from the gateway. Profiles are fetched
// on demand and not cached; staleness across calls is accepted.
func (s *FundService) Profile(ctx context.Context, code string) (model.FundProfile, error) {
	if !eastmoney.IsValidFundCode(code) {
		return model.FundProfile{}, apperrors.ErrInvalidFundCode
	}
	return s.gateway.FundProfile(ctx, code)
}

// Search performs a substring search over fund codes and names.
func (s *FundService) Search(ctx context.Context, keyword string) ([]model.FundProfile, error) {
	return s.gateway.SearchFunds(ctx, keyword)
}

// HoldingsDetail retrieves a fund's disclosed holdings enriched with live
// quotes and the holdings-weighted aggregate change over the matched
// subset. Holdings without a matched quote appear with QuoteMatched=false
// and are excluded from the aggregate.
func (s *FundService) HoldingsDetail(ctx context.Context, code string) (model.HoldingsReport, error) {
	if !eastmoney.IsValidFundCode(code) {
		return model.HoldingsReport{}, apperrors.ErrInvalidFundCode
	}

	raw, err := s.gateway.FundHoldings(ctx, code)
	if err != nil {
		return model.HoldingsReport{}, err
	}
	holdings := filterHoldings(raw)

	report := model.HoldingsReport{
		FundCode: code,
		Holdings: make([]model.HoldingDetail, 0, len(holdings)),
	}

	quotes, err := s.gateway.LiveQuotesBulk(ctx)
	if err != nil {
		// Quotes unavailable: serve the bare holdings, no aggregate.
		for _, h := range holdings {
			report.Holdings = append(report.Holdings, model.HoldingDetail{HoldingEntry: h})
		}
		return report, nil
	}

	index := indexQuotes(quotes)
	var contribution float64
	for _, h := range holdings {
		detail := model.HoldingDetail{HoldingEntry: h}
		if q, ok := index[eastmoney.NormalizeStockCode(h.StockCode)]; ok {
			detail.LastPrice = q.LastPrice
			detail.PercentChange = q.PercentChange
			detail.QuoteMatched = true
			contribution += h.WeightPercent * q.PercentChange
			report.MatchedWeight += h.WeightPercent
			report.MatchedCount++
		}
		report.Holdings = append(report.Holdings, detail)
	}

	if report.MatchedWeight > 0 {
		report.WeightedChangePercent = contribution / report.MatchedWeight
	}

	return report, nil
}

// filterHoldings applies the holdings invariants: entries with non-positive
// weight are discarded, the rest are ordered by weight descending and
// capped at the ten disclosed positions.
func filterHoldings(holdings []model.HoldingEntry) []model.HoldingEntry {
	filtered := make([]model.HoldingEntry, 0, len(holdings))
	for _, h := range holdings {
		if h.WeightPercent > 0 && h.StockCode != "" {
			filtered = append(filtered, h)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].WeightPercent > filtered[j].WeightPercent
	})

	if len(filtered) > 10 {
		filtered = filtered[:10]
	}
	return filtered
}

// indexQuotes builds a lookup of quote snapshots keyed by normalized stock
// code, so bare holding codes match exchange-prefixed quote codes.
func indexQuotes(quotes []model.QuoteSnapshot) map[string]model.QuoteSnapshot {
	index := make(map[string]model.QuoteSnapshot, len(quotes))
	for _, q := range quotes {
		index[eastmoney.NormalizeStockCode(q.StockCode)] = q
	}
	return index
}

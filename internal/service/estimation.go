package service

import (
	"context"
	"sort"
	"time"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
	"github.com/fundwatch/fundwatch-backend/internal/eastmoney"
	"github.com/fundwatch/fundwatch-backend/internal/model"
)

// sentinelEstimateValue is the placeholder the provider returns for funds
// without a live feed. An estimate of exactly 1.0 is always rejected as
// "no data", even though a genuine valuation of 1.0 is indistinguishable
// from the placeholder. The ambiguity is inherited from the provider
// contract; do not relax this check without re-deriving acceptance
// criteria against a real feed.
const sentinelEstimateValue = 1.0

// Estimate produces the best-available estimation result for a fund code,
// trying tiers in order: the provider's live estimate, the
// holdings-weighted calculation, and the last published NAV. The first two
// tiers only apply during a live trading session.
//
// Gateway failures never escape: each tier either produces a result or
// yields to the next. Only when every tier fails does Estimate return
// apperrors.ErrNotAvailable, so callers can distinguish "no data" from
// "zero change". ComputedAt is set from the caller's clock, making results
// reproducible under a frozen gateway.
func (s *FundService) Estimate(ctx context.Context, code string, now time.Time) (model.EstimationResult, error) {
	if !eastmoney.IsValidFundCode(code) {
		return model.EstimationResult{}, apperrors.ErrInvalidFundCode
	}

	if s.cal.IsLiveSession(now) {
		if result, ok := s.tryLiveEstimate(ctx, code, now); ok {
			return result, nil
		}
		if result, ok := s.tryHoldingsWeighted(ctx, code, now); ok {
			return result, nil
		}
	}

	if result, ok := s.tryLastNav(ctx, code, now); ok {
		return result, nil
	}

	return model.EstimationResult{}, apperrors.ErrNotAvailable
}

// tryLiveEstimate attempts the provider's intraday estimate feed.
func (s *FundService) tryLiveEstimate(ctx context.Context, code string, now time.Time) (model.EstimationResult, bool) {
	estimate, err := s.gateway.FundLiveEstimate(ctx, code)
	if err != nil {
		return model.EstimationResult{}, false
	}
	if estimate.Value == sentinelEstimateValue {
		return model.EstimationResult{}, false
	}

	return model.EstimationResult{
		Code:          code,
		Kind:          model.KindLiveEstimate,
		Value:         estimate.Value,
		ChangePercent: estimate.ChangePercent,
		SourceLabel:   model.KindLiveEstimate.SourceLabel(),
		ComputedAt:    now,
	}, true
}

// tryHoldingsWeighted computes an estimate from the fund's disclosed
// holdings weighted by live quote changes. The weighted change is
// renormalized over the subset of holdings for which a quote matched,
// which assumes the unmatched remainder moves like the matched sample —
// an approximation, not an accuracy bound.
func (s *FundService) tryHoldingsWeighted(ctx context.Context, code string, now time.Time) (model.EstimationResult, bool) {
	raw, err := s.gateway.FundHoldings(ctx, code)
	if err != nil {
		return model.EstimationResult{}, false
	}
	holdings := filterHoldings(raw)
	if len(holdings) == 0 {
		return model.EstimationResult{}, false
	}

	quotes, err := s.gateway.LiveQuotesBulk(ctx)
	if err != nil {
		return model.EstimationResult{}, false
	}
	index := indexQuotes(quotes)

	var contribution, matchedWeight float64
	matched := 0
	for _, h := range holdings {
		q, ok := index[eastmoney.NormalizeStockCode(h.StockCode)]
		if !ok {
			continue
		}
		contribution += h.WeightPercent * q.PercentChange
		matchedWeight += h.WeightPercent
		matched++
	}

	if matched == 0 || matchedWeight == 0 {
		return model.EstimationResult{}, false
	}
	weightedChange := contribution / matchedWeight

	result := model.EstimationResult{
		Code:          code,
		Kind:          model.KindHoldingsWeighted,
		ChangePercent: weightedChange,
		SourceLabel:   model.KindHoldingsWeighted.SourceLabel(),
		ComputedAt:    now,
		SampleCount:   matched,
		SampleWeight:  matchedWeight,
	}

	baseValue := 1.0
	if nav, ok := s.latestNav(ctx, code); ok {
		baseValue = nav.UnitNav
		result.BaselineValue = nav.UnitNav
		result.BaselineDate = nav.Date.Format("2006-01-02")
	} else {
		// Neutral placeholder baseline: only ChangePercent is meaningful.
		result.BaselineMissing = true
	}
	result.Value = baseValue * (1 + weightedChange/100)

	return result, true
}

// tryLastNav falls back to the most recently published NAV.
func (s *FundService) tryLastNav(ctx context.Context, code string, now time.Time) (model.EstimationResult, bool) {
	nav, ok := s.latestNav(ctx, code)
	if !ok {
		return model.EstimationResult{}, false
	}

	result := model.EstimationResult{
		Code:        code,
		Kind:        model.KindLastNav,
		Value:       nav.UnitNav,
		SourceLabel: model.KindLastNav.SourceLabel(),
		ComputedAt:  now,
	}
	if nav.HasGrowth {
		result.ChangePercent = nav.DailyGrowthPercent
	}
	result.BaselineValue = nav.UnitNav
	result.BaselineDate = nav.Date.Format("2006-01-02")

	return result, true
}

// latestNav fetches the fund's NAV history and returns the most recent
// point. The gateway does not guarantee order, so the series is sorted
// here.
func (s *FundService) latestNav(ctx context.Context, code string) (model.NavPoint, bool) {
	points, err := s.gateway.FundNavHistory(ctx, code)
	if err != nil || len(points) == 0 {
		return model.NavPoint{}, false
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.After(points[j].Date)
	})
	return points[0], true
}

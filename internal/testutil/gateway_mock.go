package testutil

import (
	"context"
	"strings"
	"time"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
	"github.com/fundwatch/fundwatch-backend/internal/model"
)

// MockGateway is a mock implementation of eastmoney.Client for testing.
// It returns predefined data instead of making network calls and counts
// invocations per lookup so tests can assert on tier ordering.
type MockGateway struct {
	Profiles      map[string]model.FundProfile
	ProfileErr    error
	Holdings      []model.HoldingEntry
	HoldingsErr   error
	NavPoints     []model.NavPoint
	NavErr        error
	Estimate      model.LiveEstimate
	EstimateErr   error
	Quotes        []model.QuoteSnapshot
	QuotesErr     error
	SearchResults []model.FundProfile
	SearchErr     error

	ProfileCalls  int
	HoldingsCalls int
	NavCalls      int
	EstimateCalls int
	QuotesCalls   int
	SearchCalls   int
}

// NewMockGateway creates a mock with a consistent default fixture: fund
// 161725 holding 600519 at 8% and 000568 at 6%, live quotes of +2% and
// -1% for those stocks (exchange-prefixed, exercising code
// normalization), and a latest NAV of 1.2345. The live-estimate feed is
// unavailable by default so tests start at the holdings-weighted tier.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Profiles: map[string]model.FundProfile{
			"161725": {Code: "161725", Name: "招商中证白酒指数", Category: "指数型"},
		},
		Holdings: []model.HoldingEntry{
			{StockCode: "600519", StockName: "贵州茅台", WeightPercent: 8.0},
			{StockCode: "000568", StockName: "泸州老窖", WeightPercent: 6.0},
		},
		NavPoints: []model.NavPoint{
			{Date: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), UnitNav: 1.2345, DailyGrowthPercent: 0.52, HasGrowth: true},
			{Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), UnitNav: 1.2281, DailyGrowthPercent: -0.12, HasGrowth: true},
		},
		Quotes: []model.QuoteSnapshot{
			{StockCode: "sh600519", StockName: "贵州茅台", LastPrice: 1700.5, PercentChange: 2.0},
			{StockCode: "000568.SZ", StockName: "泸州老窖", LastPrice: 180.2, PercentChange: -1.0},
		},
		EstimateErr: apperrors.ErrGatewayUnavailable,
	}
}

// WithLiveEstimate configures the mock's live-estimate feed to answer.
func (m *MockGateway) WithLiveEstimate(value, changePercent float64) *MockGateway {
	m.Estimate = model.LiveEstimate{Value: value, ChangePercent: changePercent}
	m.EstimateErr = nil
	return m
}

// WithHoldingsError makes the holdings lookup fail.
func (m *MockGateway) WithHoldingsError(err error) *MockGateway {
	m.HoldingsErr = err
	return m
}

// WithQuotesError makes the bulk quote lookup fail.
func (m *MockGateway) WithQuotesError(err error) *MockGateway {
	m.QuotesErr = err
	return m
}

// WithNavError makes the NAV history lookup fail.
func (m *MockGateway) WithNavError(err error) *MockGateway {
	m.NavErr = err
	return m
}

func (m *MockGateway) FundProfile(_ context.Context, code string) (model.FundProfile, error) {
	m.ProfileCalls++
	if m.ProfileErr != nil {
		return model.FundProfile{}, m.ProfileErr
	}
	profile, ok := m.Profiles[code]
	if !ok {
		return model.FundProfile{}, apperrors.ErrFundNotFound
	}
	return profile, nil
}

func (m *MockGateway) FundHoldings(_ context.Context, _ string) ([]model.HoldingEntry, error) {
	m.HoldingsCalls++
	if m.HoldingsErr != nil {
		return nil, m.HoldingsErr
	}
	return m.Holdings, nil
}

func (m *MockGateway) FundNavHistory(_ context.Context, _ string) ([]model.NavPoint, error) {
	m.NavCalls++
	if m.NavErr != nil {
		return nil, m.NavErr
	}
	return m.NavPoints, nil
}

func (m *MockGateway) FundLiveEstimate(_ context.Context, _ string) (model.LiveEstimate, error) {
	m.EstimateCalls++
	if m.EstimateErr != nil {
		return model.LiveEstimate{}, m.EstimateErr
	}
	return m.Estimate, nil
}

func (m *MockGateway) LiveQuotesBulk(_ context.Context) ([]model.QuoteSnapshot, error) {
	m.QuotesCalls++
	if m.QuotesErr != nil {
		return nil, m.QuotesErr
	}
	return m.Quotes, nil
}

func (m *MockGateway) SearchFunds(_ context.Context, keyword string) ([]model.FundProfile, error) {
	m.SearchCalls++
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if m.SearchResults != nil {
		return m.SearchResults, nil
	}
	results := []model.FundProfile{}
	for _, p := range m.Profiles {
		if strings.Contains(p.Code, keyword) || strings.Contains(p.Name, keyword) {
			results = append(results, p)
		}
	}
	return results, nil
}

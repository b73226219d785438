// Package eastmoney implements the market data gateway over the public
// Eastmoney fund and quote endpoints. All knowledge of the provider's
// transport, URLs, and drifting field names is contained here; the rest of
// the application consumes canonical model types.
package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
	"github.com/fundwatch/fundwatch-backend/internal/model"
)

// Client is the set of market-data lookups the estimation engine and
// watch-list services depend on. Every operation may fail, return empty
// results, or return differently-shaped records across calls; callers must
// treat failures as "this lookup is unavailable", never as fatal.
type Client interface {
	FundProfile(ctx context.Context, code string) (model.FundProfile, error)
	FundHoldings(ctx context.Context, code string) ([]model.HoldingEntry, error)
	FundNavHistory(ctx context.Context, code string) ([]model.NavPoint, error)
	FundLiveEstimate(ctx context.Context, code string) (model.LiveEstimate, error)
	LiveQuotesBulk(ctx context.Context) ([]model.QuoteSnapshot, error)
	SearchFunds(ctx context.Context, keyword string) ([]model.FundProfile, error)
}

// quoteCacheTTL bounds how often the whole-market quote list is refetched.
// The list covers every listed security, so one fetch serves a full
// watch-list refresh.
const quoteCacheTTL = 30 * time.Second

// HTTPClient is the production Client over the public Eastmoney endpoints.
type HTTPClient struct {
	httpClient *http.Client

	estimateBaseURL string
	mobileBaseURL   string
	quoteBaseURL    string
	searchBaseURL   string

	quoteMu        sync.Mutex
	quoteFetchedAt time.Time
	quoteCache     []model.QuoteSnapshot
}

// NewHTTPClient creates a gateway client with the production endpoints and
// the given per-request timeout.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		httpClient:      &http.Client{Timeout: timeout},
		estimateBaseURL: "https://fundgz.1234567.com.cn",
		mobileBaseURL:   "https://fundmobapi.eastmoney.com",
		quoteBaseURL:    "https://push2.eastmoney.com",
		searchBaseURL:   "https://fundsuggest.eastmoney.com",
	}
}

// WithBaseURLs points every endpoint at the given base URL. Used by tests
// to serve recorded payloads from a local server.
func (c *HTTPClient) WithBaseURLs(base string) *HTTPClient {
	c.estimateBaseURL = base
	c.mobileBaseURL = base
	c.quoteBaseURL = base
	c.searchBaseURL = base
	return c
}

// FundProfile looks up fund metadata by exact code. The provider has no
// dedicated profile endpoint, so this is a search narrowed to the code.
func (c *HTTPClient) FundProfile(ctx context.Context, code string) (model.FundProfile, error) {
	results, err := c.SearchFunds(ctx, code)
	if err != nil {
		return model.FundProfile{}, err
	}
	for _, p := range results {
		if p.Code == code {
			return p, nil
		}
	}
	return model.FundProfile{}, fmt.Errorf("no profile for fund %s: %w", code, apperrors.ErrFundNotFound)
}

// FundHoldings fetches the disclosed top-10 holdings for a fund. Rows are
// returned unfiltered; entries whose weight could not be parsed carry a
// zero weight and are discarded by the caller.
func (c *HTTPClient) FundHoldings(ctx context.Context, code string) ([]model.HoldingEntry, error) {
	u := fmt.Sprintf(
		"%s/FundMNewApi/FundMNInverstPosition?FCODE=%s&deviceid=fundwatch&plat=Wap&product=EFund&version=6.2.8",
		c.mobileBaseURL, url.QueryEscape(code),
	)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var envelope mobileEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse holdings response: %w", apperrors.ErrGatewayUnavailable)
	}

	rows, err := holdingRows(envelope.Datas)
	if err != nil {
		return nil, err
	}

	holdings := make([]model.HoldingEntry, 0, len(rows))
	for _, row := range rows {
		stockCode, ok := pickString(row, holdingCodeKeys...)
		if !ok {
			continue
		}
		stockName, _ := pickString(row, holdingNameKeys...)
		weight, _ := pickFloat(row, holdingWeightKeys...)
		holdings = append(holdings, model.HoldingEntry{
			StockCode:     stockCode,
			StockName:     stockName,
			WeightPercent: weight,
		})
	}

	return holdings, nil
}

// holdingRows accepts both observed shapes of the holdings Datas field:
// an object with a fundStocks list, and a bare array of rows.
func holdingRows(datas json.RawMessage) ([]map[string]any, error) {
	if len(datas) == 0 || string(datas) == "null" {
		return nil, nil
	}

	var object holdingsDatas
	if err := json.Unmarshal(datas, &object); err == nil && object.FundStocks != nil {
		return object.FundStocks, nil
	}

	var rows []map[string]any
	if err := json.Unmarshal(datas, &rows); err == nil {
		return rows, nil
	}

	return nil, fmt.Errorf("unrecognized holdings payload shape: %w", apperrors.ErrGatewayUnavailable)
}

// FundNavHistory fetches recent published NAV points for a fund. Order is
// not guaranteed; callers sort newest-first before use.
func (c *HTTPClient) FundNavHistory(ctx context.Context, code string) ([]model.NavPoint, error) {
	u := fmt.Sprintf(
		"%s/FundMNewApi/FundMNHisNetList?FCODE=%s&pageIndex=1&pageSize=30&deviceid=fundwatch&plat=Wap&product=EFund&version=6.2.8",
		c.mobileBaseURL, url.QueryEscape(code),
	)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var envelope mobileEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse NAV response: %w", apperrors.ErrGatewayUnavailable)
	}

	var rows []map[string]any
	if len(envelope.Datas) > 0 && string(envelope.Datas) != "null" {
		if err := json.Unmarshal(envelope.Datas, &rows); err != nil {
			return nil, fmt.Errorf("unrecognized NAV payload shape: %w", apperrors.ErrGatewayUnavailable)
		}
	}

	points := make([]model.NavPoint, 0, len(rows))
	for _, row := range rows {
		dateStr, ok := pickString(row, navDateKeys...)
		if !ok {
			continue
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		unitNav, ok := pickFloat(row, navUnitKeys...)
		if !ok {
			continue
		}

		point := model.NavPoint{Date: date, UnitNav: unitNav}
		if accum, ok := pickFloat(row, navAccumKeys...); ok {
			point.AccumulatedNav = accum
		}
		if growth, ok := pickFloat(row, navGrowthKeys...); ok {
			point.DailyGrowthPercent = growth
			point.HasGrowth = true
		}
		points = append(points, point)
	}

	return points, nil
}

// FundLiveEstimate fetches the provider's intraday NAV estimate. The
// endpoint answers JSONP; the payload inside the wrapper is JSON.
//
// The provider returns its placeholder value for funds without a live
// feed; rejecting that sentinel is the estimation engine's policy, not
// the gateway's.
func (c *HTTPClient) FundLiveEstimate(ctx context.Context, code string) (model.LiveEstimate, error) {
	u := fmt.Sprintf("%s/js/%s.js?rt=%d", c.estimateBaseURL, url.PathEscape(code), time.Now().UnixMilli())
	body, err := c.get(ctx, u)
	if err != nil {
		return model.LiveEstimate{}, err
	}

	payload, err := stripJSONP(body)
	if err != nil {
		return model.LiveEstimate{}, err
	}

	var row map[string]any
	if err := json.Unmarshal(payload, &row); err != nil {
		return model.LiveEstimate{}, fmt.Errorf("failed to parse live estimate: %w", apperrors.ErrGatewayUnavailable)
	}

	value, ok := pickFloat(row, estimateValueKeys...)
	if !ok {
		return model.LiveEstimate{}, fmt.Errorf("live estimate for %s has no value: %w", code, apperrors.ErrFundNotFound)
	}

	estimate := model.LiveEstimate{Value: value}
	if change, ok := pickFloat(row, estimateChangeKeys...); ok {
		estimate.ChangePercent = change
	}
	if ts, ok := pickString(row, estimateTimeKeys...); ok {
		if parsed, err := time.Parse("2006-01-02 15:04", ts); err == nil {
			estimate.Time = parsed
		}
	}

	return estimate, nil
}

// stripJSONP unwraps a jsonpgz(...) callback body to its JSON payload.
func stripJSONP(body []byte) ([]byte, error) {
	s := string(body)
	start := strings.Index(s, "(")
	end := strings.LastIndex(s, ")")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("response is not a JSONP callback: %w", apperrors.ErrGatewayUnavailable)
	}
	return []byte(s[start+1 : end]), nil
}

// LiveQuotesBulk fetches the current quote snapshot for the whole A-share
// market in one call. Results are cached briefly so a watch-list refresh
// pays for one fetch, not one per holding.
func (c *HTTPClient) LiveQuotesBulk(ctx context.Context) ([]model.QuoteSnapshot, error) {
	c.quoteMu.Lock()
	defer c.quoteMu.Unlock()

	if c.quoteCache != nil && time.Since(c.quoteFetchedAt) < quoteCacheTTL {
		return c.quoteCache, nil
	}

	u := fmt.Sprintf(
		"%s/api/qt/clist/get?pn=1&pz=10000&po=1&np=1&fltt=2&invt=2&fs=m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23&fields=f2,f3,f12,f14",
		c.quoteBaseURL,
	)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	quotes, err := parseBulkQuotes(body)
	if err != nil {
		return nil, err
	}

	c.quoteCache = quotes
	c.quoteFetchedAt = time.Now()
	return quotes, nil
}

// parseBulkQuotes handles both observed shapes of the quote list: an array
// of rows and an index-keyed object of rows. Rows without a parsable
// change percentage (suspended securities) are skipped.
func parseBulkQuotes(body []byte) ([]model.QuoteSnapshot, error) {
	var envelope quoteEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", apperrors.ErrGatewayUnavailable)
	}

	var rows []map[string]any
	if len(envelope.Data.Diff) > 0 && string(envelope.Data.Diff) != "null" {
		if err := json.Unmarshal(envelope.Data.Diff, &rows); err != nil {
			var keyed map[string]map[string]any
			if err := json.Unmarshal(envelope.Data.Diff, &keyed); err != nil {
				return nil, fmt.Errorf("unrecognized quote payload shape: %w", apperrors.ErrGatewayUnavailable)
			}
			rows = make([]map[string]any, 0, len(keyed))
			for _, row := range keyed {
				rows = append(rows, row)
			}
		}
	}

	quotes := make([]model.QuoteSnapshot, 0, len(rows))
	for _, row := range rows {
		code, ok := pickString(row, quoteCodeKeys...)
		if !ok {
			continue
		}
		change, ok := pickFloat(row, quoteChangeKeys...)
		if !ok {
			continue
		}
		name, _ := pickString(row, quoteNameKeys...)
		price, _ := pickFloat(row, quotePriceKeys...)
		quotes = append(quotes, model.QuoteSnapshot{
			StockCode:     code,
			StockName:     name,
			LastPrice:     price,
			PercentChange: change,
		})
	}

	return quotes, nil
}

// SearchFunds performs a substring search over fund codes and names.
// Results are ordered code-matches first, capped at 20 like the provider UI.
func (c *HTTPClient) SearchFunds(ctx context.Context, keyword string) ([]model.FundProfile, error) {
	u := fmt.Sprintf("%s/FundSearch/api/FundSearchAPI.ashx?m=1&key=%s", c.searchBaseURL, url.QueryEscape(keyword))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", apperrors.ErrGatewayUnavailable)
	}

	profiles := make([]model.FundProfile, 0, len(envelope.Datas))
	for _, row := range envelope.Datas {
		// Base-info sub-objects carry the category on some API versions.
		if sub, ok := row["FundBaseInfo"].(map[string]any); ok {
			for k, v := range sub {
				if _, exists := row[k]; !exists {
					row[k] = v
				}
			}
		}

		code, ok := pickString(row, searchCodeKeys...)
		if !ok {
			continue
		}
		name, _ := pickString(row, searchNameKeys...)
		category, _ := pickString(row, searchCategoryKeys...)
		profiles = append(profiles, model.FundProfile{
			Code:     code,
			Name:     name,
			Category: category,
		})
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return strings.Contains(profiles[i].Code, keyword) && !strings.Contains(profiles[j].Code, keyword)
	})
	if len(profiles) > 20 {
		profiles = profiles[:20]
	}

	return profiles, nil
}

// get executes a GET request and returns the response body. Transport
// failures and non-2xx statuses are reported as gateway-unavailable.
func (c *HTTPClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v: %w", err, apperrors.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, apperrors.ErrGatewayUnavailable)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v: %w", err, apperrors.ErrGatewayUnavailable)
	}

	return data, nil
}

package eastmoney

import "encoding/json"

// mobileEnvelope is the common wrapper of the fund mobile API endpoints.
// Datas is left raw because its shape drifts between endpoints and between
// calls: sometimes an object with named lists, sometimes a bare array.
type mobileEnvelope struct {
	Datas     json.RawMessage `json:"Datas"`
	ErrCode   int             `json:"ErrCode"`
	ErrMsg    string          `json:"ErrMsg"`
	Success   bool            `json:"Success"`
	TotalCount int            `json:"TotalCount"`
}

// holdingsDatas is the object form of the holdings endpoint's Datas field.
type holdingsDatas struct {
	FundStocks []map[string]any `json:"fundStocks"`
}

// quoteEnvelope is the wrapper of the whole-market quote list endpoint.
// Diff is raw because the provider switches between an array and an
// index-keyed object for the same field.
type quoteEnvelope struct {
	Data struct {
		Total int             `json:"total"`
		Diff  json.RawMessage `json:"diff"`
	} `json:"data"`
}

// searchEnvelope is the wrapper of the fund search endpoint.
type searchEnvelope struct {
	Datas []map[string]any `json:"Datas"`
}

package eastmoney

import (
	"fmt"
	"strconv"
	"strings"
)

// The provider renames fields across endpoints, API versions, and sometimes
// between calls. All tolerance for that drift lives here: one candidate
// list per canonical field, tried in priority order. Call sites never guess
// field names themselves.
var (
	holdingCodeKeys   = []string{"GPDM", "stockCode", "SECUCODE", "股票代码"}
	holdingNameKeys   = []string{"GPJC", "stockName", "SECURITY_NAME_ABBR", "股票名称"}
	holdingWeightKeys = []string{"JZBL", "weightPercent", "GP_JZBL", "占净值比例"}

	navDateKeys   = []string{"FSRQ", "date", "净值日期"}
	navUnitKeys   = []string{"DWJZ", "unitNav", "单位净值"}
	navAccumKeys  = []string{"LJJZ", "accumulatedNav", "累计净值"}
	navGrowthKeys = []string{"JZZZL", "dailyGrowthPercent", "日增长率"}

	quoteCodeKeys   = []string{"f12", "code", "代码"}
	quoteNameKeys   = []string{"f14", "name", "名称"}
	quotePriceKeys  = []string{"f2", "lastPrice", "最新价"}
	quoteChangeKeys = []string{"f3", "percentChange", "涨跌幅"}

	estimateValueKeys  = []string{"gsz", "estimatedValue", "估算净值"}
	estimateChangeKeys = []string{"gszzl", "estimatedChangePercent", "估算涨跌幅"}
	estimateTimeKeys   = []string{"gztime", "estimateTime", "估算时间"}

	searchCodeKeys     = []string{"CODE", "FCODE", "code", "基金代码"}
	searchNameKeys     = []string{"NAME", "SHORTNAME", "name", "基金简称"}
	searchCategoryKeys = []string{"CATEGORYDESC", "FTYPE", "FUNDTYPE", "基金类型"}
)

// pickString returns the first candidate key present in row with a
// non-empty value, converting numbers to their string form.
func pickString(row map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch value := v.(type) {
		case string:
			trimmed := strings.TrimSpace(value)
			if trimmed != "" && trimmed != "-" && trimmed != "--" {
				return trimmed, true
			}
		case float64:
			return strconv.FormatFloat(value, 'f', -1, 64), true
		}
	}
	return "", false
}

// pickFloat returns the first candidate key present in row that parses as a
// number. String values may carry a percent sign, an explicit plus sign, or
// placeholder dashes; placeholders count as absent.
func pickFloat(row map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch value := v.(type) {
		case float64:
			return value, true
		case string:
			f, err := parseNumeric(value)
			if err != nil {
				continue
			}
			return f, true
		}
	}
	return 0, false
}

// parseNumeric parses a provider numeric string, tolerating "%" suffixes,
// leading "+", and surrounding whitespace. Placeholder values ("", "-",
// "--") are errors, not zeros.
func parseNumeric(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.TrimPrefix(cleaned, "+")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || cleaned == "-" || cleaned == "--" {
		return 0, fmt.Errorf("placeholder value %q", s)
	}
	return strconv.ParseFloat(cleaned, 64)
}

// knownMarketAffixes are exchange markers seen around bare security codes:
// "sh600519", "SZ000568", "600519.SS", "000568.SZ", and similar.
var knownMarketAffixes = []string{"sh", "sz", "bj", "hk", "of", "ss"}

// NormalizeStockCode reduces an exchange-qualified security code to its
// bare numeric body so that holdings (bare codes) and live quotes
// (prefixed or suffixed codes) can be matched against each other.
func NormalizeStockCode(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if c == "" {
		return ""
	}

	if dot := strings.LastIndex(c, "."); dot >= 0 {
		suffix := c[dot+1:]
		for _, affix := range knownMarketAffixes {
			if suffix == affix {
				c = c[:dot]
				break
			}
		}
	}

	for _, affix := range knownMarketAffixes {
		if strings.HasPrefix(c, affix) && len(c) > len(affix) && isDigits(c[len(affix):]) {
			return c[len(affix):]
		}
	}

	return c
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsValidFundCode reports whether code is a 6-digit fund identifier.
// No deeper validation is performed; unknown codes simply fail lookups.
func IsValidFundCode(code string) bool {
	return len(code) == 6 && isDigits(code)
}

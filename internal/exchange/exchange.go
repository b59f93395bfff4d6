package exchange

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultCurrency is the quote currency of symbols without a vendor suffix.
const DefaultCurrency = "USD"

// Exchange describes how the price vendor names listings of one exchange.
type Exchange struct {
	Code       string
	Suffix     string // appended to the raw symbol, e.g. ".HK"
	ShareClass string // injected between symbol and suffix, TSE only
	Currency   string
}

var exchanges = map[string]Exchange{
	"NYSE":   {Code: "NYSE", Currency: "USD"},
	"NASDAQ": {Code: "NASDAQ", Currency: "USD"},
	"HKG":    {Code: "HKG", Suffix: ".HK", Currency: "HKD"},
	"EPA":    {Code: "EPA", Suffix: ".PA", Currency: "EUR"},
	"LON":    {Code: "LON", Suffix: ".L", Currency: "GBP"},
	// CTC-A is the only Toronto listing in the competition, hence the fixed class.
	"TSE":   {Code: "TSE", Suffix: ".TO", ShareClass: "-A", Currency: "CAD"},
	"CVE":   {Code: "CVE", Suffix: ".V", Currency: "CAD"},
	"XETRA": {Code: "XETRA", Suffix: ".DE", Currency: "EUR"},
}

// suffixes sorted longest first so ".TO" is never shadowed by a shorter match.
var suffixes = buildSuffixes()

func buildSuffixes() []Exchange {
	res := make([]Exchange, 0, len(exchanges))
	for _, e := range exchanges {
		if e.Suffix != "" {
			res = append(res, e)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if len(res[i].Suffix) != len(res[j].Suffix) {
			return len(res[i].Suffix) > len(res[j].Suffix)
		}
		return res[i].Suffix < res[j].Suffix
	})
	return res
}

// FormatTicker maps a raw symbol and exchange code to the vendor lookup symbol.
// Unknown exchanges fall back to the raw symbol.
func FormatTicker(symbol, exchangeCode string) string {
	e, ok := exchanges[exchangeCode]
	if !ok {
		return symbol
	}
	return symbol + e.ShareClass + e.Suffix
}

// IsKnown reports whether the exchange code is in the table.
func IsKnown(exchangeCode string) bool {
	_, ok := exchanges[exchangeCode]
	return ok
}

// Lookup returns the table entry for the exchange code.
func Lookup(exchangeCode string) (Exchange, bool) {
	e, ok := exchanges[exchangeCode]
	return e, ok
}

// CurrencyOf returns the quote currency of a formatted lookup ticker, judged by its suffix.
func CurrencyOf(lookupTicker string) string {
	for _, e := range suffixes {
		if strings.HasSuffix(lookupTicker, e.Suffix) {
			return e.Currency
		}
	}
	return DefaultCurrency
}

// FxSymbol returns the vendor pseudo-symbol of a daily from->to rate series.
func FxSymbol(from, to string) string {
	return fmt.Sprintf("%s%s=X", from, to)
}

// Currencies returns every currency present in the table, sorted.
func Currencies() []string {
	seen := make(map[string]struct{})
	for _, e := range exchanges {
		seen[e.Currency] = struct{}{}
	}
	res := make([]string, 0, len(seen))
	for c := range seen {
		res = append(res, c)
	}
	sort.Strings(res)
	return res
}

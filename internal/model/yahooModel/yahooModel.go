package yahooModel

// ChartResponse is the body of /v8/finance/chart/{symbol}.
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *ChartError   `json:"error"`
	} `json:"chart"`
}

type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type ChartResult struct {
	Meta       ChartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type ChartMeta struct {
	Currency     string `json:"currency"`
	Symbol       string `json:"symbol"`
	ExchangeName string `json:"exchangeName"`
	GmtOffset    int64  `json:"gmtoffset"`
	Timezone     string `json:"timezone"`
}

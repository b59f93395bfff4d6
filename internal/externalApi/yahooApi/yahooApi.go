package yahooApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/KotFed0t/stockpicking_tracker/config"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/externalApi"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/internal/model/yahooModel"
	"github.com/KotFed0t/stockpicking_tracker/utils"
	"github.com/go-resty/resty/v2"
)

type YahooApi struct {
	client   *resty.Client
	adjusted bool
}

func New(cfg *config.Config) *YahooApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.YahooApi.Url).
		SetHeader("User-Agent", cfg.API.YahooApi.UserAgent).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
	return &YahooApi{client: client, adjusted: cfg.API.YahooApi.Adjusted}
}

// GetDailyCloses returns daily closes of symbol for dates in [from, to).
// Days the vendor reports without a close are left out.
func (a *YahooApi) GetDailyCloses(ctx context.Context, symbol string, from, to date.Date) ([]model.PricePoint, error) {
	rqId := utils.GetRequestIDFromCtx(ctx)
	path := "/v8/finance/chart/" + url.PathEscape(symbol)
	params := map[string]string{
		"period1":  strconv.FormatInt(from.Unix(), 10),
		"period2":  strconv.FormatInt(to.Unix(), 10),
		"interval": "1d",
		"events":   "history",
	}

	slog.Debug(
		"start YahooApi.GetDailyCloses request",
		slog.String("rqID", rqId),
		slog.String("symbol", symbol),
		slog.Any("params", params),
	)

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(path)

	if err != nil {
		slog.Error("error while dialing YahooApi", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return nil, err
	}

	chart := yahooModel.ChartResponse{}
	unmarshalErr := json.Unmarshal(resp.Body(), &chart)

	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%s: %w", symbol, externalApi.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %s: %w", symbol, chart.Chart.Error.Description, externalApi.ErrBadStatus)
	}
	if resp.IsError() {
		slog.Error("YahooApi bad status", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqId))
		return nil, fmt.Errorf("%s: status %d: %w", symbol, resp.StatusCode(), externalApi.ErrBadStatus)
	}
	if unmarshalErr != nil {
		slog.Error("can't unmarshall response into yahooModel.ChartResponse", slog.String("err", unmarshalErr.Error()), slog.String("rqID", rqId))
		return nil, unmarshalErr
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, externalApi.ErrNoChartData)
	}

	res := a.parseChart(chart.Chart.Result[0], from, to)

	slog.Debug(
		"YahooApi.GetDailyCloses request complete",
		slog.String("rqID", rqId),
		slog.String("symbol", symbol),
		slog.Int("points", len(res)),
	)

	return res, nil
}

func (a *YahooApi) parseChart(result yahooModel.ChartResult, from, to date.Date) []model.PricePoint {
	var closes []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}
	if a.adjusted && len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) > 0 {
		closes = result.Indicators.AdjClose[0].AdjClose
	}

	res := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}

		// trading day in the exchange's own calendar
		d := date.FromTime(time.Unix(ts+result.Meta.GmtOffset, 0).UTC())
		if d.Before(from) || !d.Before(to) {
			continue
		}

		if n := len(res); n > 0 && res[n-1].Date == d {
			res[n-1].Close = *closes[i]
			continue
		}
		res = append(res, model.PricePoint{Date: d, Close: *closes[i]})
	}

	return res
}

package yahooApi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KotFed0t/stockpicking_tracker/config"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/externalApi"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-02-28 and 2025-03-03 09:30 in Hong Kong (UTC+8), plus 2025-03-04 with a null close.
const hkChart = `{
  "chart": {
    "result": [{
      "meta": {"currency": "HKD", "symbol": "0700.HK", "exchangeName": "HKG", "gmtoffset": 28800, "timezone": "HKT"},
      "timestamp": [1740706200, 1740965400, 1741051800],
      "indicators": {
        "quote": [{"close": [510.5, 512.0, null]}],
        "adjclose": [{"adjclose": [505.1, 507.0, null]}]
      }
    }],
    "error": null
  }
}`

const notFound = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newApi(t *testing.T, handler http.HandlerFunc, adjusted bool) *YahooApi {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{API: config.API{
		Timeout:  5 * time.Second,
		YahooApi: config.YahooApi{Url: srv.URL, UserAgent: "test-agent", Adjusted: adjusted},
	}}
	return New(cfg)
}

func TestGetDailyCloses(t *testing.T) {
	from := date.MustParse("2025-02-01")
	to := date.MustParse("2025-03-10")

	api := newApi(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/0700.HK", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1738368000", r.URL.Query().Get("period1"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(hkChart))
	}, false)

	points, err := api.GetDailyCloses(context.Background(), "0700.HK", from, to)
	require.NoError(t, err)
	assert.Equal(t, []model.PricePoint{
		{Date: date.MustParse("2025-02-28"), Close: 510.5},
		{Date: date.MustParse("2025-03-03"), Close: 512.0},
	}, points)
}

func TestGetDailyClosesAdjusted(t *testing.T) {
	api := newApi(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(hkChart))
	}, true)

	points, err := api.GetDailyCloses(context.Background(), "0700.HK", date.MustParse("2025-03-01"), date.MustParse("2025-03-10"))
	require.NoError(t, err)
	assert.Equal(t, []model.PricePoint{{Date: date.MustParse("2025-03-03"), Close: 507.0}}, points)
}

func TestGetDailyClosesEndIsExclusive(t *testing.T) {
	api := newApi(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(hkChart))
	}, false)

	points, err := api.GetDailyCloses(context.Background(), "0700.HK", date.MustParse("2025-02-01"), date.MustParse("2025-03-03"))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, date.MustParse("2025-02-28"), points[0].Date)
}

func TestGetDailyClosesNotFound(t *testing.T) {
	api := newApi(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(notFound))
	}, false)

	_, err := api.GetDailyCloses(context.Background(), "NOPE", date.MustParse("2025-02-01"), date.MustParse("2025-03-01"))
	assert.ErrorIs(t, err, externalApi.ErrNotFound)
}

func TestGetDailyClosesBadStatus(t *testing.T) {
	api := newApi(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad request"))
	}, false)

	_, err := api.GetDailyCloses(context.Background(), "AAA", date.MustParse("2025-02-01"), date.MustParse("2025-03-01"))
	assert.ErrorIs(t, err, externalApi.ErrBadStatus)
}

package competitionService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/KotFed0t/stockpicking_tracker/data/cache"
	"github.com/KotFed0t/stockpicking_tracker/data/repository"
	"github.com/KotFed0t/stockpicking_tracker/internal/calculator"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/exchange"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/internal/service"
	"github.com/KotFed0t/stockpicking_tracker/utils"
	"golang.org/x/sync/errgroup"
)

type window struct {
	from date.Date
	to   date.Date
}

func (w window) empty() bool {
	return !w.from.Before(w.to)
}

// DownloadAndSavePrices fetches every ticker's closes since its last stored date,
// converts them to the reporting currency and stores them in one transaction.
// A ticker that fails to download is reported and skipped.
func (s *CompetitionService) DownloadAndSavePrices(ctx context.Context, report *model.RunReport) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CompetitionService.DownloadAndSavePrices"

	slog.Debug("DownloadAndSavePrices start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("DownloadAndSavePrices finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	positions, err := s.repo.GetPositions(ctx)
	if err != nil {
		slog.Error("got error from repo.GetPositions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}
	if len(positions) == 0 {
		return service.ErrNoPositions
	}

	latest, err := s.repo.GetLatestPriceDates(ctx)
	if err != nil {
		slog.Error("got error from repo.GetLatestPriceDates", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	end := s.endDate()
	windows := make(map[string]window)
	for _, p := range positions {
		if _, ok := windows[p.FormattedTicker]; ok {
			continue
		}
		last := latest[p.FormattedTicker]
		if s.cfg.API.YahooApi.Adjusted {
			// the vendor rescales the whole adjusted history after a dividend or split
			last = date.Date{}
		}
		w := s.windowAfter(last, end)
		if w.empty() {
			report.UpToDateTickers = append(report.UpToDateTickers, p.FormattedTicker)
			continue
		}
		windows[p.FormattedTicker] = w
	}
	sort.Strings(report.UpToDateTickers)

	fetched := s.fetchTickers(ctx, windows, report)

	byCurrency := make(map[string][]string)
	for ticker := range fetched {
		currency := exchange.CurrencyOf(ticker)
		byCurrency[currency] = append(byCurrency[currency], ticker)
	}

	var prices []model.DailyPrice
	for currency, tickers := range byCurrency {
		sort.Strings(tickers)

		var rates model.Series
		if currency != s.cfg.Competition.ReportingCurrency {
			since := end
			for _, t := range tickers {
				since = date.Min(since, windows[t].from)
			}
			rates, err = s.loadRates(ctx, currency, since, end)
			if err != nil {
				return err
			}
		}

		for _, ticker := range tickers {
			normalized, err := calculator.NormalizeSeries(fetched[ticker], currency, s.cfg.Competition.ReportingCurrency, rates)
			var fxErr *calculator.MissingFxSeriesError
			if errors.As(err, &fxErr) {
				slog.Warn(
					"dropping prices without exchange rates",
					slog.String("rqID", rqID),
					slog.String("op", op),
					slog.String("currency", currency),
					slog.Any("tickers", tickers),
				)
				report.DroppedCurrencies[currency] = fxErr.Error()
				break
			}
			if err != nil {
				return err
			}

			for _, d := range normalized.Dates() {
				prices = append(prices, model.DailyPrice{Date: d, Ticker: ticker, Price: normalized[d]})
			}
		}
	}

	if len(prices) == 0 {
		slog.Info("no new prices", slog.String("rqID", rqID), slog.String("op", op))
		return nil
	}

	sort.Slice(prices, func(i, j int) bool {
		if prices[i].Ticker != prices[j].Ticker {
			return prices[i].Ticker < prices[j].Ticker
		}
		return prices[i].Date.Before(prices[j].Date)
	})

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpsertDailyPrices(ctx, prices)
	})
	if err != nil {
		slog.Error("got error from repo.UpsertDailyPrices", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	report.PricesSaved = len(prices)
	slog.Info("prices saved", slog.String("rqID", rqID), slog.Int("rows", len(prices)), slog.Int("tickers", len(fetched)))

	return nil
}

// windowAfter returns the fetch window following the last stored date.
func (s *CompetitionService) windowAfter(last, end date.Date) window {
	from := s.cfg.Competition.StartDate
	if !last.IsZero() && !s.cfg.Competition.FullRefresh {
		from = last.AddDays(1)
	}
	return window{from: from, to: end}
}

// fetchTickers downloads ticker windows concurrently. Failed or empty tickers are left out of the result.
func (s *CompetitionService) fetchTickers(ctx context.Context, windows map[string]window, report *model.RunReport) map[string]model.Series {
	rqID := utils.GetRequestIDFromCtx(ctx)

	tickers := make([]string, 0, len(windows))
	for t := range windows {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	var mu sync.Mutex
	res := make(map[string]model.Series, len(tickers))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Competition.FetchConcurrency)

	for _, ticker := range tickers {
		ticker := ticker
		w := windows[ticker]
		g.Go(func() error {
			points, err := s.fetchSeries(gCtx, ticker, w)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				slog.Warn("ticker download failed", slog.String("rqID", rqID), slog.String("ticker", ticker), slog.String("err", err.Error()))
				report.FailedTickers[ticker] = err.Error()
				return nil
			}
			report.FetchedTickers = append(report.FetchedTickers, ticker)
			if len(points) > 0 {
				res[ticker] = model.SeriesFromPoints(points)
			}
			return nil
		})
	}

	// goroutines never return an error, failures are recorded in the report
	_ = g.Wait()
	sort.Strings(report.FetchedTickers)

	return res
}

// fetchSeries reads the window from cache, falling back to the price API.
func (s *CompetitionService) fetchSeries(ctx context.Context, symbol string, w window) ([]model.PricePoint, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	points, err := s.cache.GetSeries(ctx, symbol, w.from, w.to)
	if err == nil {
		slog.Debug("series from cache", slog.String("rqID", rqID), slog.String("symbol", symbol))
		return points, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("cache read failed", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.String("err", err.Error()))
	}

	points, err = s.priceApi.GetDailyCloses(ctx, symbol, w.from, w.to)
	if err != nil {
		return nil, fmt.Errorf("download %s %s..%s: %w", symbol, w.from, w.to, err)
	}

	if err := s.cache.SetSeries(ctx, symbol, w.from, w.to, points); err != nil {
		slog.Warn("cache write failed", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.String("err", err.Error()))
	}

	return points, nil
}

// loadRates brings the stored currency->reporting rates up to date and returns them from since on.
// A failed download falls back to whatever is already stored.
func (s *CompetitionService) loadRates(ctx context.Context, currency string, since, end date.Date) (model.Series, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CompetitionService.loadRates"
	reporting := s.cfg.Competition.ReportingCurrency

	last, err := s.repo.GetLatestRateDate(ctx, currency, reporting)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		slog.Error("got error from repo.GetLatestRateDate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	w := s.windowAfter(last, end)
	if !w.empty() {
		symbol := exchange.FxSymbol(currency, reporting)
		points, err := s.fetchSeries(ctx, symbol, w)
		if err != nil {
			slog.Warn("exchange rate download failed", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.String("err", err.Error()))
		} else if len(points) > 0 {
			rates := make([]model.ExchangeRate, 0, len(points))
			for _, p := range points {
				rates = append(rates, model.ExchangeRate{Date: p.Date, FromCurrency: currency, ToCurrency: reporting, Rate: p.Close})
			}
			err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
				return s.repo.UpsertExchangeRates(ctx, rates)
			})
			if err != nil {
				slog.Error("got error from repo.UpsertExchangeRates", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
				return nil, err
			}
		}
	}

	stored, err := s.repo.GetExchangeRates(ctx, currency, reporting, since)
	if err != nil {
		slog.Error("got error from repo.GetExchangeRates", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	res := make(model.Series, len(stored))
	for _, r := range stored {
		res[r.Date] = r.Rate
	}
	return res, nil
}

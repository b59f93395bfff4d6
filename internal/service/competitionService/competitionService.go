package competitionService

import (
	"context"
	"io"
	"time"

	"github.com/KotFed0t/stockpicking_tracker/config"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
)

const lockKey = "stockpicking:pipeline:lock"

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
	ListTables(ctx context.Context) ([]string, error)

	UpsertPositions(ctx context.Context, positions []model.Position) error
	DeletePositions(ctx context.Context, positions []model.Position) error
	GetPositions(ctx context.Context) ([]model.Position, error)
	UpdateAllocations(ctx context.Context, positions []model.Position) error

	UpsertDailyPrices(ctx context.Context, prices []model.DailyPrice) error
	GetLatestPriceDates(ctx context.Context) (map[string]date.Date, error)
	GetAnchorDate(ctx context.Context, valuationDate date.Date) (date.Date, error)
	GetPricesOn(ctx context.Context, d date.Date) ([]model.DailyPrice, error)
	GetPricesSince(ctx context.Context, d date.Date) ([]model.DailyPrice, error)

	UpsertExchangeRates(ctx context.Context, rates []model.ExchangeRate) error
	GetLatestRateDate(ctx context.Context, from, to string) (date.Date, error)
	GetExchangeRates(ctx context.Context, from, to string, since date.Date) ([]model.ExchangeRate, error)

	UpsertPortfolioValues(ctx context.Context, values []model.PortfolioValue) error
	DeletePortfolioValuesBefore(ctx context.Context, anchor date.Date) error
	DeletePortfolioValuesOf(ctx context.Context, names []string) error
	GetPortfolioValues(ctx context.Context) ([]model.PortfolioValue, error)

	ReplacePerformanceMetrics(ctx context.Context, metrics []model.PerformanceMetric) error
	GetPerformanceMetrics(ctx context.Context) ([]model.PerformanceMetric, error)
}

type PriceApi interface {
	GetDailyCloses(ctx context.Context, symbol string, from, to date.Date) ([]model.PricePoint, error)
}

type Cache interface {
	GetSeries(ctx context.Context, symbol string, from, to date.Date) ([]model.PricePoint, error)
	SetSeries(ctx context.Context, symbol string, from, to date.Date, points []model.PricePoint) error
}

type Locker interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

type PositionSource interface {
	Positions() []model.Position
}

type ReportGenerator interface {
	Generate(ctx context.Context, report model.Report) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
	DeleteOldFiles(ctx context.Context) error
}

type Notifier interface {
	Send(ctx context.Context, text string) error
}

type CompetitionService struct {
	cfg             *config.Config
	positions       PositionSource
	repo            Repository
	cache           Cache
	priceApi        PriceApi
	locker          Locker
	reportGenerator ReportGenerator
	cloudStorage    CloudStorage
	notifier        Notifier
	now             func() time.Time
}

// New wires the pipeline. cloudStorage and notifier may be nil.
func New(
	cfg *config.Config,
	positions PositionSource,
	repo Repository,
	cache Cache,
	priceApi PriceApi,
	locker Locker,
	reportGenerator ReportGenerator,
	cloudStorage CloudStorage,
	notifier Notifier,
) *CompetitionService {
	return &CompetitionService{
		cfg:             cfg,
		positions:       positions,
		repo:            repo,
		cache:           cache,
		priceApi:        priceApi,
		locker:          locker,
		reportGenerator: reportGenerator,
		cloudStorage:    cloudStorage,
		notifier:        notifier,
		now:             time.Now,
	}
}

func (s *CompetitionService) runDate() date.Date {
	return date.FromTime(s.now().UTC())
}

// endDate is the exclusive upper bound of downloads.
func (s *CompetitionService) endDate() date.Date {
	if !s.cfg.Competition.EndDate.IsZero() {
		return s.cfg.Competition.EndDate
	}
	return s.runDate()
}

// CheckStorage lists the tables of the configured store.
func (s *CompetitionService) CheckStorage(ctx context.Context) ([]string, error) {
	return s.repo.ListTables(ctx)
}

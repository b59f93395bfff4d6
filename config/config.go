package config

import (
	"fmt"
	"log"
	"time"

	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageSqlite   = "sqlite"
)

type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Storage     Storage
	Postgres    Postgres
	Sqlite      Sqlite
	Redis       Redis
	API         API
	Cache       Cache
	Jobs        Jobs
	Competition Competition
	Report      Report
	GoogleDrive GoogleDrive
	Telegram    Telegram
}

type Storage struct {
	Backend   string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	BatchSize int    `env:"DB_BATCH_SIZE" envDefault:"5000"`
}

type Postgres struct {
	Host            string `env:"PG_HOST" envDefault:"localhost"`
	Port            int    `env:"PG_PORT" envDefault:"5432"`
	DbName          string `env:"PG_DB_NAME" envDefault:"stockpicking"`
	Password        string `env:"PG_PASSWORD" envDefault:""`
	User            string `env:"PG_USER" envDefault:"postgres"`
	SslMode         string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME" envDefault:"300"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"60"`
}

type Sqlite struct {
	Path string `env:"SQLITE_PATH" envDefault:"stockpicking.db"`
}

type Redis struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type API struct {
	Debug    bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout  time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	YahooApi YahooApi
}

type YahooApi struct {
	Url       string `env:"YAHOO_API_URL" envDefault:"https://query1.finance.yahoo.com"`
	UserAgent string `env:"YAHOO_API_USER_AGENT" envDefault:"Mozilla/5.0 (compatible; stockpicking-tracker/1.0)"`
	Adjusted  bool   `env:"YAHOO_API_ADJUSTED" envDefault:"false"`
}

type Cache struct {
	SeriesExpiration time.Duration `env:"CACHE_SERIES_EXPIRATION" envDefault:"6h"`
	LockExpiration   time.Duration `env:"CACHE_LOCK_EXPIRATION" envDefault:"30m"`
}

type Jobs struct {
	UpdateStatsCrontab string `env:"JOBS_UPDATE_STATS_CRONTAB" envDefault:"0 23 * * 1-5"`
}

type Competition struct {
	PositionsFile     string    `env:"COMPETITION_POSITIONS_FILE" envDefault:""`
	ValuationDate     date.Date `env:"COMPETITION_VALUATION_DATE" envDefault:"2025-03-01"`
	StartDate         date.Date `env:"COMPETITION_START_DATE" envDefault:"2000-01-01"`
	EndDate           date.Date `env:"COMPETITION_END_DATE" envDefault:""` // exclusive, zero means the run date
	InitialCapital    float64   `env:"COMPETITION_INITIAL_CAPITAL" envDefault:"100000"`
	ReportingCurrency string    `env:"COMPETITION_REPORTING_CURRENCY" envDefault:"USD"`
	FetchConcurrency  int       `env:"COMPETITION_FETCH_CONCURRENCY" envDefault:"4"`
	FullRefresh       bool      `env:"COMPETITION_FULL_REFRESH" envDefault:"false"`
}

type Report struct {
	Enabled bool   `env:"REPORT_ENABLED" envDefault:"false"`
	Dir     string `env:"REPORT_DIR" envDefault:"reports"`
}

type GoogleDrive struct {
	Enabled         bool          `env:"GOOGLE_DRIVE_ENABLED" envDefault:"false"`
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE" envDefault:""`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"168h"`
}

type Telegram struct {
	Enabled bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
	Token   string `env:"TELEGRAM_TOKEN" envDefault:""`
	ChatID  int64  `env:"TELEGRAM_CHAT_ID" envDefault:"0"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("load config error: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case StoragePostgres, StorageSqlite:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Storage.BatchSize <= 0 {
		return fmt.Errorf("DB_BATCH_SIZE must be positive, got %d", c.Storage.BatchSize)
	}
	if c.Competition.InitialCapital <= 0 {
		return fmt.Errorf("COMPETITION_INITIAL_CAPITAL must be positive, got %v", c.Competition.InitialCapital)
	}
	if !c.Competition.EndDate.IsZero() && !c.Competition.StartDate.Before(c.Competition.EndDate) {
		return fmt.Errorf("COMPETITION_END_DATE %s must be after COMPETITION_START_DATE %s", c.Competition.EndDate, c.Competition.StartDate)
	}
	if c.Competition.FetchConcurrency <= 0 {
		return fmt.Errorf("COMPETITION_FETCH_CONCURRENCY must be positive, got %d", c.Competition.FetchConcurrency)
	}
	if c.GoogleDrive.Enabled && c.GoogleDrive.CredentialsFile == "" {
		return fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_FILE is required when Google Drive upload is enabled")
	}
	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are required when Telegram is enabled")
	}
	return nil
}

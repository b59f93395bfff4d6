package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/stockpicking_tracker/config"
	"github.com/KotFed0t/stockpicking_tracker/data"
	"github.com/KotFed0t/stockpicking_tracker/data/cache"
	"github.com/KotFed0t/stockpicking_tracker/data/lock"
	"github.com/KotFed0t/stockpicking_tracker/data/repository/postgres"
	"github.com/KotFed0t/stockpicking_tracker/data/repository/sqlite"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/stockpicking_tracker/internal/externalApi/yahooApi"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/internal/notifier/telegramNotifier"
	"github.com/KotFed0t/stockpicking_tracker/internal/registry"
	"github.com/KotFed0t/stockpicking_tracker/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/stockpicking_tracker/internal/scheduler"
	"github.com/KotFed0t/stockpicking_tracker/internal/service/competitionService"
	"github.com/KotFed0t/stockpicking_tracker/utils"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	positionsFile string
	fullRefresh   bool
	endDate       string
	runNow        bool
}

func newRootCmd() *cobra.Command {
	var (
		opts options
		cfg  *config.Config
	)

	root := &cobra.Command{
		Use:          "stockpicking",
		Short:        "Tracks a stock picking competition in one reporting currency",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("positions") {
				cfg.Competition.PositionsFile = opts.positionsFile
			}
			if opts.fullRefresh {
				cfg.Competition.FullRefresh = true
			}
			if opts.endDate != "" {
				if cfg.Competition.EndDate, err = date.Parse(opts.endDate); err != nil {
					return err
				}
				if !cfg.Competition.StartDate.Before(cfg.Competition.EndDate) {
					return fmt.Errorf("--end-date %s must be after COMPETITION_START_DATE %s", cfg.Competition.EndDate, cfg.Competition.StartDate)
				}
			}
			setupLogger(cfg)
			slog.Debug("config", slog.Any("cfg", cfg))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.positionsFile, "positions", "", "YAML positions file, overrides COMPETITION_POSITIONS_FILE")
	root.PersistentFlags().BoolVar(&opts.fullRefresh, "full-refresh", false, "re-download every series from COMPETITION_START_DATE")
	root.PersistentFlags().StringVar(&opts.endDate, "end-date", "", "exclusive download end date (YYYY-MM-DD), overrides COMPETITION_END_DATE")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, svc *competitionService.CompetitionService) error {
				report, err := svc.ProcessAllData(ctx)
				if report != nil {
					slog.Info("run report", slog.Any("report", report))
				}
				return err
			})
		},
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on JOBS_UPDATE_STATS_CRONTAB until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, svc *competitionService.CompetitionService) error {
				sched := scheduler.New()
				sched.NewCrontabJob("update stats", func(ctx context.Context) error {
					_, err := svc.ProcessAllData(ctx)
					return err
				}, cfg.Jobs.UpdateStatsCrontab, opts.runNow)
				sched.Start()
				defer sched.Stop()

				slog.Info("scheduler started", slog.String("crontab", cfg.Jobs.UpdateStatsCrontab))
				<-ctx.Done()
				return nil
			})
		},
	}
	scheduleCmd.Flags().BoolVar(&opts.runNow, "now", false, "also run once right away")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Export the stored results without downloading",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, svc *competitionService.CompetitionService) error {
				anchor, err := svc.ResolveAnchorDate(ctx)
				if err != nil {
					return err
				}
				return svc.ExportReport(ctx, anchor, &model.RunReport{RqID: utils.GetRequestIDFromCtx(ctx)})
			})
		},
	}

	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Storage maintenance",
	}
	dbCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Connect, apply migrations and list tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, svc *competitionService.CompetitionService) error {
				tables, err := svc.CheckStorage(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s storage is reachable, tables:\n", cfg.Storage.Backend)
				for _, t := range tables {
					fmt.Fprintln(cmd.OutOrStdout(), " -", t)
				}
				return nil
			})
		},
	})

	root.AddCommand(runCmd, scheduleCmd, reportCmd, dbCmd)
	return root
}

// withApp wires the service for one command and tears connections down afterwards.
func withApp(parent context.Context, cfg *config.Config, fn func(ctx context.Context, svc *competitionService.CompetitionService) error) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = utils.CreateCtxWithRqID(ctx)

	positions, err := registry.Load(cfg.Competition.PositionsFile)
	if err != nil {
		return err
	}

	var (
		db   *sqlx.DB
		repo competitionService.Repository
	)
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		db = data.NewPostgresClient(cfg)
		repo = postgres.NewPostgres(cfg, db)
	default:
		db = data.NewSqliteClient(cfg.Sqlite.Path)
		repo = sqlite.NewSqlite(cfg, db)
	}
	defer db.Close()

	var (
		seriesCache competitionService.Cache  = cache.Noop{}
		locker      competitionService.Locker = lock.Noop{}
	)
	if redisClient := data.NewRedisClient(ctx, cfg); redisClient != nil {
		defer redisClient.Close()
		seriesCache = cache.NewRedisCache(redisClient, cfg)
		locker = lock.NewRedisLock(redisClient, cfg.Cache.LockExpiration)
	}

	var cloudStorage competitionService.CloudStorage
	if cfg.GoogleDrive.Enabled {
		cloudStorage = googleDriveApi.New(ctx, cfg)
	}

	var notifier competitionService.Notifier
	if cfg.Telegram.Enabled {
		notifier = telegramNotifier.New(cfg)
	}

	svc := competitionService.New(
		cfg,
		positions,
		repo,
		seriesCache,
		yahooApi.New(cfg),
		locker,
		xslsxGenerator.New(),
		cloudStorage,
		notifier,
	)

	return fn(ctx, svc)
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/machtek/trainsched/internal/app"
	"github.com/machtek/trainsched/internal/assign"
	"github.com/machtek/trainsched/internal/calendar"
	"github.com/machtek/trainsched/internal/config"
	"github.com/machtek/trainsched/internal/metrics"
	"github.com/machtek/trainsched/internal/notify"
	"github.com/machtek/trainsched/internal/repository"
	"github.com/machtek/trainsched/internal/service"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:          "trainsched",
		Short:        "Training-request intake and scheduling coordinator",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd(), migrateCmd(), requestCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the confirmation poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := app.NewLogger(cfg.Environment)
			defer logger.Sync()

			pool, err := pgxpool.New(cmd.Context(), cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
			if err != nil {
				return err
			}
			defer migrator.Close()

			return migrator.Run(cmd.Context())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("starting trainsched",
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
		zap.String("calendar_mode", cfg.CalendarMode))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	cal, err := buildCalendar(cfg)
	if err != nil {
		return err
	}

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()

	requests := repository.NewRequestRepository(pool)
	checker := service.NewAvailabilityChecker(cal, logger)
	scheduler := service.NewRequestScheduler(requests, cal, checker, notifier, logger, service.SchedulerConfig{
		SuggestMax:     cfg.SuggestMax,
		SuggestHorizon: cfg.SuggestHorizonDays,
	}).WithMetrics(collector)

	poller := app.NewConfirmationPoller(requests, cal, scheduler, logger, collector, app.PollerConfig{
		Interval: cfg.PollInterval,
		Workers:  cfg.PollWorkers,
	})
	poller.Start(ctx)

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, collector, logger)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	poller.Stop()
	cancel()

	return nil
}

func buildCalendar(cfg *config.Config) (calendar.Store, error) {
	switch cfg.CalendarMode {
	case "memory":
		return calendar.NewMemoryStore(), nil
	case "http":
		return calendar.NewHTTPStore(calendar.HTTPStoreConfig{
			BaseURL: cfg.CalendarBridgeURL,
			APIKey:  cfg.CalendarBridgeKey,
			Timeout: 10 * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown CALENDAR_MODE %q", cfg.CalendarMode)
	}
}

func buildAssigner(cfg *config.Config, logger *zap.Logger) (*assign.Assigner, error) {
	if cfg.RegionTablePath == "" {
		return assign.NewAssigner(), nil
	}
	assigner, err := assign.LoadAssigner(cfg.RegionTablePath)
	if err != nil {
		return nil, err
	}
	logger.Info("region table loaded",
		zap.String("path", cfg.RegionTablePath),
		zap.Strings("technicians", assigner.Technicians()))
	return assigner, nil
}

func buildNotifier(cfg *config.Config, logger *zap.Logger) (notify.Sink, error) {
	var sinks []notify.Sink

	if cfg.SMTPHost != "" {
		sinks = append(sinks, notify.NewEmailSink(notify.EmailConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUser,
			Password:    cfg.SMTPPass,
			From:        cfg.MailFrom,
			OfficeEmail: cfg.OfficeEmail,
		}))
	}
	if cfg.TelegramToken != "" && cfg.TelegramAdminChat != 0 {
		tg, err := notify.NewTelegramSink(cfg.TelegramToken, cfg.TelegramAdminChat)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, tg)
	}
	if len(sinks) == 0 {
		return notify.NewLogSink(logger), nil
	}

	return notify.NewFanoutSink(sinks...), nil
}

func serveMetrics(addr string, collector *metrics.Collector, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics listener failed", zap.Error(err))
	}
}

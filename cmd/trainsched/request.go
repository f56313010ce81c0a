package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/machtek/trainsched/internal/app"
	"github.com/machtek/trainsched/internal/config"
	"github.com/machtek/trainsched/internal/repository"
	"github.com/machtek/trainsched/internal/service"
)

// The request subcommands are the office-side surface of the coordinator:
// intake, availability probes, date selection and rejection. The web form
// drives the same services through its own API layer.

type services struct {
	cfg       *config.Config
	logger    *zap.Logger
	pool      *pgxpool.Pool
	intake    *service.IntakeService
	scheduler *service.RequestScheduler
}

func (s *services) close() {
	s.pool.Close()
	s.logger.Sync()
}

func buildServices(ctx context.Context) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg.Environment)

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	cal, err := buildCalendar(cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	assigner, err := buildAssigner(cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	requests := repository.NewRequestRepository(pool)
	checker := service.NewAvailabilityChecker(cal, logger)

	return &services{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		intake: service.NewIntakeService(requests, assigner, logger),
		scheduler: service.NewRequestScheduler(requests, cal, checker, notifier, logger, service.SchedulerConfig{
			SuggestMax:     cfg.SuggestMax,
			SuggestHorizon: cfg.SuggestHorizonDays,
		}),
	}, nil
}

func requestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Manage training requests",
	}
	cmd.AddCommand(requestCreateCmd(), requestSelectDatesCmd(), requestSuggestCmd(), requestRejectCmd())
	return cmd
}

func requestCreateCmd() *cobra.Command {
	var in service.IntakeInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a training request from intake data",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			req, err := svc.intake.CreateRequest(cmd.Context(), in)
			if err != nil {
				return err
			}

			fmt.Printf("created %s: technician %s, total $%.2f\n",
				req.ReferenceCode, req.AssignedTechnician, float64(req.TotalPrice)/100)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.ClientName, "name", "", "client contact name")
	cmd.Flags().StringVar(&in.Company, "company", "", "client company")
	cmd.Flags().StringVar(&in.Email, "email", "", "client email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "client phone")
	cmd.Flags().StringVar(&in.Address, "address", "", "training site address")
	cmd.Flags().StringVar(&in.State, "state", "", "two-letter US state code")
	cmd.Flags().IntVar(&in.TrainingDays, "days", 0, "number of training days")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("state")
	cmd.MarkFlagRequired("days")

	return cmd
}

func requestSelectDatesCmd() *cobra.Command {
	var startStr, endStr string

	cmd := &cobra.Command{
		Use:   "select-dates <reference-code>",
		Short: "Book the client's chosen date range tentatively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate(startStr)
			if err != nil {
				return err
			}
			end, err := parseDate(endStr)
			if err != nil {
				return err
			}

			svc, err := buildServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			err = svc.scheduler.SelectDates(cmd.Context(), args[0], start, end)
			if conflict, ok := service.AsConflict(err); ok {
				fmt.Println("requested dates are taken:")
				for _, c := range conflict.Conflicts {
					fmt.Printf("  %s  %s\n", c.Date.Format(time.DateOnly), c.Summary)
				}
				alts, suggestErr := svc.scheduler.SuggestAlternatives(cmd.Context(), args[0], start)
				if suggestErr == nil && len(alts) > 0 {
					fmt.Println("next free start dates:")
					for _, alt := range alts {
						fmt.Printf("  %s\n", alt.Format(time.DateOnly))
					}
				}
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("%s booked tentatively, pending confirmation\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endStr, "end", "", "end date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

func requestSuggestCmd() *cobra.Command {
	var startStr string

	cmd := &cobra.Command{
		Use:   "suggest <reference-code>",
		Short: "List the next free date windows for a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate(startStr)
			if err != nil {
				return err
			}

			svc, err := buildServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			alts, err := svc.scheduler.SuggestAlternatives(cmd.Context(), args[0], start)
			if err != nil {
				return err
			}
			if len(alts) == 0 {
				fmt.Println("no free windows inside the search horizon")
				return nil
			}
			for _, alt := range alts {
				fmt.Println(alt.Format(time.DateOnly))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "from", "", "search from this date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("from")

	return cmd
}

func requestRejectCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <reference-code>",
		Short: "Reject a request and clear its tentative calendar slots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			if err := svc.scheduler.Reject(cmd.Context(), args[0], reason); err != nil {
				return err
			}
			fmt.Printf("%s rejected\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason")
	cmd.MarkFlagRequired("reason")

	return cmd
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

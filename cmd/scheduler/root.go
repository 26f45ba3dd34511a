package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/example/crew-scheduler/internal/application"
	"github.com/example/crew-scheduler/internal/config"
	"github.com/example/crew-scheduler/internal/logging"
	"github.com/example/crew-scheduler/internal/metrics"
	"github.com/example/crew-scheduler/internal/persistence/sqlite"
)

const configFlag = "config"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scheduler",
		Short: "Crew scheduling and activity status engine",
		Long: `scheduler keeps team assignments free of overlaps, builds availability
grids and resolves activity statuses from dependencies and resource outages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().String(configFlag, "", "path to a config file (default: ./scheduler.yaml or ./config/scheduler.yaml)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newGridCmd(),
		newStatusCmd(),
		newValidateCmd(),
		newAuditCmd(),
	)
	return root
}

// app is the process state shared by every command: configuration, logger,
// storage and the application service graph.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	storage  *sqlite.Storage
	registry *prometheus.Registry
	metrics  *metrics.Collector

	queries      *application.ScheduleQueryService
	guard        *application.ConflictGuard
	availability *application.AvailabilityService
	assignments  *application.AssignmentService
	activities   *application.ActivityService
	audit        *application.AuditService
}

// openApp loads configuration and opens storage. With migrate set, pending
// migrations are applied before the services are wired.
func openApp(cmd *cobra.Command, migrate bool) (*app, error) {
	path, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	storage, err := sqlite.Open(cmd.Context(), cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if migrate {
		if err := storage.Migrate(); err != nil {
			_ = storage.Close()
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		storage:  storage,
		registry: registry,
		metrics:  metrics.NewCollector(registry),
	}
	a.wire(time.Now, newID)
	return a, nil
}

func (a *app) wire(now func() time.Time, idGenerator func() string) {
	scheduling := a.cfg.Scheduling

	a.queries = application.NewScheduleQueryService(a.storage.Assignments, a.logger)
	a.guard = application.NewConflictGuard(a.queries, a.metrics, a.logger)
	a.audit = application.NewAuditService(a.queries, scheduling.AuditCacheTTL, a.metrics, now, a.logger)
	a.availability = application.NewAvailabilityService(a.queries, a.storage.Members, scheduling.GridGranularity, a.metrics, a.logger)
	a.assignments = application.NewAssignmentService(
		a.storage.Assignments,
		a.storage.Activities,
		a.guard,
		idGenerator,
		now,
		a.logger,
		a.audit,
	)
	a.activities = application.NewActivityService(a.storage.Activities, a.storage.Resources, scheduling.UpcomingWindow, a.metrics, now, a.logger)
}

func (a *app) Close() {
	if err := a.storage.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
}

// withApp runs fn with an opened, migrated app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

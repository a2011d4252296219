// Package app wires configuration, storage, services and the HTTP API into
// runnable commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/seanrito/patients-backend/internal/adapter/postgres"
	auditrepo "github.com/seanrito/patients-backend/internal/adapter/postgres/audit"
	patientrepo "github.com/seanrito/patients-backend/internal/adapter/postgres/patient"
	"github.com/seanrito/patients-backend/internal/config"
	"github.com/seanrito/patients-backend/internal/domain"
	"github.com/seanrito/patients-backend/internal/metrics"
	auditsvc "github.com/seanrito/patients-backend/internal/service/audit"
	patientsvc "github.com/seanrito/patients-backend/internal/service/patient"
	"github.com/seanrito/patients-backend/internal/transport/rest"
)

// Components is the application graph built on one connection pool.
type Components struct {
	Pool     *pgxpool.Pool
	Patients *patientsvc.Service
	Registry *prometheus.Registry
}

// NewComponents wires repositories, the audit recorder, metrics and the
// patient service on top of pool.
func NewComponents(pool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) *Components {
	registry := metrics.NewRegistry()
	recorder := metrics.New(registry)

	auditRepo := auditrepo.New(pool)
	audit := auditsvc.NewRecorder(logger, auditRepo, recorder, cfg.Audit.DefaultActor)

	patients := patientsvc.NewService(
		logger,
		patientrepo.New(pool, domain.NameMatch(cfg.Patients.NameMatch)),
		auditRepo,
		audit,
		postgres.NewTxManager(pool),
		recorder,
		cfg.Patients,
	)

	return &Components{Pool: pool, Patients: patients, Registry: registry}
}

// Handler builds the HTTP API over c.
func (c *Components) Handler(cfg *config.Config, logger *slog.Logger) http.Handler {
	routerCfg := rest.RouterConfig{
		Patients: rest.NewPatientHandler(c.Patients, logger),
		Health:   rest.NewHealthHandler(BuildVersion(), map[string]rest.Pinger{"database": c.Pool}),
		Logger:   logger,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = metrics.Handler(c.Registry)
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	return rest.NewRouter(routerCfg)
}

// Run serves the HTTP API until ctx is canceled, then shuts the server down
// within the configured shutdown timeout.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := migrateUp(ctx, pool, logger); err != nil {
			return err
		}
	}

	components := NewComponents(pool, cfg, logger)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      components.Handler(cfg, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("application stopped")
	return nil
}

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seanrito/patients-backend/internal/adapter/postgres"
	"github.com/seanrito/patients-backend/internal/config"
	"github.com/seanrito/patients-backend/migrations"
)

// MigrateUp applies all pending migrations.
func MigrateUp(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	return withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
		return migrateUp(ctx, pool, logger)
	})
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	return withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
		m, err := postgres.NewMigrator(pool, migrations.FS)
		if err != nil {
			return err
		}
		defer m.Close()

		rolledBack, err := m.Down(ctx)
		if err != nil {
			return err
		}
		if !rolledBack {
			logger.Info("no migration to roll back")
			return nil
		}
		logger.Info("migration rolled back")
		return nil
	})
}

// MigrateStatus writes one line per known migration to out.
func MigrateStatus(ctx context.Context, cfg *config.Config, out io.Writer) error {
	return withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
		m, err := postgres.NewMigrator(pool, migrations.FS)
		if err != nil {
			return err
		}
		defer m.Close()

		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tSOURCE")
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
		}
		return tw.Flush()
	})
}

func migrateUp(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	m, err := postgres.NewMigrator(pool, migrations.FS)
	if err != nil {
		return err
	}
	defer m.Close()

	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	logger.Info("migrations applied", slog.Int("count", applied))
	return nil
}

func withPool(ctx context.Context, cfg *config.Config, fn func(pool *pgxpool.Pool) error) error {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	return fn(pool)
}

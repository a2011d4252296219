// Command patients runs the patient records API and its maintenance tasks.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/seanrito/patients-backend/internal/app"
	"github.com/seanrito/patients-backend/internal/config"
)

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// configPath is bound to the persistent --config flag.
var configPath string

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "patients",
		Short:         "Patient records API",
		Version:       app.BuildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"YAML config file (default $CONFIG_PATH or "+config.DefaultPath+")")
	root.AddCommand(serveCmd(), migrateCmd(), importCmd())
	return root
}

// setup loads configuration and the logger shared by every command.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return nil, nil, err
	}
	return cfg, app.NewLogger(cfg.Log), nil
}

// runE adapts fn into a cobra RunE that logs the failure before returning it.
func runE(msg string, fn func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if err := fn(cmd.Context(), cfg, logger); err != nil {
			logger.Error(msg, slog.String("error", err.Error()))
			return err
		}
		return nil
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runE("application error", app.Run),
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE:  runE("migrate up failed", app.MigrateUp),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE:  runE("migrate down failed", app.MigrateDown),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, _, err := setup()
				if err != nil {
					return err
				}
				return app.MigrateStatus(cmd.Context(), cfg, cmd.OutOrStdout())
			},
		},
	)
	return cmd
}

func importCmd() *cobra.Command {
	var (
		file  string
		actor string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create patients from a CSV file",
		Args:  cobra.NoArgs,
		RunE: runE("import failed", func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
			result, err := app.Import(ctx, cfg, logger, file, actor)
			if err != nil {
				return err
			}
			logger.Info("import completed",
				slog.Int("imported", result.Imported),
				slog.Int("skipped", result.Skipped),
				slog.Int("errors", len(result.Errors)),
			)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the CSV file")
	cmd.Flags().StringVar(&actor, "actor", "", "username recorded in the audit trail")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

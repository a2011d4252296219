package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seanrito/patients-backend/internal/config"
	patientsvc "github.com/seanrito/patients-backend/internal/service/patient"
	"github.com/seanrito/patients-backend/pkg/ctxutil"
)

// Import creates patients from the CSV file at path, attributing the audit
// entries to actor.
func Import(ctx context.Context, cfg *config.Config, logger *slog.Logger, path, actor string) (*patientsvc.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	if actor != "" {
		ctx = ctxutil.WithActor(ctx, actor)
	}

	var result *patientsvc.ImportResult
	err = withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
		var importErr error
		result, importErr = NewComponents(pool, cfg, logger).Patients.ImportCSV(ctx, f)
		return importErr
	})
	if err != nil {
		return result, err
	}

	for _, e := range result.Errors {
		logger.Warn("row not imported",
			slog.Int("line", e.LineNumber),
			slog.String("reason", e.Reason),
		)
	}
	return result, nil
}

package patient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seanrito/patients-backend/internal/domain"
)

// Create validates and stores a new patient, then records a Create audit
// entry carrying a snapshot of the stored record.
//
// Returns domain.ErrAlreadyExists when the document identity is taken. The
// store's unique constraint catches a concurrent create that passes the
// pre-check.
func (s *Service) Create(ctx context.Context, input CreateInput) (created *domain.Patient, err error) {
	defer func(start time.Time) { s.observe(ctx, opCreate, start, err) }(time.Now())

	if err := input.Validate(s.now()); err != nil {
		return nil, err
	}

	candidate := input.fields().patient()

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		taken, existsErr := s.patients.ExistsByDocument(txCtx, candidate.DocumentType, candidate.DocumentNumber, nil)
		if existsErr != nil {
			return fmt.Errorf("check document: %w", existsErr)
		}
		if taken {
			return duplicateErr(candidate)
		}

		var createErr error
		created, createErr = s.patients.Create(txCtx, candidate)
		if createErr != nil {
			return fmt.Errorf("create patient: %w", createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.EntityTypePatient, created.ID, domain.AuditActionCreate, snapshotOf(created))

	s.log.InfoContext(ctx, "patient created", slog.Int64("patient_id", created.ID))

	return created, nil
}

func duplicateErr(p *domain.Patient) error {
	return fmt.Errorf("patient with document %s %s: %w", p.DocumentType, p.DocumentNumber, domain.ErrAlreadyExists)
}

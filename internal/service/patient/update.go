package patient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seanrito/patients-backend/internal/domain"
)

// Update replaces the writable fields of a patient and records an Update
// audit entry carrying the input snapshot.
//
// When input.RowVersion is set it must equal the stored token, both when
// checked here and when the store applies the write; either mismatch is
// reported as domain.ErrConflict. A document identity owned by another
// patient yields domain.ErrAlreadyExists.
func (s *Service) Update(ctx context.Context, input UpdateInput) (updated *domain.Patient, err error) {
	defer func(start time.Time) { s.observe(ctx, opUpdate, start, err) }(time.Now())

	if err := input.Validate(s.now()); err != nil {
		return nil, err
	}

	candidate := input.fields().patient()
	candidate.ID = input.ID

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, getErr := s.patients.GetByID(txCtx, input.ID)
		if getErr != nil {
			return fmt.Errorf("get patient: %w", getErr)
		}

		taken, existsErr := s.patients.ExistsByDocument(txCtx, candidate.DocumentType, candidate.DocumentNumber, &input.ID)
		if existsErr != nil {
			return fmt.Errorf("check document: %w", existsErr)
		}
		if taken {
			return duplicateErr(candidate)
		}

		if !current.VersionMatches(input.RowVersion) {
			return fmt.Errorf("patient %d: stale version: %w", input.ID, domain.ErrConflict)
		}

		var updateErr error
		updated, updateErr = s.patients.Update(txCtx, candidate, input.RowVersion)
		if updateErr != nil {
			return fmt.Errorf("update patient: %w", updateErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.EntityTypePatient, updated.ID, domain.AuditActionUpdate, snapshotOf(candidate))

	s.log.InfoContext(ctx, "patient updated", slog.Int64("patient_id", updated.ID))

	return updated, nil
}

package patient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seanrito/patients-backend/internal/domain"
)

// Delete hard-deletes a patient and records a Delete audit entry.
// Audit entries of the patient are kept.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.observe(ctx, opDelete, start, err) }(time.Now())

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.patients.Delete(txCtx, id); delErr != nil {
			return fmt.Errorf("delete patient: %w", delErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, domain.EntityTypePatient, id, domain.AuditActionDelete, nil)

	s.log.InfoContext(ctx, "patient deleted", slog.Int64("patient_id", id))

	return nil
}

package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/seanrito/patients-backend/internal/domain"
)

// History returns the audit entries recorded for a patient, newest first.
// Entries outlive the patient, so a deleted id still has history.
func (s *Service) History(ctx context.Context, id int64) (entries []domain.AuditEntry, err error) {
	defer func(start time.Time) { s.observe(ctx, opHistory, start, err) }(time.Now())

	if id <= 0 {
		return nil, domain.NewValidationError("id", "must be positive")
	}

	entries, err = s.history.GetByEntity(ctx, domain.EntityTypePatient, id, s.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("get patient history: %w", err)
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, nil
}

// Package patient implements the patient record service: listing, CRUD with
// duplicate and version checks, CSV export and import, and audit history.
package patient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seanrito/patients-backend/internal/config"
	"github.com/seanrito/patients-backend/internal/domain"
)

type patientRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Patient, error)
	ExistsByDocument(ctx context.Context, docType, docNumber string, excludeID *int64) (bool, error)
	Find(ctx context.Context, q domain.PatientQuery) ([]domain.Patient, int, error)
	FindForExport(ctx context.Context, f domain.PatientFilter, limit int) ([]domain.Patient, error)
	Create(ctx context.Context, p *domain.Patient) (*domain.Patient, error)
	Update(ctx context.Context, p *domain.Patient, expectedVersion []byte) (*domain.Patient, error)
	Delete(ctx context.Context, id int64) error
}

type historyRepo interface {
	GetByEntity(ctx context.Context, entity domain.EntityType, entityID int64, limit int) ([]domain.AuditEntry, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entity domain.EntityType, entityID int64, action domain.AuditAction, payload any)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type observer interface {
	Observe(ctx context.Context, op string, err error, duration time.Duration)
}

// Operation names reported to the observer.
const (
	opList    = "list"
	opGet     = "get"
	opCreate  = "create"
	opUpdate  = "update"
	opDelete  = "delete"
	opExport  = "export"
	opHistory = "history"
	opImport  = "import"
)

// Service provides patient record operations.
type Service struct {
	patients patientRepo
	history  historyRepo
	audit    auditRecorder
	tx       txManager
	metrics  observer
	cfg      config.PatientsConfig
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new patient Service.
func NewService(
	log *slog.Logger,
	patients patientRepo,
	history historyRepo,
	audit auditRecorder,
	tx txManager,
	metrics observer,
	cfg config.PatientsConfig,
) *Service {
	return &Service{
		patients: patients,
		history:  history,
		audit:    audit,
		tx:       tx,
		metrics:  metrics,
		cfg:      cfg,
		log:      log.With("service", "patient"),
		now:      time.Now,
	}
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.Observe(ctx, op, err, time.Since(start))
	}
}

// withTimeout bounds ctx by d. The caller's own deadline still applies when
// it is earlier.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// timeoutErr reports a deadline overrun as domain.ErrTimeout.
func timeoutErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, domain.ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

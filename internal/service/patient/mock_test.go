package patient

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/seanrito/patients-backend/internal/config"
	"github.com/seanrito/patients-backend/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockPatientRepo struct {
	GetByIDFunc          func(ctx context.Context, id int64) (*domain.Patient, error)
	ExistsByDocumentFunc func(ctx context.Context, docType, docNumber string, excludeID *int64) (bool, error)
	FindFunc             func(ctx context.Context, q domain.PatientQuery) ([]domain.Patient, int, error)
	FindForExportFunc    func(ctx context.Context, f domain.PatientFilter, limit int) ([]domain.Patient, error)
	CreateFunc           func(ctx context.Context, p *domain.Patient) (*domain.Patient, error)
	UpdateFunc           func(ctx context.Context, p *domain.Patient, expectedVersion []byte) (*domain.Patient, error)
	DeleteFunc           func(ctx context.Context, id int64) error

	mu          sync.Mutex
	createCalls int
	updateCalls int
}

func (m *mockPatientRepo) GetByID(ctx context.Context, id int64) (*domain.Patient, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPatientRepo) ExistsByDocument(ctx context.Context, docType, docNumber string, excludeID *int64) (bool, error) {
	if m.ExistsByDocumentFunc != nil {
		return m.ExistsByDocumentFunc(ctx, docType, docNumber, excludeID)
	}
	return false, nil
}

func (m *mockPatientRepo) Find(ctx context.Context, q domain.PatientQuery) ([]domain.Patient, int, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, q)
	}
	return nil, 0, nil
}

func (m *mockPatientRepo) FindForExport(ctx context.Context, f domain.PatientFilter, limit int) ([]domain.Patient, error) {
	if m.FindForExportFunc != nil {
		return m.FindForExportFunc(ctx, f, limit)
	}
	return nil, nil
}

func (m *mockPatientRepo) Create(ctx context.Context, p *domain.Patient) (*domain.Patient, error) {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	created := *p
	created.ID = 1
	created.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	created.RowVersion = []byte{1}
	return &created, nil
}

func (m *mockPatientRepo) Update(ctx context.Context, p *domain.Patient, expectedVersion []byte) (*domain.Patient, error) {
	m.mu.Lock()
	m.updateCalls++
	m.mu.Unlock()
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p, expectedVersion)
	}
	updated := *p
	updated.RowVersion = []byte{2}
	return &updated, nil
}

func (m *mockPatientRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockHistoryRepo struct {
	GetByEntityFunc func(ctx context.Context, entity domain.EntityType, entityID int64, limit int) ([]domain.AuditEntry, error)
}

func (m *mockHistoryRepo) GetByEntity(ctx context.Context, entity domain.EntityType, entityID int64, limit int) ([]domain.AuditEntry, error) {
	if m.GetByEntityFunc != nil {
		return m.GetByEntityFunc(ctx, entity, entityID, limit)
	}
	return nil, nil
}

type auditCall struct {
	Entity   domain.EntityType
	EntityID int64
	Action   domain.AuditAction
	Payload  any
	InTx     bool
}

type mockAuditRecorder struct {
	tx    *mockTxManager
	mu    sync.Mutex
	calls []auditCall
}

func (m *mockAuditRecorder) Record(_ context.Context, entity domain.EntityType, entityID int64, action domain.AuditAction, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, auditCall{
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Payload:  payload,
		InTx:     m.tx.active(),
	})
}

type mockTxManager struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

	mu     sync.Mutex
	depth  int
	called int
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.depth++
	m.called++
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.depth--
		m.mu.Unlock()
	}()
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(ctx)
}

func (m *mockTxManager) active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.depth > 0
}

type observation struct {
	Op  string
	Err error
}

type mockObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (m *mockObserver) Observe(_ context.Context, op string, err error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = append(m.obs, observation{Op: op, Err: err})
}

// ===========================================================================
// Helpers
// ===========================================================================

type testDeps struct {
	patients *mockPatientRepo
	history  *mockHistoryRepo
	audit    *mockAuditRecorder
	tx       *mockTxManager
	metrics  *mockObserver
}

var testNow = time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC)

func defaultCfg() config.PatientsConfig {
	return config.PatientsConfig{
		DefaultPageSize: 10,
		MaxPageSize:     100,
		NameMatch:       "sensitive",
		QueryTimeout:    5 * time.Second,
		ExportTimeout:   30 * time.Second,
		ExportMaxRows:   1000,
		HistoryLimit:    50,
	}
}

func newTestService(cfg config.PatientsConfig) (*Service, *testDeps) {
	tx := &mockTxManager{}
	deps := &testDeps{
		patients: &mockPatientRepo{},
		history:  &mockHistoryRepo{},
		audit:    &mockAuditRecorder{tx: tx},
		tx:       tx,
		metrics:  &mockObserver{},
	}
	svc := NewService(
		slog.Default(),
		deps.patients,
		deps.history,
		deps.audit,
		deps.tx,
		deps.metrics,
		cfg,
	)
	svc.now = func() time.Time { return testNow }
	return svc, deps
}

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validCreateInput() CreateInput {
	return CreateInput{
		DocumentType:   "CC",
		DocumentNumber: "123456789",
		FirstName:      "Juan",
		LastName:       "Pérez",
		BirthDate:      date(1990, 1, 1),
	}
}

func storedPatient(id int64, version []byte) *domain.Patient {
	return &domain.Patient{
		ID:             id,
		DocumentType:   "CC",
		DocumentNumber: "123456789",
		FirstName:      "Juan",
		LastName:       "Pérez",
		BirthDate:      date(1990, 1, 1),
		CreatedAt:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		RowVersion:     version,
	}
}

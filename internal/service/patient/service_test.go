package patient

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanrito/patients-backend/internal/domain"
)

// ===========================================================================
// List
// ===========================================================================

func TestService_List_NormalizesPaging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		page, size   int
		wantPage     int
		wantPageSize int
	}{
		{"zero page", 0, 20, 1, 20},
		{"negative page", -3, 20, 1, 20},
		{"oversized page", 2, 500, 2, 100},
		{"zero size uses default", 1, 0, 1, 10},
		{"negative size uses default", 1, -5, 1, 10},
		{"passthrough", 4, 25, 4, 25},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, deps := newTestService(defaultCfg())

			var got domain.PatientQuery
			deps.patients.FindFunc = func(_ context.Context, q domain.PatientQuery) ([]domain.Patient, int, error) {
				got = q
				return nil, 0, nil
			}

			res, err := svc.List(context.Background(), ListInput{Page: tt.page, PageSize: tt.size})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPageSize, got.PageSize)
			assert.Equal(t, tt.wantPage, res.Page)
			assert.Equal(t, tt.wantPageSize, res.PageSize)
		})
	}
}

func TestService_List_ResolvesSortAndFilter(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	from := date(2024, 1, 1)
	var got domain.PatientQuery
	deps.patients.FindFunc = func(_ context.Context, q domain.PatientQuery) ([]domain.Patient, int, error) {
		got = q
		return nil, 0, nil
	}

	_, err := svc.List(context.Background(), ListInput{
		Name:           ptr("  seb "),
		DocumentNumber: ptr(" "),
		CreatedFrom:    &from,
		SortBy:         "LastName",
		SortDir:        "DESC",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SortByLastName, got.SortBy)
	assert.True(t, got.Descending)
	require.NotNil(t, got.Filter.Name)
	assert.Equal(t, "  seb ", *got.Filter.Name, "name is a raw substring")
	assert.Nil(t, got.Filter.DocumentNumber)
	assert.Equal(t, &from, got.Filter.CreatedFrom)
}

func TestService_List_NameFilterKeepsSpacesUnlessBlank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{"absent", nil, nil},
		{"empty", ptr(""), nil},
		{"blank", ptr("   "), nil},
		{"leading space", ptr(" Jr"), ptr(" Jr")},
		{"plain", ptr("Doe"), ptr("Doe")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, deps := newTestService(defaultCfg())

			var got domain.PatientQuery
			deps.patients.FindFunc = func(_ context.Context, q domain.PatientQuery) ([]domain.Patient, int, error) {
				got = q
				return nil, 0, nil
			}

			_, err := svc.List(context.Background(), ListInput{Name: tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Filter.Name)
		})
	}
}

func TestService_List_FarPageIsEmptyNotAnError(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	var got domain.PatientQuery
	deps.patients.FindFunc = func(_ context.Context, q domain.PatientQuery) ([]domain.Patient, int, error) {
		got = q
		return nil, 3, nil
	}

	res, err := svc.List(context.Background(), ListInput{Page: 1<<58 + 1, PageSize: 50})
	require.NoError(t, err)

	assert.Equal(t, 50, got.PageSize)
	assert.Equal(t, math.MaxInt, got.Offset())
	assert.Empty(t, res.Items)
	assert.Equal(t, 3, res.TotalCount)
	assert.Equal(t, 1, res.TotalPages)
}

func TestService_List_UnknownSortFallsBackToID(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	var got domain.PatientQuery
	deps.patients.FindFunc = func(_ context.Context, q domain.PatientQuery) ([]domain.Patient, int, error) {
		got = q
		return nil, 0, nil
	}

	_, err := svc.List(context.Background(), ListInput{SortBy: "birthdate", SortDir: "down"})
	require.NoError(t, err)
	assert.Equal(t, domain.SortByID, got.SortBy)
	assert.False(t, got.Descending)
}

func TestService_List_TotalPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{250, 100, 3},
	}

	for _, tt := range tests {
		svc, deps := newTestService(defaultCfg())
		deps.patients.FindFunc = func(context.Context, domain.PatientQuery) ([]domain.Patient, int, error) {
			return nil, tt.total, nil
		}

		res, err := svc.List(context.Background(), ListInput{PageSize: tt.size})
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.TotalPages, "total=%d size=%d", tt.total, tt.size)
		assert.Equal(t, tt.total, res.TotalCount)
		assert.NotNil(t, res.Items)
	}
}

func TestService_List_AppliesQueryTimeout(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.FindFunc = func(ctx context.Context, _ domain.PatientQuery) ([]domain.Patient, int, error) {
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
		return nil, 0, nil
	}

	_, err := svc.List(context.Background(), ListInput{})
	require.NoError(t, err)
}

func TestService_List_DeadlineIsTimeout(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.FindFunc = func(context.Context, domain.PatientQuery) ([]domain.Patient, int, error) {
		return nil, 0, context.DeadlineExceeded
	}

	_, err := svc.List(context.Background(), ListInput{})
	require.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, []observation{{Op: opList, Err: err}}, deps.metrics.obs)
}

func TestService_List_StoreError(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	storeErr := errors.New("connection reset")
	deps.patients.FindFunc = func(context.Context, domain.PatientQuery) ([]domain.Patient, int, error) {
		return nil, 0, storeErr
	}

	_, err := svc.List(context.Background(), ListInput{})
	require.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrTimeout)
}

// ===========================================================================
// Get
// ===========================================================================

func TestService_Get_Found(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.GetByIDFunc = func(_ context.Context, id int64) (*domain.Patient, error) {
		return storedPatient(id, []byte{1}), nil
	}

	p, err := svc.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ID)
}

func TestService_Get_NotFound(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(defaultCfg())

	_, err := svc.Get(context.Background(), 42)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// ===========================================================================
// Create
// ===========================================================================

func TestService_Create_Success(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	input := validCreateInput()
	input.FirstName = "  Juan  "
	input.Email = ptr(" juan@example.com ")
	input.PhoneNumber = ptr("   ")

	var checked [2]string
	deps.patients.ExistsByDocumentFunc = func(_ context.Context, docType, docNumber string, excludeID *int64) (bool, error) {
		checked = [2]string{docType, docNumber}
		assert.Nil(t, excludeID)
		return false, nil
	}

	created, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, [2]string{"CC", "123456789"}, checked)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Juan", created.FirstName)
	require.NotNil(t, created.Email)
	assert.Equal(t, "juan@example.com", *created.Email)
	assert.Nil(t, created.PhoneNumber)

	require.Len(t, deps.audit.calls, 1)
	call := deps.audit.calls[0]
	assert.Equal(t, domain.EntityTypePatient, call.Entity)
	assert.Equal(t, int64(1), call.EntityID)
	assert.Equal(t, domain.AuditActionCreate, call.Action)
	assert.False(t, call.InTx, "audit must run after commit")

	snap, ok := call.Payload.(snapshot)
	require.True(t, ok)
	assert.Equal(t, int64(1), snap.ID)
	assert.Equal(t, "1990-01-01", snap.BirthDate)
	require.NotNil(t, snap.CreatedAt)
}

func TestService_Create_ValidationStopsBeforeStore(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	_, err := svc.Create(context.Background(), CreateInput{})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	fields := ve.Fields()
	for _, f := range []string{"documentType", "documentNumber", "firstName", "lastName", "birthDate"} {
		assert.Contains(t, fields, f)
	}
	assert.Zero(t, deps.tx.called)
	assert.Empty(t, deps.audit.calls)
}

func TestService_Create_DuplicatePreCheck(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.ExistsByDocumentFunc = func(context.Context, string, string, *int64) (bool, error) {
		return true, nil
	}

	_, err := svc.Create(context.Background(), validCreateInput())
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Zero(t, deps.patients.createCalls)
	assert.Empty(t, deps.audit.calls)
}

func TestService_Create_DuplicateCaughtByStore(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.CreateFunc = func(context.Context, *domain.Patient) (*domain.Patient, error) {
		return nil, domain.ErrAlreadyExists
	}

	_, err := svc.Create(context.Background(), validCreateInput())
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Empty(t, deps.audit.calls)
}

func TestService_Create_TxFailureSkipsAudit(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	commitErr := errors.New("commit failed")
	deps.tx.RunInTxFunc = func(ctx context.Context, fn func(context.Context) error) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return commitErr
	}

	_, err := svc.Create(context.Background(), validCreateInput())
	require.ErrorIs(t, err, commitErr)
	assert.Empty(t, deps.audit.calls)
}

// ===========================================================================
// Update
// ===========================================================================

func validUpdateInput(id int64, version []byte) UpdateInput {
	return UpdateInput{
		ID:             id,
		DocumentType:   "CC",
		DocumentNumber: "987654321",
		FirstName:      "Juan Carlos",
		LastName:       "Pérez",
		BirthDate:      date(1990, 1, 1),
		RowVersion:     version,
	}
}

func TestService_Update_Success(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.GetByIDFunc = func(_ context.Context, id int64) (*domain.Patient, error) {
		return storedPatient(id, []byte{1}), nil
	}
	deps.patients.ExistsByDocumentFunc = func(_ context.Context, _, docNumber string, excludeID *int64) (bool, error) {
		assert.Equal(t, "987654321", docNumber)
		require.NotNil(t, excludeID)
		assert.Equal(t, int64(7), *excludeID)
		return false, nil
	}
	var gotVersion []byte
	deps.patients.UpdateFunc = func(_ context.Context, p *domain.Patient, expected []byte) (*domain.Patient, error) {
		gotVersion = expected
		out := *p
		out.RowVersion = []byte{2}
		return &out, nil
	}

	updated, err := svc.Update(context.Background(), validUpdateInput(7, []byte{1}))
	require.NoError(t, err)

	assert.Equal(t, []byte{1}, gotVersion)
	assert.Equal(t, "Juan Carlos", updated.FirstName)
	assert.Equal(t, []byte{2}, updated.RowVersion)

	require.Len(t, deps.audit.calls, 1)
	call := deps.audit.calls[0]
	assert.Equal(t, domain.AuditActionUpdate, call.Action)
	assert.Equal(t, int64(7), call.EntityID)
	assert.False(t, call.InTx)
	snap, ok := call.Payload.(snapshot)
	require.True(t, ok)
	assert.Equal(t, "987654321", snap.DocumentNumber)
	assert.Nil(t, snap.CreatedAt)
}

func TestService_Update_WithoutVersionSkipsCheck(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.GetByIDFunc = func(_ context.Context, id int64) (*domain.Patient, error) {
		return storedPatient(id, []byte{9, 9}), nil
	}

	_, err := svc.Update(context.Background(), validUpdateInput(7, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, deps.patients.updateCalls)
}

func TestService_Update_EmptyVersionSkipsCheck(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.GetByIDFunc = func(_ context.Context, id int64) (*domain.Patient, error) {
		return storedPatient(id, []byte{9, 9}), nil
	}

	_, err := svc.Update(context.Background(), validUpdateInput(7, []byte{}))
	require.NoError(t, err)
	assert.Equal(t, 1, deps.patients.updateCalls)
}

func TestService_Update_StaleVersion(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.GetByIDFunc = func(_ context.Context, id int64) (*domain.Patient, error) {
		return storedPatient(id, []byte{2}), nil
	}

	_, err := svc.Update(context.Background(), validUpdateInput(7, []byte{1}))
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Zero(t, deps.patients.updateCalls)
	assert.Empty(t, deps.audit.calls)
}

func TestService_Update_StoreConflictLooksTheSame(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.GetByIDFunc = func(_ context.Context, id int64) (*domain.Patient, error) {
		return storedPatient(id, []byte{1}), nil
	}
	deps.patients.UpdateFunc = func(context.Context, *domain.Patient, []byte) (*domain.Patient, error) {
		return nil, domain.ErrConflict
	}

	_, err := svc.Update(context.Background(), validUpdateInput(7, []byte{1}))
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, deps.audit.calls)
}

func TestService_Update_NotFound(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	_, err := svc.Update(context.Background(), validUpdateInput(7, []byte{1}))
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, deps.patients.updateCalls)
}

func TestService_Update_DuplicateDocument(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.GetByIDFunc = func(_ context.Context, id int64) (*domain.Patient, error) {
		return storedPatient(id, []byte{1}), nil
	}
	deps.patients.ExistsByDocumentFunc = func(context.Context, string, string, *int64) (bool, error) {
		return true, nil
	}

	_, err := svc.Update(context.Background(), validUpdateInput(7, []byte{1}))
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Zero(t, deps.patients.updateCalls)
	assert.Empty(t, deps.audit.calls)
}

func TestService_Update_Validation(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	input := validUpdateInput(0, nil)
	input.Email = ptr("not-an-email")

	_, err := svc.Update(context.Background(), input)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields(), "id")
	assert.Contains(t, ve.Fields(), "email")
	assert.Zero(t, deps.tx.called)
}

// ===========================================================================
// Delete
// ===========================================================================

func TestService_Delete_Success(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	require.NoError(t, svc.Delete(context.Background(), 5))

	require.Len(t, deps.audit.calls, 1)
	call := deps.audit.calls[0]
	assert.Equal(t, domain.AuditActionDelete, call.Action)
	assert.Equal(t, int64(5), call.EntityID)
	assert.Nil(t, call.Payload)
	assert.False(t, call.InTx)
}

func TestService_Delete_NotFound(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.patients.DeleteFunc = func(context.Context, int64) error {
		return domain.ErrNotFound
	}

	err := svc.Delete(context.Background(), 5)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, deps.audit.calls)
}

// ===========================================================================
// History
// ===========================================================================

func TestService_History(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	deps.history.GetByEntityFunc = func(_ context.Context, entity domain.EntityType, id int64, limit int) ([]domain.AuditEntry, error) {
		assert.Equal(t, domain.EntityTypePatient, entity)
		assert.Equal(t, int64(3), id)
		assert.Equal(t, 50, limit)
		return []domain.AuditEntry{{ID: 2, Action: domain.AuditActionUpdate}, {ID: 1, Action: domain.AuditActionCreate}}, nil
	}

	entries, err := svc.History(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestService_History_EmptyIsNotNil(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(defaultCfg())

	entries, err := svc.History(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

// ===========================================================================
// Metrics
// ===========================================================================

func TestService_ObservesOperations(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())

	_, _ = svc.Get(context.Background(), 1)
	_ = svc.Delete(context.Background(), 1)

	require.Len(t, deps.metrics.obs, 2)
	assert.Equal(t, opGet, deps.metrics.obs[0].Op)
	assert.ErrorIs(t, deps.metrics.obs[0].Err, domain.ErrNotFound)
	assert.Equal(t, opDelete, deps.metrics.obs[1].Op)
	assert.NoError(t, deps.metrics.obs[1].Err)
}

// Package patient implements the patient repository using PostgreSQL.
// It hosts the listing query engine, the duplicate identity check and the
// version-conditioned write.
package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/seanrito/patients-backend/internal/adapter/postgres"
	"github.com/seanrito/patients-backend/internal/domain"
)

const (
	table  = "patients"
	entity = "patient"
)

var columns = []string{
	"patient_id",
	"document_type",
	"document_number",
	"first_name",
	"last_name",
	"birth_date",
	"phone_number",
	"email",
	"created_at",
	"row_version",
}

var returning = "RETURNING " + strings.Join(columns, ", ")

// newVersion is evaluated by the store on every write.
var newVersion = sq.Expr("uuid_send(gen_random_uuid())")

// Repo provides patient persistence backed by PostgreSQL.
type Repo struct {
	db        postgres.Querier
	nameMatch domain.NameMatch
}

// New creates a new patient repository. nameMatch selects LIKE or ILIKE for
// the name filter and applies to both listing and export.
func New(db postgres.Querier, nameMatch domain.NameMatch) *Repo {
	if !nameMatch.IsValid() {
		nameMatch = domain.NameMatchSensitive
	}
	return &Repo{db: db, nameMatch: nameMatch}
}

// patientRow mirrors the patients table for scanning.
type patientRow struct {
	ID             int64     `db:"patient_id"`
	DocumentType   string    `db:"document_type"`
	DocumentNumber string    `db:"document_number"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	BirthDate      time.Time `db:"birth_date"`
	PhoneNumber    *string   `db:"phone_number"`
	Email          *string   `db:"email"`
	CreatedAt      time.Time `db:"created_at"`
	RowVersion     []byte    `db:"row_version"`
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a patient by primary key.
// Returns domain.ErrNotFound if the patient does not exist.
func (r *Repo) GetByID(ctx context.Context, id int64) (*domain.Patient, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"patient_id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get patient query: %w", err)
	}

	var row patientRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, entity, id)
	}

	p := toDomain(row)
	return &p, nil
}

// ExistsByDocument reports whether a patient with the given document identity
// exists. When excludeID is non-nil that patient is ignored.
func (r *Repo) ExistsByDocument(ctx context.Context, docType, docNumber string, excludeID *int64) (bool, error) {
	b := postgres.Builder().
		Select("1").
		From(table).
		Where(sq.Eq{"document_type": docType}).
		Where(sq.Eq{"document_number": docNumber})
	if excludeID != nil {
		b = b.Where(sq.NotEq{"patient_id": *excludeID})
	}

	query, args, err := b.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var exists bool
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, postgres.MapError(err, entity, docType+"/"+docNumber)
	}
	return exists, nil
}

// Find returns one page of patients matching q together with the number of
// matching patients before pagination. q must already be normalized.
func (r *Repo) Find(ctx context.Context, q domain.PatientQuery) ([]domain.Patient, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	countQuery, countArgs, err := applyFilter(
		postgres.Builder().Select("COUNT(*)").From(table), q.Filter, r.nameMatch,
	).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := querier.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, postgres.MapError(err, "count patients", "")
	}
	if total == 0 {
		return []domain.Patient{}, 0, nil
	}

	query, args, err := applyFilter(
		postgres.Builder().Select(columns...).From(table), q.Filter, r.nameMatch,
	).
		OrderBy(orderBy(q.SortBy, q.Descending)...).
		Limit(uint64(q.PageSize)).
		Offset(uint64(q.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	var rows []patientRow
	if err := pgxscan.Select(ctx, querier, &rows, query, args...); err != nil {
		return nil, 0, postgres.MapError(err, "list patients", "")
	}

	return toDomainList(rows), total, nil
}

// FindForExport returns patients matching f ordered by created_at descending.
// A positive limit caps the number of rows returned.
func (r *Repo) FindForExport(ctx context.Context, f domain.PatientFilter, limit int) ([]domain.Patient, error) {
	b := applyFilter(postgres.Builder().Select(columns...).From(table), f, r.nameMatch).
		OrderBy("created_at DESC", "patient_id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build export query: %w", err)
	}

	var rows []patientRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "export patients", "")
	}

	return toDomainList(rows), nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new patient. The store assigns id, created_at and the
// version token. Returns domain.ErrAlreadyExists on a document identity clash.
func (r *Repo) Create(ctx context.Context, p *domain.Patient) (*domain.Patient, error) {
	query, args, err := postgres.Builder().
		Insert(table).
		Columns(
			"document_type", "document_number", "first_name", "last_name",
			"birth_date", "phone_number", "email",
		).
		Values(
			p.DocumentType, p.DocumentNumber, p.FirstName, p.LastName,
			p.BirthDate, p.PhoneNumber, p.Email,
		).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert patient query: %w", err)
	}

	var row patientRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, entity, p.DocumentType+"/"+p.DocumentNumber)
	}

	created := toDomain(row)
	return &created, nil
}

// Update overwrites the mutable fields of patient p.ID and issues a new
// version token. When expectedVersion is non-nil the write only applies if
// the stored token still equals it.
//
// Returns domain.ErrNotFound if the patient is gone, domain.ErrConflict if the
// version precondition failed, domain.ErrAlreadyExists on an identity clash.
func (r *Repo) Update(ctx context.Context, p *domain.Patient, expectedVersion []byte) (*domain.Patient, error) {
	b := postgres.Builder().
		Update(table).
		Set("document_type", p.DocumentType).
		Set("document_number", p.DocumentNumber).
		Set("first_name", p.FirstName).
		Set("last_name", p.LastName).
		Set("birth_date", p.BirthDate).
		Set("phone_number", p.PhoneNumber).
		Set("email", p.Email).
		Set("row_version", newVersion).
		Where(sq.Eq{"patient_id": p.ID})
	if len(expectedVersion) > 0 {
		// sq.Eq would expand a []byte into an IN list.
		b = b.Where(sq.Expr("row_version = ?", expectedVersion))
	}

	query, args, err := b.Suffix(returning).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update patient query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)

	var row patientRow
	err = pgxscan.Get(ctx, querier, &row, query, args...)
	if err == nil {
		updated := toDomain(row)
		return &updated, nil
	}
	if !pgxscan.NotFound(err) {
		return nil, postgres.MapError(err, entity, p.ID)
	}

	// No row matched: either the patient is gone or its version moved on.
	exists, err := r.existsByID(ctx, querier, p.ID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%s %d: %w", entity, p.ID, domain.ErrNotFound)
	}
	return nil, fmt.Errorf("%s %d: stale version: %w", entity, p.ID, domain.ErrConflict)
}

// Delete removes a patient. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	query, args, err := postgres.Builder().
		Delete(table).
		Where(sq.Eq{"patient_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete patient query: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, entity, id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}

func (r *Repo) existsByID(ctx context.Context, querier postgres.Querier, id int64) (bool, error) {
	var exists bool
	err := querier.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE patient_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, postgres.MapError(err, entity, id)
	}
	return exists, nil
}

// ---------------------------------------------------------------------------
// Mapping helpers: row -> domain
// ---------------------------------------------------------------------------

func toDomain(row patientRow) domain.Patient {
	return domain.Patient{
		ID:             row.ID,
		DocumentType:   row.DocumentType,
		DocumentNumber: row.DocumentNumber,
		FirstName:      row.FirstName,
		LastName:       row.LastName,
		BirthDate:      row.BirthDate,
		PhoneNumber:    row.PhoneNumber,
		Email:          row.Email,
		CreatedAt:      row.CreatedAt.UTC(),
		RowVersion:     row.RowVersion,
	}
}

func toDomainList(rows []patientRow) []domain.Patient {
	out := make([]domain.Patient, len(rows))
	for i, row := range rows {
		out[i] = toDomain(row)
	}
	return out
}

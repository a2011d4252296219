package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seanrito/patients-backend/internal/domain"
)

// UniqueSuffix returns a short unique string for generating non-conflicting test data.
func UniqueSuffix() string {
	return uuid.New().String()[:8]
}

// PatientOption tweaks a seeded patient before insertion.
type PatientOption func(*domain.Patient)

// WithName sets first and last name.
func WithName(first, last string) PatientOption {
	return func(p *domain.Patient) {
		p.FirstName = first
		p.LastName = last
	}
}

// WithCreatedAt overrides the store-assigned creation timestamp.
func WithCreatedAt(at time.Time) PatientOption {
	return func(p *domain.Patient) { p.CreatedAt = at }
}

// WithEmail sets the optional email.
func WithEmail(email string) PatientOption {
	return func(p *domain.Patient) { p.Email = &email }
}

// SeedPatient inserts a patient with a unique document number and returns
// the persisted record, including the store-assigned id and version token.
func SeedPatient(t *testing.T, pool *pgxpool.Pool, opts ...PatientOption) domain.Patient {
	t.Helper()
	ctx := context.Background()

	p := domain.Patient{
		DocumentType:   "CC",
		DocumentNumber: "T" + UniqueSuffix(),
		FirstName:      "Test",
		LastName:       "Patient",
		BirthDate:      time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	for _, opt := range opts {
		opt(&p)
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO patients (document_type, document_number, first_name, last_name, birth_date, phone_number, email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING patient_id, row_version`,
		p.DocumentType, p.DocumentNumber, p.FirstName, p.LastName, p.BirthDate, p.PhoneNumber, p.Email, p.CreatedAt,
	).Scan(&p.ID, &p.RowVersion)
	if err != nil {
		t.Fatalf("testhelper: SeedPatient insert: %v", err)
	}

	return p
}

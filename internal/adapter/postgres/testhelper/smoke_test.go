//go:build integration

package testhelper

import (
	"context"
	"testing"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	p := SeedPatient(t, pool)

	var number string
	err := pool.QueryRow(
		context.Background(),
		`SELECT document_number FROM patients WHERE patient_id = $1`,
		p.ID,
	).Scan(&number)
	if err != nil {
		t.Fatalf("expected patient in DB, got error: %v", err)
	}

	if number != p.DocumentNumber {
		t.Fatalf("expected document number %q, got %q", p.DocumentNumber, number)
	}
	if len(p.RowVersion) != 16 {
		t.Fatalf("expected 16-byte version token, got %d bytes", len(p.RowVersion))
	}
}

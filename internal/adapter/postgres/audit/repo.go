// Package audit implements the audit log repository using PostgreSQL.
// It provides append-only operations for audit entries.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/seanrito/patients-backend/internal/adapter/postgres"
	"github.com/seanrito/patients-backend/internal/domain"
)

const table = "audit_logs"

var columns = []string{
	"audit_log_id",
	"entity",
	"entity_id",
	"action",
	"username",
	"created_at",
	"changes",
}

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new audit repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type auditRow struct {
	ID        int64     `db:"audit_log_id"`
	Entity    string    `db:"entity"`
	EntityID  int64     `db:"entity_id"`
	Action    string    `db:"action"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
	Changes   []byte    `db:"changes"`
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create appends an audit entry and returns it with the store-assigned id.
// A zero CreatedAt lets the store stamp the entry.
func (r *Repo) Create(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	if !e.Action.IsValid() {
		return domain.AuditEntry{}, fmt.Errorf("audit_log action %q: %w", e.Action, domain.ErrValidation)
	}

	var changes any
	if len(e.Changes) > 0 {
		changes = json.RawMessage(e.Changes)
	}

	cols := []string{"entity", "entity_id", "action", "username", "changes"}
	vals := []any{string(e.Entity), e.EntityID, string(e.Action), e.Username, changes}
	if !e.CreatedAt.IsZero() {
		cols = append(cols, "created_at")
		vals = append(vals, e.CreatedAt)
	}

	query, args, err := postgres.Builder().
		Insert(table).
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING audit_log_id, entity, entity_id, action, username, created_at, changes").
		ToSql()
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("build insert audit_log query: %w", err)
	}

	var row auditRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, query, args...); err != nil {
		return domain.AuditEntry{}, postgres.MapError(err, "audit_log", e.EntityID)
	}

	return toDomain(row), nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByEntity returns the change history for a specific entity, newest
// first, limited to limit entries. Returns an empty slice when there is none.
func (r *Repo) GetByEntity(ctx context.Context, entity domain.EntityType, entityID int64, limit int) ([]domain.AuditEntry, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"entity": string(entity)}).
		Where(sq.Eq{"entity_id": entityID}).
		OrderBy("created_at DESC", "audit_log_id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit history query: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "audit_log", entityID)
	}

	out := make([]domain.AuditEntry, len(rows))
	for i, row := range rows {
		out[i] = toDomain(row)
	}
	return out, nil
}

func toDomain(row auditRow) domain.AuditEntry {
	e := domain.AuditEntry{
		ID:        row.ID,
		Entity:    domain.EntityType(row.Entity),
		EntityID:  row.EntityID,
		Action:    domain.AuditAction(row.Action),
		Username:  row.Username,
		CreatedAt: row.CreatedAt.UTC(),
	}
	if len(row.Changes) > 0 {
		e.Changes = json.RawMessage(row.Changes)
	}
	return e
}

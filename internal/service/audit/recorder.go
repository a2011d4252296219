// Package audit records mutations of domain entities after they commit.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/seanrito/patients-backend/internal/domain"
	"github.com/seanrito/patients-backend/pkg/ctxutil"
)

type auditRepo interface {
	Create(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error)
}

type failureCounter interface {
	AuditFailed(action domain.AuditAction)
}

// Recorder appends audit entries. Failures are logged and counted, never
// returned: the mutation being recorded has already committed.
type Recorder struct {
	repo         auditRepo
	failures     failureCounter
	defaultActor string
	log          *slog.Logger
}

// NewRecorder creates a Recorder. A blank defaultActor falls back to
// domain.DefaultActor.
func NewRecorder(log *slog.Logger, repo auditRepo, failures failureCounter, defaultActor string) *Recorder {
	if strings.TrimSpace(defaultActor) == "" {
		defaultActor = domain.DefaultActor
	}
	return &Recorder{
		repo:         repo,
		failures:     failures,
		defaultActor: defaultActor,
		log:          log.With("service", "audit"),
	}
}

// Record appends one entry for the given mutation. payload is serialized as
// JSON when non-nil.
func (r *Recorder) Record(ctx context.Context, entity domain.EntityType, entityID int64, action domain.AuditAction, payload any) {
	// The caller may cancel as soon as the mutation returns.
	ctx = context.WithoutCancel(ctx)

	entry := domain.AuditEntry{
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Username: r.actor(ctx),
	}

	if payload != nil {
		changes, err := json.Marshal(payload)
		if err != nil {
			r.fail(ctx, entry, "marshal audit payload", err)
			return
		}
		entry.Changes = changes
	}

	if _, err := r.repo.Create(ctx, entry); err != nil {
		r.fail(ctx, entry, "append audit entry", err)
	}
}

func (r *Recorder) actor(ctx context.Context) string {
	if actor, ok := ctxutil.ActorFromCtx(ctx); ok {
		return strings.TrimSpace(actor)
	}
	return r.defaultActor
}

func (r *Recorder) fail(ctx context.Context, entry domain.AuditEntry, msg string, err error) {
	r.log.ErrorContext(ctx, msg,
		slog.String("entity", entry.Entity.String()),
		slog.Int64("entity_id", entry.EntityID),
		slog.String("action", entry.Action.String()),
		slog.String("username", entry.Username),
		slog.String("error", err.Error()),
	)
	if r.failures != nil {
		r.failures.AuditFailed(entry.Action)
	}
}

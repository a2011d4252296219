package ctxutil

import (
	"context"
	"strings"
	"unicode/utf8"
)

// MaxActorLen is the longest actor name kept, in characters. It matches the
// audit_logs.username column.
const MaxActorLen = 100

type ctxKey string

const (
	actorKey     ctxKey = "actor"
	requestIDKey ctxKey = "request_id"
)

// WithActor stores the acting user's name in the context. Invalid UTF-8 is
// dropped and the name is cut to MaxActorLen characters on a rune boundary.
func WithActor(ctx context.Context, actor string) context.Context {
	actor = strings.ToValidUTF8(actor, "")
	if utf8.RuneCountInString(actor) > MaxActorLen {
		actor = string([]rune(actor)[:MaxActorLen])
	}
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromCtx extracts the acting user's name from the context.
// Returns "" and false if the value is missing or blank.
func ActorFromCtx(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey).(string)
	if !ok || strings.TrimSpace(actor) == "" {
		return "", false
	}
	return actor, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

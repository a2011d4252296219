package middleware

import (
	"net/http"
	"strings"

	"github.com/seanrito/patients-backend/pkg/ctxutil"
)

// ActorHeader names the user on whose behalf a request is made.
const ActorHeader = "X-Actor"

// Actor returns middleware that stores the X-Actor header in the context for
// audit entries, normalized by ctxutil.WithActor. Requests without it are
// attributed to the default actor.
func Actor() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(ActorHeader))
			if actor == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctxutil.WithActor(r.Context(), actor)))
		})
	}
}


package middleware

import (
	"log/slog"
	"net/http"
)

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain combines multiple middleware into a single Middleware.
// Chain(mw1, mw2)(handler) results in mw1(mw2(handler)).
func Chain(mws ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}

// Standard returns the middleware every API request passes through, outermost
// first: request id, actor, access log, panic recovery. onPanic writes the
// response for a recovered panic.
func Standard(logger *slog.Logger, onPanic http.HandlerFunc) Middleware {
	return Chain(
		RequestID(),
		Actor(),
		Logger(logger),
		Recovery(logger, onPanic),
	)
}

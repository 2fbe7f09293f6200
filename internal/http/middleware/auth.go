package middleware

import (
	"io"
	"net/http"
	"strings"

	"moto-dispatch/internal/auth"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
)

// TokenParser turns a bearer token into an actor.
type TokenParser interface {
	Parse(raw string) (domain.Actor, error)
}

// Authenticate requires "Authorization: Bearer <jwt>" and stores the actor in the request context.
func Authenticate(parser TokenParser, logger logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, logger, "missing bearer token")
				return
			}
			actor, err := parser.Parse(raw)
			if err != nil {
				logger.Debug("bearer rejected", logx.String("path", r.URL.Path), logx.Err(err))
				unauthorized(w, logger, "invalid or expired token")
				return
			}
			if h := actorHolderFrom(r.Context()); h != nil {
				h.set(actor)
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

func bearer(h string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, logger logx.Logger, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="moto-dispatch"`)
	w.WriteHeader(http.StatusUnauthorized)
	if _, err := io.WriteString(w, `{"error":"`+msg+`","code":"unauthorized"}`); err != nil {
		logger.Debug("unauthorized response write failed", logx.Err(err))
	}
}

// Package middleware provides HTTP middlewares for session tracking, request
// logging and rate limiting.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey string

const (
	sessionKey    ctxKey = "session"
	newSessionKey ctxKey = "new_session"
)

// SessionCookie is the name of the cookie that carries the session id.
const SessionCookie = "sid"

// Session is a middleware that assigns every browser a session.
//
// It reads the session id from the sid cookie. When the cookie is missing or
// does not hold a UUID, a new id is generated and set as an HttpOnly cookie.
// The id is stored in the request context, so downstream handlers can open
// the state of that session.
func Session(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			ctx := r.Context()
			if id == "" {
				id = uuid.NewString()
				ctx = context.WithValue(ctx, newSessionKey, true)
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSessionID(ctx, id)))
		})
	}
}

// GetSessionIDFromContext extracts the session id from the request context.
// Returns an empty string if not found.
func GetSessionIDFromContext(ctx context.Context) string {
	val := ctx.Value(sessionKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// IsNewSession reports whether the session id in ctx was issued by this
// request because the client sent no valid cookie.
func IsNewSession(ctx context.Context) bool {
	v, _ := ctx.Value(newSessionKey).(bool)
	return v
}

// ContextWithSessionID returns a copy of ctx carrying id.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

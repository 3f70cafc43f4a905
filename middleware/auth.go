package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"daily-diet/session"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "token"

type contextKey struct{}

// TokenDecoder turns a cookie value into a session.
type TokenDecoder interface {
	Decode(raw string) (session.Token, error)
}

func WithSession(ctx context.Context, tok session.Token) context.Context {
	return context.WithValue(ctx, contextKey{}, tok)
}

func SessionFromContext(ctx context.Context) (session.Token, bool) {
	tok, ok := ctx.Value(contextKey{}).(session.Token)
	return tok, ok
}

// UserID returns the authenticated user id, or "" outside RequireAuth.
func UserID(ctx context.Context) string {
	tok, ok := SessionFromContext(ctx)
	if !ok {
		return ""
	}
	return tok.UserID
}

// RequireAuth rejects requests without a valid session cookie with 401 and
// stores the decoded session in the request context otherwise.
func RequireAuth(codec TokenDecoder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			tok, err := codec.Decode(cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrExpiredToken) {
					logger.Warn("rejected session token", "error", err, "remote", RealIP(r))
				}
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), tok)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

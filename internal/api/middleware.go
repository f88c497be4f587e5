package api

import (
	"context"
	"net/http"

	"github.com/shopmate-ai/shopmate/internal/database"
)

type contextKey string

const userContextKey contextKey = "user"

// requireUser resolves the session cookie to a user and rejects the request
// with 401 when no valid session exists. Missing identity is never silently
// treated as a guest.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := s.sessionUser(r)
		if user == nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

// sessionUser resolves the session cookie, returning nil when the session is
// missing, unknown, or expired.
func (s *Server) sessionUser(r *http.Request) *database.User {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	user, err := s.store.AuthSessionUser(r.Context(), cookie.Value)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to resolve session", "error", err)
		return nil
	}
	return user
}

func userFrom(ctx context.Context) *database.User {
	user, _ := ctx.Value(userContextKey).(*database.User)
	return user
}

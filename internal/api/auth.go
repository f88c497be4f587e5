package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookie = "shopmate_session"
	chatCookie    = "shopmate_chat"
)

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	creds.Username = strings.TrimSpace(creds.Username)
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Username == "" || creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email, and password are required")
		return
	}

	ctx := r.Context()
	if existing, err := s.store.UserByUsername(ctx, creds.Username); err != nil {
		s.logger.ErrorContext(ctx, "Failed to check username", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "username already exists")
		return
	}
	if existing, err := s.store.UserByEmail(ctx, creds.Email); err != nil {
		s.logger.ErrorContext(ctx, "Failed to check email", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user, err := s.store.CreateUser(ctx, creds.Username, creds.Email, string(hash))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create user", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	// Auto-login after registration.
	if err := s.startSession(w, r, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"username": user.Username,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx := r.Context()
	user, err := s.store.UserByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to look up user", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := s.startSession(w, r, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"username": user.Username,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.store.DeleteAuthSession(r.Context(), cookie.Value); err != nil {
			s.logger.WarnContext(r.Context(), "Failed to delete auth session", "error", err)
		}
	}

	clearCookie(w, sessionCookie)
	clearCookie(w, chatCookie)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// startSession creates a DB-backed login session and sets the session cookie.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	token := uuid.NewString()
	expires := time.Now().Add(s.cfg.SessionTTL)

	if err := s.store.CreateAuthSession(r.Context(), token, userID, expires); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to create auth session", "error", err)
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

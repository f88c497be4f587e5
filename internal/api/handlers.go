package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/shopmate-ai/shopmate/internal/chat"
	"github.com/shopmate-ai/shopmate/internal/metrics"
)

// chatToken returns the caller's conversation token, minting and setting a
// new one when absent. The conversation itself is created lazily by the chat
// service.
func (s *Server) chatToken(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(chatCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     chatCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	user := userFrom(r.Context())
	token := s.chatToken(w, r)

	exchange, err := s.chat.Handle(r.Context(), user.ID, token, payload.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "empty message")
		return
	case errors.Is(err, chat.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Chat handling failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	metrics.RepliesTotal.WithLabelValues(exchange.Reply.Kind).Inc()
	writeJSON(w, http.StatusOK, exchange)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	token := s.chatToken(w, r)

	messages, err := s.chat.History(r.Context(), user.ID, token)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load chat history", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	user := userFrom(r.Context())

	result, err := s.chat.AddToCart(r.Context(), user.ID, payload.ProductID, payload.Quantity)
	switch {
	case errors.Is(err, chat.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product not found")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Add to cart failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to add to cart")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    result.Title + " added to cart!",
		"cart_count": result.CartCount,
	})
}

// handleCartCount deliberately serves anonymous callers a count of 0 instead
// of a 401; this mirrors the historical endpoint contract.
func (s *Server) handleCartCount(w http.ResponseWriter, r *http.Request) {
	user := s.sessionUser(r)
	if user == nil {
		writeJSON(w, http.StatusOK, map[string]int{"count": 0})
		return
	}

	count, err := s.chat.CartCount(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Cart count failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to count cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleClearChat(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	token := s.chatToken(w, r)

	err := s.chat.ClearConversation(r.Context(), user.ID, token)
	switch {
	case errors.Is(err, chat.ErrNoConversation):
		writeError(w, http.StatusBadRequest, "no chat session found")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Clear chat failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to clear chat")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

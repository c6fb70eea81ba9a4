package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tally/internal/core"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	userID, err := s.accounts.Register(r.Context(), strings.TrimSpace(req.Username), req.Password, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			respondError(w, http.StatusConflict, "username already taken")
			return
		}
		respondDomainError(w, r, err)
		return
	}

	token, err := s.tokens.Generate(userID, req.Username)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to generate session token", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, "user registered", sessionResponse{Token: token, UserID: string(userID)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	userID, err := s.accounts.Authenticate(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	token, err := s.tokens.Generate(userID, req.Username)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to generate session token", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, "login successful", sessionResponse{Token: token, UserID: string(userID)})
}

type currencyPayload struct {
	Currency string `json:"currency"`
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	currency, err := s.accounts.Currency(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", currencyPayload{Currency: currency})
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyPayload
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := s.accounts.SetCurrency(r.Context(), userIDFrom(r.Context()), strings.TrimSpace(req.Currency)); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "currency updated", currencyPayload{Currency: strings.TrimSpace(req.Currency)})
}

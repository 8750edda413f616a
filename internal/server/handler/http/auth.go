// Package http provides HTTP handlers for Telegram WebApp authentication.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Flaymie/oprosy/internal/initdata"
	"github.com/Flaymie/oprosy/internal/middleware"
	"github.com/Flaymie/oprosy/internal/models"
	"github.com/Flaymie/oprosy/internal/repository"
)

// AuthService defines the authentication operations required by the HTTP
// handlers.
type AuthService interface {
	// Authenticate verifies a raw initData credential and resolves it to a
	// registered account.
	Authenticate(ctx context.Context, raw string) (*models.Account, *initdata.Identity, error)
}

// AuthHandler handles HTTP requests for credential validation and the
// current-user endpoint.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// ValidateRequest represents the JSON payload for explicit initData
// validation.
type ValidateRequest struct {
	// InitData is the raw credential string from the Telegram WebApp.
	InitData string `json:"init_data"`
}

// AuthResponse is the account view returned after successful
// authentication.
type AuthResponse struct {
	UserID     int64  `json:"user_id"`
	TelegramID int64  `json:"telegram_id"`
	IsAdmin    bool   `json:"is_admin"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
}

// errorBody is the JSON error shape shared with the middleware layer.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func accountResponse(a *models.Account) AuthResponse {
	return AuthResponse{
		UserID:     a.ID,
		TelegramID: a.TelegramID,
		IsAdmin:    a.IsAdmin,
		Username:   a.Username,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
	}
}

// Validate handles explicit initData validation requests.
// It expects a JSON body with a non-empty "init_data" field, verifies the
// credential's signature and freshness and returns the matching account.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InitData == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "init_data is required"})
		return
	}

	account, _, err := h.AuthService.Authenticate(r.Context(), req.InitData)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrAccountNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "User not found. Please start the bot first."})
		return
	case isCredentialError(err):
		writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Invalid initData signature or expired"})
		return
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, accountResponse(account))
}

// Me returns the account of the authenticated request. It must be mounted
// behind the TelegramAuth middleware, which places the account in the
// request context.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccountFromContext(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Authorization required"})
		return
	}
	writeJSON(w, http.StatusOK, accountResponse(account))
}

// isCredentialError reports whether err is a terminal credential rejection.
func isCredentialError(err error) bool {
	for _, sentinel := range []error{
		initdata.ErrMalformedCredential,
		initdata.ErrMissingSignature,
		initdata.ErrInvalidSignature,
		initdata.ErrMissingTimestamp,
		initdata.ErrExpired,
		initdata.ErrMissingUserPayload,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

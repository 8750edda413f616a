package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Flaymie/oprosy/internal/initdata"
	"github.com/Flaymie/oprosy/internal/models"
	"github.com/Flaymie/oprosy/internal/repository"
)

type ctxKey string

const (
	accountKey  ctxKey = "account"
	identityKey ctxKey = "identity"
)

// Authenticator resolves a raw Telegram WebApp credential to a registered
// account and its verified identity.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*models.Account, *initdata.Identity, error)
}

// TelegramAuth is a middleware that enforces Telegram WebApp authentication.
//
// It expects the initData credential as a bearer token
// (Authorization: Bearer <initData>), verifies its signature and freshness,
// resolves the signed identity to an account and stores both in the request
// context for downstream handlers.
//
// The 401 body names which sub-check failed. That distinguishability is a
// deliberate carry-over for client debugging; a stricter posture would
// collapse all credential failures into one message.
func TelegramAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			account, identity, err := auth.Authenticate(r.Context(), raw)
			switch {
			case err == nil:
			case errors.Is(err, repository.ErrAccountNotFound):
				writeError(w, http.StatusNotFound, "User not found. Please start the bot first.")
				return
			case isCredentialError(err):
				writeError(w, http.StatusUnauthorized, "Invalid initData: "+err.Error())
				return
			default:
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), accountKey, account)
			ctx = context.WithValue(ctx, identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isCredentialError reports whether err is one of the terminal credential
// rejection reasons.
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

// GetAccountFromContext extracts the authenticated account from the request
// context. Returns nil if the request did not pass TelegramAuth.
func GetAccountFromContext(ctx context.Context) *models.Account {
	if a, ok := ctx.Value(accountKey).(*models.Account); ok {
		return a
	}
	return nil
}

// GetIdentityFromContext extracts the verified Telegram identity from the
// request context. Returns nil if the request did not pass TelegramAuth.
func GetIdentityFromContext(ctx context.Context) *initdata.Identity {
	if id, ok := ctx.Value(identityKey).(*initdata.Identity); ok {
		return id
	}
	return nil
}

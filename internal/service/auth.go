// Package service provides business-logic services for request
// authentication, delegating credential checks to the initdata verifier and
// persistence to an AccountRepository.
package service

import (
	"context"
	"time"

	"github.com/Flaymie/oprosy/internal/initdata"
	"github.com/Flaymie/oprosy/internal/models"
)

// AccountRepository defines the persistence operations required by the
// authentication service.
type AccountRepository interface {
	// ByTelegramID fetches the account bound to the Telegram user id.
	// Returns repository.ErrAccountNotFound when no account exists.
	ByTelegramID(ctx context.Context, telegramID int64) (*models.Account, error)
	// UpdateProfile refreshes the display fields of an existing account.
	UpdateProfile(ctx context.Context, telegramID int64, username, firstName, lastName string) error
}

// AuthService turns raw Telegram WebApp credentials into verified
// identities and resolves them to platform accounts.
type AuthService struct {
	repo     AccountRepository
	verifier *initdata.Verifier
	secret   string

	// now supplies the verification time; replaced in tests.
	now func() time.Time
}

// NewAuthService constructs an AuthService verifying credentials against
// botToken, accepting credentials up to maxAge seconds old.
func NewAuthService(repo AccountRepository, botToken string, maxAge int64) *AuthService {
	return &AuthService{
		repo:     repo,
		verifier: initdata.NewVerifier(maxAge),
		secret:   botToken,
		now:      time.Now,
	}
}

// VerifyCredential checks the signature and freshness of a raw credential
// and returns the signed identity. It performs no persistence; the caller
// decides whether the identity maps to an account.
func (s *AuthService) VerifyCredential(raw string) (*initdata.Identity, error) {
	return s.verifier.Verify(raw, s.secret, s.now().Unix())
}

// Authenticate verifies the credential and resolves the identity to a
// registered account. When the signed profile fields differ from the stored
// ones, the stored ones are refreshed. Returns the initdata sentinel errors
// for credential failures and repository.ErrAccountNotFound for identities
// without an account.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*models.Account, *initdata.Identity, error) {
	identity, err := s.VerifyCredential(raw)
	if err != nil {
		return nil, nil, err
	}

	account, err := s.repo.ByTelegramID(ctx, identity.TelegramID)
	if err != nil {
		return nil, nil, err
	}

	if account.Username != identity.Username ||
		account.FirstName != identity.FirstName ||
		account.LastName != identity.LastName {
		if err := s.repo.UpdateProfile(ctx, identity.TelegramID,
			identity.Username, identity.FirstName, identity.LastName); err != nil {
			return nil, nil, err
		}
		account.Username = identity.Username
		account.FirstName = identity.FirstName
		account.LastName = identity.LastName
	}

	return account, identity, nil
}

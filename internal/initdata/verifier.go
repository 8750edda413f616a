package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"sync"
)

// signingKeyLabel is the fixed HMAC key Telegram prescribes for deriving the
// per-bot signing key from the bot token.
const signingKeyLabel = "WebAppData"

// Verifier checks Telegram WebApp credentials against a bot token. It is
// stateless apart from a cached signing key and safe for concurrent use.
type Verifier struct {
	// MaxAge is the maximum accepted age of a credential's auth_date in
	// seconds. A credential exactly MaxAge old is still accepted; one
	// second older is rejected.
	MaxAge int64

	mu     sync.Mutex
	secret string
	key    []byte
}

// NewVerifier returns a Verifier that accepts credentials up to maxAge
// seconds old.
func NewVerifier(maxAge int64) *Verifier {
	return &Verifier{MaxAge: maxAge}
}

// signingKey returns HMAC-SHA256(key="WebAppData", message=secret). The key
// depends on the secret alone; it is cached and recomputed only when the
// secret changes.
func (v *Verifier) signingKey(secret string) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.secret != secret || v.key == nil {
		mac := hmac.New(sha256.New, []byte(signingKeyLabel))
		mac.Write([]byte(secret))
		v.key = mac.Sum(nil)
		v.secret = secret
	}
	return v.key
}

// userPayload mirrors the JSON object Telegram signs into the user field.
type userPayload struct {
	ID           *int64 `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
}

// Verify parses and verifies a raw credential against secret, with now as
// the verification time in Unix seconds. On success it returns the signed
// identity; on failure one of the package sentinel errors.
//
// The checks run in a fixed order: parse, signature, freshness, user
// payload. No part of the credential is trusted before the signature check
// passes.
func (v *Verifier) Verify(raw, secret string, now int64) (*Identity, error) {
	p, err := parse(raw)
	if err != nil {
		return nil, err
	}

	received, ok := p["hash"]
	if !ok || received == "" {
		return nil, ErrMissingSignature
	}

	mac := hmac.New(sha256.New, v.signingKey(secret))
	mac.Write([]byte(p.checkString()))
	candidate := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(candidate), []byte(received)) {
		return nil, ErrInvalidSignature
	}

	authDate, err := strconv.ParseInt(p["auth_date"], 10, 64)
	if err != nil {
		return nil, ErrMissingTimestamp
	}
	if now-authDate > v.MaxAge {
		return nil, ErrExpired
	}

	var user userPayload
	if err := json.Unmarshal([]byte(p["user"]), &user); err != nil || user.ID == nil {
		return nil, ErrMissingUserPayload
	}

	return &Identity{
		TelegramID:   *user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		LanguageCode: user.LanguageCode,
		AuthDate:     authDate,
	}, nil
}

// ExtractUserIDUnchecked pulls the Telegram user id out of a raw credential
// WITHOUT verifying its signature or freshness. The result is
// client-controlled and must never feed an authorization decision; it exists
// for cheap bookkeeping such as rate-limit partitioning and debug logging.
func ExtractUserIDUnchecked(raw string) (int64, bool) {
	p, err := parse(raw)
	if err != nil {
		return 0, false
	}
	var user userPayload
	if err := json.Unmarshal([]byte(p["user"]), &user); err != nil || user.ID == nil {
		return 0, false
	}
	return *user.ID, true
}

// Package initdata implements verification of Telegram WebApp initData:
// parsing the credential, recomputing its HMAC-SHA256 signature over the
// canonical data-check string, checking freshness of the embedded auth_date
// and extracting the signed user identity.
//
// See https://core.telegram.org/bots/webapps#validating-data-received-via-the-web-app
package initdata

import (
	"errors"
	"net/url"
	"sort"
	"strings"
)

// Verification failure reasons. All are terminal: none is retryable with the
// same credential.
var (
	// ErrMalformedCredential means the raw credential could not be parsed
	// as a URL-encoded query string.
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrMissingSignature means the credential carries no hash pair.
	ErrMissingSignature = errors.New("missing signature")
	// ErrInvalidSignature means the recomputed digest does not match the
	// supplied hash.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrMissingTimestamp means auth_date is absent or not numeric.
	ErrMissingTimestamp = errors.New("missing or invalid auth_date")
	// ErrExpired means auth_date is older than the configured maximum age.
	ErrExpired = errors.New("credential expired")
	// ErrMissingUserPayload means the user field is absent or not a JSON
	// object with a numeric id.
	ErrMissingUserPayload = errors.New("missing or invalid user payload")
)

// Identity is the verified result of a successful initData check. It is
// produced only after both the signature and the freshness checks pass, and
// is never cached: each request re-verifies its own credential.
type Identity struct {
	// TelegramID is the numeric Telegram user identifier.
	TelegramID int64 `json:"telegram_id"`
	// Username is the Telegram username, empty if the user has none.
	Username string `json:"username,omitempty"`
	// FirstName is the user's first name as set in Telegram.
	FirstName string `json:"first_name,omitempty"`
	// LastName is the user's last name as set in Telegram.
	LastName string `json:"last_name,omitempty"`
	// LanguageCode is the IETF language tag of the user's client.
	LanguageCode string `json:"language_code,omitempty"`
	// AuthDate is the Unix timestamp Telegram signed into the credential.
	AuthDate int64 `json:"auth_date"`
}

// pairs holds the URL-decoded key/value pairs of one credential. Duplicate
// keys collapse to the last occurrence, matching query-string semantics.
type pairs map[string]string

// parse decodes a raw credential into its pairs. Empty segments are
// skipped; a segment without '=' becomes a key with an empty value.
func parse(raw string) (pairs, error) {
	p := make(pairs)
	for _, seg := range strings.Split(raw, "&") {
		if seg == "" {
			continue
		}
		key, value, _ := strings.Cut(seg, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, ErrMalformedCredential
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, ErrMalformedCredential
		}
		p[k] = v
	}
	return p, nil
}

// checkString builds the canonical data-check string: every pair except
// hash, sorted by key in byte order, rendered as key=value and joined with
// newlines. The ordering and the joiner are part of the signing contract.
func (p pairs) checkString() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+p[k])
	}
	return strings.Join(parts, "\n")
}

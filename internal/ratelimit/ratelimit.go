// Package ratelimit provides per-client sliding-window admission control.
//
// A window is the exact set of admitted request timestamps within the last
// period; this makes the limit a true rolling bound rather than a fixed
// bucket. Denied requests are not recorded, so a throttled client does not
// keep pushing its own window forward.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Limit is the configured maximum number of requests per period.
	Limit int
	// Remaining is the quota left in the current window after this
	// request. Zero when the request is denied.
	Remaining int
}

// Store decides admission for a client key at a given time. Implementations
// must make the purge-sum-compare-append sequence atomic per key: two
// concurrent requests on the same key must never both take the last slot.
type Store interface {
	// Admit records the request for key at now if the window has room and
	// returns the decision. The error is non-nil only for infrastructure
	// failures of remote stores; the in-memory store never returns one.
	Admit(ctx context.Context, key string, now time.Time) (Decision, error)
}

package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Flaymie/oprosy/internal/ratelimit"
)

// exemptPaths are served without consulting the limiter: health checks and
// API documentation must stay reachable under load.
var exemptPaths = map[string]struct{}{
	"/":             {},
	"/health":       {},
	"/docs":         {},
	"/redoc":        {},
	"/openapi.json": {},
}

// bypassPrefixes exempts the administrative route groups from rate
// limiting. This trusts admin traffic by path rather than by role, which is
// a deliberate operational choice carried over from the deployment this
// replaces: the WebApp admin panel issues bursts of requests well above the
// per-client limit, and those routes are already behind authentication.
var bypassPrefixes = []string{
	"/api/quizzes",
	"/api/users",
	"/api/analytics",
}

// RateLimitConfig configures the rate limit middleware.
type RateLimitConfig struct {
	// Store makes the admission decisions.
	Store ratelimit.Store
	// ClientIDHeader names the trusted header that identifies the client.
	// When present its value keys the window; otherwise the peer address
	// does.
	ClientIDHeader string
	// Limit and Period describe the configured window for the 429 body.
	Limit  int
	Period time.Duration
	// Logger logs throttling and keying failures.
	Logger *zap.Logger
}

// clientKey resolves the rate-limit partition key for a request: trusted
// header first, then the transport peer address. An empty result means the
// request cannot be keyed at all.
func clientKey(r *http.Request, header string) string {
	if header != "" {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			return v
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// RateLimit returns a middleware enforcing the sliding-window limit on every
// non-exempt route. Denied requests receive 429 with the configured limit
// and period; admitted ones carry X-RateLimit-Limit and
// X-RateLimit-Remaining so clients can back off before hitting the wall.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			for _, prefix := range bypassPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			key := clientKey(r, cfg.ClientIDHeader)
			if key == "" {
				// A request we cannot attribute must not slip past the
				// limiter unaccounted.
				cfg.Logger.Error("cannot key rate limit: no client header and no peer address")
				writeError(w, http.StatusInternalServerError, "client identification unavailable")
				return
			}

			decision, err := cfg.Store.Admit(r.Context(), key, time.Now())
			if err != nil {
				cfg.Logger.Warn("rate limit store error", zap.Error(err))
			}

			if !decision.Allowed {
				cfg.Logger.Info("request throttled", zap.String("client", key))
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Period.Seconds())))
				writeError(w, http.StatusTooManyRequests, fmt.Sprintf(
					"Rate limit exceeded. Max %d requests per %d seconds.",
					cfg.Limit, int(cfg.Period.Seconds()),
				))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps each client's window in a Redis sorted set scored by
// request time, so several API instances share one rolling window. Scripted
// execution keeps the purge-count-append sequence atomic per key on the
// Redis side.
//
// On Redis failure the store fails open: the request is admitted and the
// error logged, so a limiter outage does not take the API down with it.
type RedisStore struct {
	client *redis.Client
	log    *zap.Logger

	limit  int
	period time.Duration
}

// admitScript purges entries older than the period, counts the survivors
// and appends the new request only if the window has room. Returns the
// count before the append.
var admitScript = redis.NewScript(`
local cutoff = tonumber(ARGV[1]) - tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', cutoff)
local total = redis.call('ZCARD', KEYS[1])
if total < tonumber(ARGV[3]) then
  redis.call('ZADD', KEYS[1], ARGV[1], ARGV[4])
  redis.call('PEXPIRE', KEYS[1], ARGV[5])
end
return total
`)

// NewRedisStore returns a Redis-backed store admitting up to limit requests
// per key per period.
func NewRedisStore(client *redis.Client, limit int, period time.Duration, log *zap.Logger) *RedisStore {
	return &RedisStore{client: client, log: log, limit: limit, period: period}
}

// Admit implements Store.
func (s *RedisStore) Admit(ctx context.Context, key string, now time.Time) (Decision, error) {
	nowMicro := now.UnixMicro()
	// Unique member per request: two requests in the same microsecond must
	// occupy two slots, not overwrite one.
	member := strconv.FormatInt(nowMicro, 10) + "-" + uuid.NewString()

	total, err := admitScript.Run(ctx, s.client,
		[]string{"ratelimit:" + key},
		nowMicro,
		s.period.Microseconds(),
		s.limit,
		member,
		s.period.Milliseconds(),
	).Int()
	if err != nil {
		s.log.Error("rate limit store unavailable, admitting request",
			zap.String("key", key), zap.Error(err))
		return Decision{Allowed: true, Limit: s.limit, Remaining: s.limit - 1}, err
	}

	if total >= s.limit {
		return Decision{Allowed: false, Limit: s.limit, Remaining: 0}, nil
	}
	return Decision{Allowed: true, Limit: s.limit, Remaining: s.limit - total - 1}, nil
}

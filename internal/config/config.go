// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables and an
// optional .env file.
package config

import (
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string

	// BotToken is the Telegram bot token shared with the WebApp; it is the
	// secret the initData signature is verified against. Never logged.
	BotToken string

	// RateLimitRequests is the maximum number of requests a single client
	// may make within RateLimitPeriod seconds.
	RateLimitRequests int

	// RateLimitPeriod is the sliding-window length in seconds.
	RateLimitPeriod int

	// AuthMaxAge is the maximum accepted age of a credential's auth_date,
	// in seconds.
	AuthMaxAge int64

	// ClientIDHeader names the trusted header carrying the client
	// identifier used for rate-limit partitioning. Takes priority over the
	// peer address when present.
	ClientIDHeader string

	// RedisAddr, when non-empty, switches the rate limiter to the
	// Redis-backed store so the window is shared across instances.
	RedisAddr string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Address, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.BotToken, "t", "", "telegram bot token")
	flag.IntVar(&options.RateLimitRequests, "rl-requests", 10, "max requests per client per period")
	flag.IntVar(&options.RateLimitPeriod, "rl-period", 60, "rate limit window in seconds")
	flag.Int64Var(&options.AuthMaxAge, "auth-max-age", 86400, "max initData age in seconds")
	flag.StringVar(&options.ClientIDHeader, "client-id-header", "X-User-ID", "trusted client identifier header")
	flag.StringVar(&options.RedisAddr, "redis", "", "redis address for the shared rate-limit store")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. A .env file in the working directory is loaded first
// when present, so its values are visible as environment variables. It
// returns a pointer to the Options struct containing the parsed
// configuration values.
func Parse() *Options {
	flag.Parse()

	// Missing .env is not an error: production deployments pass real
	// environment variables instead.
	_ = godotenv.Load()

	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		options.Address = addr
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		options.BotToken = token
	}
	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			options.RateLimitRequests = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_PERIOD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			options.RateLimitPeriod = n
		}
	}
	if v := os.Getenv("AUTH_MAX_AGE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			options.AuthMaxAge = n
		}
	}
	if h := os.Getenv("CLIENT_ID_HEADER"); h != "" {
		options.ClientIDHeader = h
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		options.RedisAddr = addr
	}

	return options
}

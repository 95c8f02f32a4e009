package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/heartline/internal/auth"
)

// Counter is the shared store behind RateLimit. Hit counts one request
// against key and returns the total so far. The first hit of a window must
// start the window's expiry in the same step as the count.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter implements Counter with SET NX EX and INCR in one MULTI, so
// every server instance shares one budget per caller and no key can be left
// counting without a TTL.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimit allows limit requests per window for each caller on each path.
//
// Callers are keyed by principal id when RequireAuth ran first, and by client
// IP otherwise. The window is fixed: it starts at the first request and the
// counter resets when the key expires.
func RateLimit(counter Counter, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("rate_limit:%s:%s", r.URL.Path, caller(r))

			count, err := counter.Hit(r.Context(), key, window)
			if err != nil {
				logger.Error("rate limit check failed", slog.String("key", key), slog.String("error", err.Error()))
				writeLimitError(w, http.StatusInternalServerError, "internal_error", "rate limit check failed")
				return
			}

			if count > int64(limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeLimitError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, please slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func caller(r *http.Request) string {
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		return string(p.Role) + ":" + p.ID
	}
	// chimiddleware.RealIP has already replaced RemoteAddr with the proxy
	// header value, which carries no port.
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeLimitError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}

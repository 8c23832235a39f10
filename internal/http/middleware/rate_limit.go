package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roomly/bookings/internal/http/response"
	"github.com/roomly/bookings/pkg/logger"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int                            // Max requests per window
	Window   time.Duration                  // Time window duration
	KeyFunc  func(r *http.Request) []string // Function to generate rate limit keys
}

// RateLimiter throttles requests with a Redis fixed window per key.
type RateLimiter struct {
	client *redis.Client
	config RateLimitConfig
}

func NewRateLimiter(client *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, key := range rl.config.KeyFunc(r) {
				allowed, err := rl.allow(r.Context(), key)
				if err != nil {
					// Redis being down should not lock everyone out.
					logger.WarnContext(r.Context(), "Rate limiter unavailable", "error", err)
					break
				}
				if !allowed {
					response.RateLimit(w, "Too many requests. Try again later.")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Hash the key for privacy
	hashed := fmt.Sprintf("ratelimit:%x", sha256.Sum256([]byte(key)))

	pipe := rl.client.TxPipeline()
	count := pipe.Incr(ctx, hashed)
	pipe.Expire(ctx, hashed, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() <= int64(rl.config.Requests), nil
}

// LoginKeys rate-limits by client IP and, when the body parses, by the
// attempted email, so one address cannot be brute-forced from many IPs.
func LoginKeys(r *http.Request) []string {
	keys := []string{"ip:" + clientIP(r)}

	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err == nil {
			r.Body = io.NopCloser(bytes.NewReader(body))
			var payload struct {
				Email string `json:"email"`
			}
			if json.Unmarshal(body, &payload) == nil && payload.Email != "" {
				keys = append(keys, "email:"+strings.ToLower(strings.TrimSpace(payload.Email)))
			}
		}
	}

	return keys
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

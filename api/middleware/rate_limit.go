package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/responses"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	pkgredis "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/redis"
)

// CallbackRateLimit applies a fixed window per channel and client IP. Redis
// failures let the request through; the reconciler's own guards still hold.
func CallbackRateLimit(limiter pkgredis.RateLimiter, limit int, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 || window <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			scope := "callback:" + chi.URLParam(r, "channel") + ":" + clientIP(r)
			allowed, count, err := limiter.FixedWindowAllow(r.Context(), scope, int64(limit), window)
			if err != nil {
				logError(r.Context(), logg, "callback.rate_limit_unavailable", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many callbacks").
					WithDetails(map[string]any{"count": count, "limit": limit}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

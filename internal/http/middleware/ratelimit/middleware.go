package ratelimit

import (
	"io"
	"net"
	"net/http"
	"net/netip"

	"github.com/prometheus/client_golang/prometheus"

	"moto-dispatch/internal/logx"
)

const deniedBody = `{"error":"too many requests","code":"rate_limited"}`

// KeyFunc extracts the bucket key of a request.
type KeyFunc func(r *http.Request) string

// Middleware отклоняет запросы сверх лимита с ответом 429.
type Middleware struct {
	logger  logx.Logger
	counter prometheus.Counter // rate_limit_exceeded_total
	limiter Limiter
	key     KeyFunc
	scope   string
}

// New returns a middleware keyed by client IP under the "api" scope.
func New(logger logx.Logger, counter prometheus.Counter, limiter Limiter) *Middleware {
	if limiter == nil {
		limiter = NopLimiter{}
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Middleware{
		logger:  logger,
		counter: counter,
		limiter: limiter,
		key:     ClientIP,
		scope:   "api",
	}
}

// Scoped returns a copy of m whose buckets and log lines carry scope.
// Scopes never share buckets even over one Limiter.
func (m *Middleware) Scoped(scope string) *Middleware {
	cp := *m
	cp.scope = scope
	return &cp
}

// WithKey returns a copy of m keyed by fn.
func (m *Middleware) WithKey(fn KeyFunc) *Middleware {
	cp := *m
	if fn != nil {
		cp.key = fn
	}
	return &cp
}

// Handler returns chi-style middleware.
func (m *Middleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := m.key(r)
			if m.limiter.Allow(m.scope + "|" + key) {
				next.ServeHTTP(w, r)
				return
			}

			if m.counter != nil {
				m.counter.Inc()
			}
			m.logger.Warn("rate limit exceeded",
				logx.String("scope", m.scope),
				logx.String("key", key),
				logx.String("method", r.Method),
				logx.String("path", r.URL.Path),
			)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := io.WriteString(w, deniedBody); err != nil {
				// клиент уже ушёл
				m.logger.Debug("rate limit response write failed", logx.String("key", key), logx.Err(err))
			}
		})
	}
}

// ClientIP keys by the remote address host. IPv4-mapped IPv6 addresses collapse
// to their IPv4 form so one rider cannot hold two buckets.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap().WithZone("").String()
	}
	return host
}

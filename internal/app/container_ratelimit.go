package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"moto-dispatch/internal/config"
	"moto-dispatch/internal/http/middleware/ratelimit"
	"moto-dispatch/internal/logx"
)

type rateLimitersOut struct {
	dig.Out

	API  ratelimit.Limiter `name:"api_limiter"`
	Auth ratelimit.Limiter `name:"auth_limiter"`
}

// newRateLimiters builds one per-IP limiter for the API and a stricter per-account one for /auth.
func newRateLimiters(cfg *config.Config, clock ratelimit.Clock) rateLimitersOut {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return rateLimitersOut{API: ratelimit.NopLimiter{}, Auth: ratelimit.NopLimiter{}}
	}
	base := ratelimit.Config{
		Rate:       rl.Rate,
		Burst:      rl.Burst,
		TTL:        rl.TTL,
		MaxBuckets: rl.MaxBuckets,
	}
	auth := base
	auth.Rate, auth.Burst = rl.AuthRate, rl.AuthBurst
	return rateLimitersOut{
		API:  ratelimit.NewKeyLimiter(clock, base),
		Auth: ratelimit.NewKeyLimiter(clock, auth),
	}
}

func newRateLimitClock() ratelimit.Clock {
	return ratelimit.RealClock{}
}

type rateLimitIn struct {
	dig.In
	Logger      logx.Logger
	Counter     prometheus.Counter `name:"rate_limit_exceeded_total"`
	APILimiter  ratelimit.Limiter  `name:"api_limiter"`
	AuthLimiter ratelimit.Limiter  `name:"auth_limiter"`
}

type rateLimitMiddlewares struct {
	API  *ratelimit.Middleware
	Auth *ratelimit.Middleware
}

func newRateLimitMiddleware(in rateLimitIn) rateLimitMiddlewares {
	return rateLimitMiddlewares{
		API:  ratelimit.New(in.Logger, in.Counter, in.APILimiter),
		Auth: ratelimit.New(in.Logger, in.Counter, in.AuthLimiter).Scoped("auth").WithKey(ratelimit.AuthSubject),
	}
}

package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"moto-dispatch/internal/metrics"
)

type metricsOut struct {
	dig.Out

	RateLimitExceededTotal prometheus.Counter `name:"rate_limit_exceeded_total"`
	PublishRetriesTotal    prometheus.Counter `name:"publish_retries_total"`
	Dispatch               *metrics.Dispatch
}

// provideMetrics registers the service collectors on the default registerer.
// A collector registered earlier (tests, a second container) is reused.
func provideMetrics() (metricsOut, error) {
	reg := prometheus.DefaultRegisterer

	rl, err := registerCounter(reg, "rate_limit_exceeded_total", metrics.NewRateLimitExceededTotal())
	if err != nil {
		return metricsOut{}, err
	}
	pr, err := registerCounter(reg, "publish_retries_total", metrics.NewPublishRetriesTotal())
	if err != nil {
		return metricsOut{}, err
	}

	d := metrics.NewDispatch()
	if err := metrics.Register(reg, d.Collectors()...); err != nil {
		return metricsOut{}, fmt.Errorf("register dispatch metrics: %w", err)
	}
	return metricsOut{RateLimitExceededTotal: rl, PublishRetriesTotal: pr, Dispatch: d}, nil
}

func registerCounter(reg prometheus.Registerer, name string, c prometheus.Counter) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}

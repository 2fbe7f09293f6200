// Package metrics declares the Prometheus collectors of the dispatch service.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"moto-dispatch/internal/domain"
)

const namespace = "dispatch"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewPublishRetriesTotal returns a Prometheus counter for the number of retries of delivery event publication
func NewPublishRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_publish_retries_total",
		Help:      "Total number of retry attempts performed when publishing delivery events",
	})
}

// Dispatch counts state machine activity. It satisfies delivery.Metrics.
type Dispatch struct {
	transitions *prometheus.CounterVec
	assignments *prometheus.CounterVec
}

// NewDispatch creates the collectors; register them with Collectors.
func NewDispatch() *Dispatch {
	return &Dispatch{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_transitions_total",
			Help:      "Committed delivery status transitions",
		}, []string{"from", "to"}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_attempts_total",
			Help:      "Courier assignment attempts by outcome",
		}, []string{"outcome"}),
	}
}

// TransitionApplied increments the (from, to) counter.
func (d *Dispatch) TransitionApplied(from, to domain.Status) {
	d.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// AssignmentAttempt increments the outcome counter.
func (d *Dispatch) AssignmentAttempt(outcome string) {
	d.assignments.WithLabelValues(strings.ToLower(outcome)).Inc()
}

// Collectors returns every collector owned by d.
func (d *Dispatch) Collectors() []prometheus.Collector {
	return []prometheus.Collector{d.transitions, d.assignments}
}

// Register registers cs, tolerating collectors that are already registered.
func Register(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

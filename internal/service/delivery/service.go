package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
)

// Assignment outcomes reported to Metrics.
const (
	OutcomeAssigned     = "assigned"
	OutcomeCourierBusy  = "courier_busy"
	OutcomeInvalidState = "invalid_state"
	OutcomeRejected     = "rejected"
	OutcomeFailed       = "failed"
)

// Service - delivery lifecycle: creation, status transitions and courier assignment.
type Service struct {
	store            Store
	pricer           Pricer
	events           EventSink
	metrics          Metrics
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
	newID            func() string
}

// Option configures a Service.
type Option func(*Service)

// WithEventSink sets where committed events go.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.events = sink
		}
	}
}

// WithMetrics sets the lifecycle counters.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewDeliveryService - creates a new delivery Service.
func NewDeliveryService(store Store, pricer Pricer, timeout time.Duration, logger logx.Logger, opts ...Option) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	s := &Service{
		store:            store,
		pricer:           pricer,
		events:           discardSink{},
		metrics:          nopMetrics{},
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// emit hands the event to the sink. The mutation is already committed, so a
// failure is only logged.
func (s *Service) emit(ctx context.Context, typ domain.EventType, d *domain.Delivery, from *domain.Status, actor domain.Actor) {
	ev := domain.DeliveryEvent{
		EventID:    s.newID(),
		DeliveryID: d.ID,
		Type:       typ,
		From:       from,
		Status:     d.Status,
		ClientID:   d.ClientID,
		CourierID:  d.CourierID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		OccurredAt: d.UpdatedAt,
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.Warn("delivery event not published",
			logx.String("event_id", ev.EventID),
			logx.Int64("delivery_id", ev.DeliveryID),
			logx.String("type", string(ev.Type)),
			logx.Err(err),
		)
	}
}

func assignmentOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeAssigned
	case errors.Is(err, apperr.ErrCourierBusy):
		return OutcomeCourierBusy
	case errors.Is(err, apperr.ErrInvalidState):
		return OutcomeInvalidState
	case errors.Is(err, apperr.ErrForbidden), errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrValidation):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}

type discardSink struct{}

func (discardSink) Publish(context.Context, domain.DeliveryEvent) error { return nil }

type nopMetrics struct{}

func (nopMetrics) TransitionApplied(domain.Status, domain.Status) {}
func (nopMetrics) AssignmentAttempt(string)                       {}

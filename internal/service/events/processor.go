// Package events reacts to committed delivery events, either in-process or
// from the worker consuming the Kafka topic.
package events

import (
	"context"

	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
)

// Processor processes delivery events
type Processor struct {
	stats   StatsInvalidator
	logger  logx.Logger
	factory *actionFactory
}

// NewProcessor creates a new events.Processor. stats may be nil.
func NewProcessor(stats StatsInvalidator, logger logx.Logger) *Processor {
	if logger == nil {
		logger = logx.Nop()
	}
	p := &Processor{stats: stats, logger: logger}
	p.factory = newActionFactory(p.onCreated, p.onAssigned, p.onStatusChanged)
	return p
}

// Handle processes a single event. Unknown types are ignored.
func (p *Processor) Handle(ctx context.Context, ev domain.DeliveryEvent) error {
	fn, ok := p.factory.get(ev.Type)
	if !ok {
		p.logger.Debug("delivery event ignored", logx.String("type", string(ev.Type)))
		return nil
	}
	return fn(ctx, ev)
}

// Publish lets the processor stand in for the broker when Kafka is not configured.
func (p *Processor) Publish(ctx context.Context, ev domain.DeliveryEvent) error {
	return p.Handle(ctx, ev)
}

func (p *Processor) onCreated(ctx context.Context, ev domain.DeliveryEvent) error {
	p.audit(ev)
	return p.invalidate(ctx)
}

func (p *Processor) onAssigned(ctx context.Context, ev domain.DeliveryEvent) error {
	p.audit(ev, logx.Bool("courier_busy", true))
	return p.invalidate(ctx)
}

func (p *Processor) onStatusChanged(ctx context.Context, ev domain.DeliveryEvent) error {
	var extra []logx.Field
	// курьер освобождается на терминальном статусе
	if ev.Status.IsTerminal() && ev.CourierID != nil {
		extra = append(extra, logx.Bool("courier_released", true))
	}
	p.audit(ev, extra...)
	return p.invalidate(ctx)
}

func (p *Processor) invalidate(ctx context.Context) error {
	if p.stats == nil {
		return nil
	}
	return p.stats.Invalidate(ctx)
}

func (p *Processor) audit(ev domain.DeliveryEvent, extra ...logx.Field) {
	fields := []logx.Field{
		logx.String("event", "delivery_"+string(ev.Type)),
		logx.String("event_id", ev.EventID),
		logx.Int64("delivery_id", ev.DeliveryID),
		logx.String("status", string(ev.Status)),
		logx.Int64("actor_id", ev.ActorID),
		logx.String("actor_role", string(ev.ActorRole)),
		logx.Time("occurred_at", ev.OccurredAt),
	}
	if ev.From != nil {
		fields = append(fields, logx.String("from", string(*ev.From)))
	}
	if ev.CourierID != nil {
		fields = append(fields, logx.Int64("courier_id", *ev.CourierID))
	}
	p.logger.Info("delivery audit", append(fields, extra...)...)
}

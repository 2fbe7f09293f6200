package events

import (
	"context"

	"moto-dispatch/internal/domain"
)

type actionFunc func(context.Context, domain.DeliveryEvent) error

type actionFactory struct {
	byType map[domain.EventType]actionFunc
}

func newActionFactory(onCreated, onAssigned, onStatusChanged actionFunc) *actionFactory {
	return &actionFactory{
		byType: map[domain.EventType]actionFunc{
			domain.EventCreated:       onCreated,
			domain.EventAssigned:      onAssigned,
			domain.EventStatusChanged: onStatusChanged,
		},
	}
}

func (f *actionFactory) get(t domain.EventType) (actionFunc, bool) {
	fn, ok := f.byType[t]
	return fn, ok
}

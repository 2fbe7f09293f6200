package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
	"moto-dispatch/internal/service/events"
	testlog "moto-dispatch/internal/testutil"
)

func event(typ domain.EventType, status domain.Status) domain.DeliveryEvent {
	courier := int64(42)
	return domain.DeliveryEvent{
		EventID:    "evt-1",
		DeliveryID: 7,
		Type:       typ,
		Status:     status,
		ClientID:   1,
		CourierID:  &courier,
		ActorID:    42,
		ActorRole:  domain.RoleCourier,
		OccurredAt: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestProcessor_Handle_InvalidatesStats(t *testing.T) {
	t.Parallel()

	for _, typ := range []domain.EventType{domain.EventCreated, domain.EventAssigned, domain.EventStatusChanged} {
		ctrl := gomock.NewController(t)
		stats := NewMockStatsInvalidator(ctrl)
		stats.EXPECT().Invalidate(gomock.Any()).Return(nil)

		p := events.NewProcessor(stats, logx.Nop())
		require.NoError(t, p.Handle(context.Background(), event(typ, domain.StatusPending)), typ)
		ctrl.Finish()
	}
}

func TestProcessor_Handle_UnknownTypeIgnored(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	stats := NewMockStatsInvalidator(ctrl)

	p := events.NewProcessor(stats, nil)
	require.NoError(t, p.Handle(context.Background(), event("archived", domain.StatusDelivered)))
}

func TestProcessor_Handle_InvalidateErrorPropagates(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	boom := errors.New("redis down")
	stats := NewMockStatsInvalidator(ctrl)
	stats.EXPECT().Invalidate(gomock.Any()).Return(boom)

	p := events.NewProcessor(stats, nil)
	require.ErrorIs(t, p.Publish(context.Background(), event(domain.EventCreated, domain.StatusPending)), boom)
}

func TestProcessor_AuditMarksCourierRelease(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	p := events.NewProcessor(nil, rec.Logger())

	from := domain.StatusEnRouteDropoff
	ev := event(domain.EventStatusChanged, domain.StatusDelivered)
	ev.From = &from
	require.NoError(t, p.Handle(context.Background(), ev))

	entries := rec.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "delivery audit", entries[0].Msg)

	keys := map[string]any{}
	for _, f := range entries[0].Fields {
		keys[f.Key] = f.Value
	}
	require.Equal(t, "delivery_status_changed", keys["event"])
	require.Equal(t, "en_route_dropoff", keys["from"])
	require.Equal(t, true, keys["courier_released"])
}

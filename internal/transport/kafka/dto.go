package kafka

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"moto-dispatch/internal/domain"
)

// EventDTO is the wire form of domain.DeliveryEvent
type EventDTO struct {
	EventID    string    `json:"event_id"`
	DeliveryID int64     `json:"delivery_id"`
	Type       string    `json:"type"`
	From       *string   `json:"from,omitempty"`
	Status     string    `json:"status"`
	ClientID   int64     `json:"client_id"`
	CourierID  *int64    `json:"courier_id,omitempty"`
	ActorID    int64     `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FromDomain converts domain.DeliveryEvent to EventDTO
func FromDomain(ev domain.DeliveryEvent) EventDTO {
	dto := EventDTO{
		EventID:    ev.EventID,
		DeliveryID: ev.DeliveryID,
		Type:       string(ev.Type),
		Status:     string(ev.Status),
		ClientID:   ev.ClientID,
		CourierID:  ev.CourierID,
		ActorID:    ev.ActorID,
		ActorRole:  string(ev.ActorRole),
		OccurredAt: ev.OccurredAt.UTC(),
	}
	if ev.From != nil {
		from := string(*ev.From)
		dto.From = &from
	}
	return dto
}

// ToDomain converts EventDTO to domain.DeliveryEvent. Status names go through
// the same alias table as the HTTP surface.
func ToDomain(dto EventDTO) (domain.DeliveryEvent, error) {
	if dto.DeliveryID <= 0 {
		return domain.DeliveryEvent{}, errors.New("empty delivery_id")
	}
	status, ok := domain.ParseStatus(dto.Status)
	if !ok {
		return domain.DeliveryEvent{}, fmt.Errorf("unknown status %q", dto.Status)
	}
	ev := domain.DeliveryEvent{
		EventID:    strings.TrimSpace(dto.EventID),
		DeliveryID: dto.DeliveryID,
		Type:       domain.EventType(strings.ToLower(strings.TrimSpace(dto.Type))),
		Status:     status,
		ClientID:   dto.ClientID,
		CourierID:  dto.CourierID,
		ActorID:    dto.ActorID,
		ActorRole:  domain.Role(strings.TrimSpace(dto.ActorRole)),
		OccurredAt: dto.OccurredAt,
	}
	if dto.From != nil {
		from, ok := domain.ParseStatus(*dto.From)
		if !ok {
			return domain.DeliveryEvent{}, fmt.Errorf("unknown from status %q", *dto.From)
		}
		ev.From = &from
	}
	return ev, nil
}

package handlers

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/service/delivery"
	"moto-dispatch/internal/service/users"
)

func money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func (r registerRequest) toInput() users.RegisterInput {
	return users.RegisterInput{
		Name:     r.Nom,
		Email:    r.Email,
		Phone:    r.Telephone,
		Password: r.MotDePasse,
		Address:  r.Adresse,
		Role:     r.Role,
	}
}

func (r createDeliveryRequest) toInput() delivery.CreateInput {
	return delivery.CreateInput{
		PackageType:    r.TypeColis,
		Description:    r.Description,
		PickupAddress:  r.AdressePickup,
		DropoffAddress: r.AdresseDropoff,
	}
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Nom:       u.Name,
		Email:     u.Email,
		Telephone: u.Phone,
		Adresse:   u.Address,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toUserSummaries(list []domain.UserSummary) []userSummaryResponse {
	out := make([]userSummaryResponse, 0, len(list))
	for _, s := range list {
		resp := userSummaryResponse{
			userResponse:    toUserResponse(s.User),
			TotalDeliveries: s.TotalDeliveries,
			CurrentDelivery: s.ActiveDeliveryID,
		}
		if s.Role == domain.RoleCourier {
			resp.Status = s.Availability()
		}
		out = append(out, resp)
	}
	return out
}

func toZoneResponses(list []domain.Zone) []zoneResponse {
	out := make([]zoneResponse, 0, len(list))
	for _, z := range list {
		out = append(out, zoneResponse{
			ID:        z.ID,
			NomZone:   z.Name,
			Area:      z.AreaDescriptor,
			Prix:      money(z.Price),
			IsActive:  z.IsActive,
			CreatedAt: z.CreatedAt,
			UpdatedAt: z.UpdatedAt,
		})
	}
	return out
}

func toDeliveryResponse(d domain.Delivery) deliveryResponse {
	return deliveryResponse{
		ID:             d.ID,
		TypeColis:      string(d.PackageType),
		Description:    d.Description,
		AdressePickup:  d.PickupAddress,
		AdresseDropoff: d.DropoffAddress,
		Statut:         string(d.Status),
		Status:         string(d.Status),
		Prix:           money(d.Price),
		ZoneID:         d.ZoneID,
		PrixParDefaut:  d.DefaultPriced,
		ClientID:       d.ClientID,
		LivreurID:      d.CourierID,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func toDeliveryResponses(list []domain.Delivery) []deliveryResponse {
	out := make([]deliveryResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDeliveryResponse(d))
	}
	return out
}

func toTimeline(changes []domain.StatusChange) []timelineEntry {
	out := make([]timelineEntry, 0, len(changes))
	for _, c := range changes {
		e := timelineEntry{
			DeliveryID: c.DeliveryID,
			To:         string(c.To),
			ActorID:    c.ActorID,
			ActorRole:  string(c.ActorRole),
			At:         c.At,
		}
		if c.From != nil {
			from := string(*c.From)
			e.From = &from
		}
		out = append(out, e)
	}
	return out
}

func toStatsResponse(s domain.Stats) statsResponse {
	by := make(map[string]int, len(s.ByStatus))
	for _, st := range domain.Statuses() {
		by[string(st)] = s.ByStatus[st]
	}
	return statsResponse{
		Deliveries:        s.Deliveries,
		ByStatus:          by,
		Active:            s.Active,
		Couriers:          s.Couriers,
		CouriersBusy:      s.CouriersBusy,
		CouriersAvailable: s.CouriersAvailable,
		Clients:           s.Clients,
		Revenue:           money(s.Revenue),
		GeneratedAt:       s.GeneratedAt,
	}
}

package handlers

import (
	"encoding/json"
	"time"
)

type loginRequest struct {
	Telephone  string `json:"telephone" validate:"required"`
	MotDePasse string `json:"mot_de_passe" validate:"required"`
}

type registerRequest struct {
	Nom        string `json:"nom" validate:"required,max=120"`
	Email      string `json:"email" validate:"omitempty,email"`
	Telephone  string `json:"telephone" validate:"required"`
	MotDePasse string `json:"mot_de_passe" validate:"required"`
	Adresse    string `json:"adresse" validate:"max=255"`
	Role       string `json:"role,omitempty"`
}

type resetPasswordRequest struct {
	Token      string `json:"token" validate:"required"`
	MotDePasse string `json:"mot_de_passe" validate:"required"`
}

type createDeliveryRequest struct {
	TypeColis      string `json:"type_colis" validate:"required"`
	Description    string `json:"description,omitempty" validate:"max=500"`
	AdressePickup  string `json:"adresse_pickup" validate:"required"`
	AdresseDropoff string `json:"adresse_dropoff" validate:"required"`
}

type assignRequest struct {
	LivreurID int64 `json:"livreur_id" validate:"gt=0"`
}

// statusRequest accepts the legacy "status" key next to "statut".
type statusRequest struct {
	Statut string `json:"statut" validate:"required_without=Status"`
	Status string `json:"status,omitempty"`
}

func (r statusRequest) value() string {
	if r.Statut != "" {
		return r.Statut
	}
	return r.Status
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Nom       string    `json:"nom"`
	Email     string    `json:"email"`
	Telephone string    `json:"telephone"`
	Adresse   string    `json:"adresse"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type userSummaryResponse struct {
	userResponse
	TotalDeliveries int    `json:"total_deliveries"`
	CurrentDelivery *int64 `json:"current_delivery"`
	Status          string `json:"status,omitempty"`
}

type zoneResponse struct {
	ID        int64       `json:"id"`
	NomZone   string      `json:"nom_zone"`
	Area      string      `json:"area"`
	Prix      json.Number `json:"prix"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type deliveryResponse struct {
	ID             int64       `json:"id"`
	TypeColis      string      `json:"type_colis"`
	Description    string      `json:"description"`
	AdressePickup  string      `json:"adresse_pickup"`
	AdresseDropoff string      `json:"adresse_dropoff"`
	Statut         string      `json:"statut"`
	Status         string      `json:"status"`
	Prix           json.Number `json:"prix"`
	ZoneID         *int64      `json:"zone_id"`
	PrixParDefaut  bool        `json:"prix_par_defaut"`
	ClientID       int64       `json:"client_id"`
	LivreurID      *int64      `json:"livreur_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type deliveryStatusResponse struct {
	DeliveryID int64     `json:"delivery_id"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type timelineEntry struct {
	DeliveryID int64     `json:"delivery_id"`
	From       *string   `json:"from"`
	To         string    `json:"to"`
	ActorID    int64     `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	At         time.Time `json:"at"`
}

type statsResponse struct {
	Deliveries        int            `json:"deliveries"`
	ByStatus          map[string]int `json:"by_status"`
	Active            int            `json:"active"`
	Couriers          int            `json:"couriers"`
	CouriersBusy      int            `json:"couriers_busy"`
	CouriersAvailable int            `json:"couriers_available"`
	Clients           int            `json:"clients"`
	Revenue           json.Number    `json:"revenue"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

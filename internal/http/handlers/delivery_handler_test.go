package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/service/delivery"
)

var (
	clientActor  = domain.Actor{ID: 3, Role: domain.RoleClient}
	managerActor = domain.Actor{ID: 1, Role: domain.RoleManager}
	courierActor = domain.Actor{ID: 7, Role: domain.RoleCourier}
)

func sampleDelivery(status domain.Status) *domain.Delivery {
	zoneID := int64(2)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Delivery{
		ID:             11,
		ClientID:       clientActor.ID,
		PackageType:    domain.PackageType("document"),
		PickupAddress:  "Cocody Angré",
		DropoffAddress: "Plateau",
		Status:         status,
		Price:          decimal.RequireFromString("2000.50"),
		ZoneID:         &zoneID,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func TestDeliveryHandler_Create_OK(t *testing.T) {
	t.Parallel()

	uc := &stubDeliveryUsecase{
		createFn: func(_ context.Context, actor domain.Actor, in delivery.CreateInput) (*domain.Delivery, error) {
			require.Equal(t, clientActor, actor)
			require.Equal(t, "document", in.PackageType)
			require.Equal(t, "Cocody Angré", in.PickupAddress)
			require.Equal(t, "Plateau", in.DropoffAddress)
			return sampleDelivery(domain.StatusPending), nil
		},
	}
	h := NewDeliveryHandler(nil, uc)

	body := `{"type_colis":"document","adresse_pickup":"Cocody Angré","adresse_dropoff":"Plateau"}`
	rr := httptest.NewRecorder()
	h.Create(rr, newRequest(http.MethodPost, "/deliveries/create", body, &clientActor))

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp deliveryResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(11), resp.ID)
	assert.Equal(t, "pending", resp.Statut)
	assert.Equal(t, resp.Statut, resp.Status)
	assert.Equal(t, json.Number("2000.5"), resp.Prix)
	require.NotNil(t, resp.ZoneID)
	assert.Equal(t, int64(2), *resp.ZoneID)
	assert.Nil(t, resp.LivreurID)
	assert.False(t, resp.PrixParDefaut)
}

func TestDeliveryHandler_Create_BadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "invalid json", body: `{"type_colis":`, wantMsg: "invalid json"},
		{name: "unknown field", body: `{"type_colis":"document","adresse_pickup":"a","adresse_dropoff":"b","x":1}`, wantMsg: "invalid json"},
		{name: "trailing data", body: `{"type_colis":"document","adresse_pickup":"a","adresse_dropoff":"b"} {}`, wantMsg: "invalid json: trailing data"},
		{name: "missing pickup", body: `{"type_colis":"document","adresse_dropoff":"b"}`, wantMsg: "adresse_pickup: is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewDeliveryHandler(nil, &stubDeliveryUsecase{})
			rr := httptest.NewRecorder()
			h.Create(rr, newRequest(http.MethodPost, "/deliveries/create", tt.body, &clientActor))

			require.Equal(t, http.StatusBadRequest, rr.Code)
			body := decodeError(t, rr)
			assert.Equal(t, codeValidation, body.Code)
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}

func TestDeliveryHandler_RequiresActor(t *testing.T) {
	t.Parallel()

	h := NewDeliveryHandler(nil, &stubDeliveryUsecase{})
	rr := httptest.NewRecorder()
	h.Mine(rr, newRequest(http.MethodGet, "/deliveries/my-deliveries", "", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDeliveryHandler_Get_BadID(t *testing.T) {
	t.Parallel()

	h := NewDeliveryHandler(nil, &stubDeliveryUsecase{})
	for _, id := range []string{"abc", "0", "-4"} {
		rr := httptest.NewRecorder()
		h.Get(rr, newRequest(http.MethodGet, "/deliveries/"+id, "", &clientActor, "id", id))
		require.Equal(t, http.StatusBadRequest, rr.Code, id)
	}
}

func TestDeliveryHandler_Get_MapsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden},
		{"not found", apperr.ErrNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := &stubDeliveryUsecase{
				getFn: func(context.Context, domain.Actor, int64) (*domain.Delivery, error) { return nil, tt.err },
			}
			rr := httptest.NewRecorder()
			NewDeliveryHandler(nil, uc).Get(rr, newRequest(http.MethodGet, "/deliveries/11", "", &clientActor, "id", "11"))
			require.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestDeliveryHandler_Status(t *testing.T) {
	t.Parallel()

	uc := &stubDeliveryUsecase{
		getFn: func(_ context.Context, _ domain.Actor, id int64) (*domain.Delivery, error) {
			require.Equal(t, int64(11), id)
			return sampleDelivery(domain.StatusPickedUp), nil
		},
	}
	rr := httptest.NewRecorder()
	NewDeliveryHandler(nil, uc).Status(rr, newRequest(http.MethodGet, "/deliveries/11/status", "", &clientActor, "id", "11"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp deliveryStatusResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(11), resp.DeliveryID)
	assert.Equal(t, "picked_up", resp.Status)
}

func TestDeliveryHandler_Timeline(t *testing.T) {
	t.Parallel()

	pending := domain.StatusPending
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	uc := &stubDeliveryUsecase{
		timelineFn: func(context.Context, domain.Actor, int64) ([]domain.StatusChange, error) {
			return []domain.StatusChange{
				{DeliveryID: 11, To: domain.StatusPending, ActorID: 3, ActorRole: domain.RoleClient, At: at},
				{DeliveryID: 11, From: &pending, To: domain.StatusAssigned, ActorID: 1, ActorRole: domain.RoleManager, At: at.Add(time.Minute)},
			}, nil
		},
	}
	rr := httptest.NewRecorder()
	NewDeliveryHandler(nil, uc).Timeline(rr, newRequest(http.MethodGet, "/deliveries/11/timeline", "", &managerActor, "id", "11"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp []timelineEntry
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Nil(t, resp[0].From)
	require.NotNil(t, resp[1].From)
	assert.Equal(t, "pending", *resp[1].From)
	assert.Equal(t, "assigned", resp[1].To)
	assert.Equal(t, "manager", resp[1].ActorRole)
}

func TestDeliveryHandler_Assign(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		uc := &stubDeliveryUsecase{
			assignFn: func(_ context.Context, actor domain.Actor, deliveryID, courierID int64) (*domain.Delivery, error) {
				require.Equal(t, managerActor, actor)
				require.Equal(t, int64(11), deliveryID)
				require.Equal(t, int64(7), courierID)
				d := sampleDelivery(domain.StatusAssigned)
				d.CourierID = &courierID
				return d, nil
			},
		}
		rr := httptest.NewRecorder()
		NewDeliveryHandler(nil, uc).Assign(rr, newRequest(http.MethodPost, "/deliveries/11/assign", `{"livreur_id":7}`, &managerActor, "id", "11"))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp deliveryResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		require.NotNil(t, resp.LivreurID)
		assert.Equal(t, int64(7), *resp.LivreurID)
		assert.Equal(t, "assigned", resp.Status)
	})

	t.Run("missing courier", func(t *testing.T) {
		t.Parallel()

		rr := httptest.NewRecorder()
		NewDeliveryHandler(nil, &stubDeliveryUsecase{}).Assign(rr, newRequest(http.MethodPost, "/deliveries/11/assign", `{}`, &managerActor, "id", "11"))
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "livreur_id: must be greater than 0", decodeError(t, rr).Error)
	})

	t.Run("courier busy", func(t *testing.T) {
		t.Parallel()

		uc := &stubDeliveryUsecase{
			assignFn: func(context.Context, domain.Actor, int64, int64) (*domain.Delivery, error) {
				return nil, apperr.ErrCourierBusy
			},
		}
		rr := httptest.NewRecorder()
		NewDeliveryHandler(nil, uc).Assign(rr, newRequest(http.MethodPost, "/deliveries/11/assign", `{"livreur_id":7}`, &managerActor, "id", "11"))
		require.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, codeCourierBusy, decodeError(t, rr).Code)
	})

	t.Run("not pending", func(t *testing.T) {
		t.Parallel()

		uc := &stubDeliveryUsecase{
			assignFn: func(context.Context, domain.Actor, int64, int64) (*domain.Delivery, error) {
				return nil, apperr.InvalidState("picked_up", "assigned")
			},
		}
		rr := httptest.NewRecorder()
		NewDeliveryHandler(nil, uc).Assign(rr, newRequest(http.MethodPost, "/deliveries/11/assign", `{"livreur_id":7}`, &managerActor, "id", "11"))
		require.Equal(t, http.StatusConflict, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, codeInvalidState, body.Code)
		assert.Equal(t, "picked_up", body.CurrentStatus)
	})
}

func TestDeliveryHandler_UpdateStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "statut field", body: `{"statut":"en_route_pickup"}`, want: "en_route_pickup"},
		{name: "status field", body: `{"status":"picked_up"}`, want: "picked_up"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := &stubDeliveryUsecase{
				updateFn: func(_ context.Context, actor domain.Actor, id int64, raw string) (*domain.Delivery, error) {
					require.Equal(t, courierActor, actor)
					require.Equal(t, tt.want, raw)
					return sampleDelivery(domain.Status(raw)), nil
				},
			}
			rr := httptest.NewRecorder()
			NewDeliveryHandler(nil, uc).UpdateStatus(rr, newRequest(http.MethodPost, "/deliveries/11/status", tt.body, &courierActor, "id", "11"))
			require.Equal(t, http.StatusOK, rr.Code)
		})
	}

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		rr := httptest.NewRecorder()
		NewDeliveryHandler(nil, &stubDeliveryUsecase{}).UpdateStatus(rr, newRequest(http.MethodPost, "/deliveries/11/status", `{}`, &courierActor, "id", "11"))
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("illegal edge", func(t *testing.T) {
		t.Parallel()

		uc := &stubDeliveryUsecase{
			updateFn: func(context.Context, domain.Actor, int64, string) (*domain.Delivery, error) {
				return nil, apperr.InvalidTransition("assigned", "delivered")
			},
		}
		rr := httptest.NewRecorder()
		NewDeliveryHandler(nil, uc).UpdateStatus(rr, newRequest(http.MethodPost, "/deliveries/11/status", `{"statut":"delivered"}`, &courierActor, "id", "11"))
		require.Equal(t, http.StatusConflict, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, codeInvalidTransition, body.Code)
		assert.Equal(t, "assigned", body.CurrentStatus)
		assert.Equal(t, "delivered", body.RequestedStatus)
	})
}

func TestDeliveryHandler_Cancel(t *testing.T) {
	t.Parallel()

	uc := &stubDeliveryUsecase{
		cancelFn: func(_ context.Context, actor domain.Actor, id int64) (*domain.Delivery, error) {
			require.Equal(t, clientActor, actor)
			return sampleDelivery(domain.StatusCancelled), nil
		},
	}
	rr := httptest.NewRecorder()
	NewDeliveryHandler(nil, uc).Cancel(rr, newRequest(http.MethodPost, "/deliveries/11/cancel", "", &clientActor, "id", "11"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp deliveryResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "cancelled", resp.Status)
}

func TestDeliveryHandler_Lists(t *testing.T) {
	t.Parallel()

	list := []domain.Delivery{*sampleDelivery(domain.StatusDelivered)}
	uc := &stubDeliveryUsecase{
		mineFn:    func(context.Context, domain.Actor) ([]domain.Delivery, error) { return nil, nil },
		historyFn: func(context.Context, domain.Actor) ([]domain.Delivery, error) { return list, nil },
	}
	h := NewDeliveryHandler(nil, uc)

	rr := httptest.NewRecorder()
	h.Mine(rr, newRequest(http.MethodGet, "/deliveries/my-deliveries", "", &courierActor))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[]`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.History(rr, newRequest(http.MethodGet, "/deliveries/history", "", &courierActor))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp []deliveryResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "delivered", resp[0].Status)
}

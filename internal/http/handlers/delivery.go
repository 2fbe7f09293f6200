package handlers

import (
	"net/http"

	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
)

// DeliveryHandler handles HTTP requests for delivery resources.
type DeliveryHandler struct {
	usecase deliveryUsecase
	logger  logx.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(logger logx.Logger, uc deliveryUsecase) *DeliveryHandler {
	return &DeliveryHandler{usecase: uc, logger: logger}
}

// Create handles POST /deliveries/create.
// @Summary Создать доставку
// @Description Цена считается по зоне адреса забора, иначе по адресу доставки, иначе тариф по умолчанию
// @Tags deliveries
// @Accept json
// @Produce json
// @Param request body createDeliveryRequest true "Delivery payload"
// @Success 201 {object} deliveryResponse
// @Failure 400 {object} ErrorResponse "invalid input"
// @Failure 403 {object} ErrorResponse "forbidden"
// @Router /deliveries/create [post]
func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return
	}
	var req createDeliveryRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	d, err := h.usecase.Create(r.Context(), actor, req.toInput())
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, toDeliveryResponse(*d))
}

// Mine handles GET /deliveries/my-deliveries.
func (h *DeliveryHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return
	}
	list, err := h.usecase.Mine(r.Context(), actor)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponses(list))
}

// History handles GET /deliveries/history.
func (h *DeliveryHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return
	}
	list, err := h.usecase.History(r.Context(), actor)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponses(list))
}

// Get handles GET /deliveries/{id}.
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponse(*d))
}

// Status handles GET /deliveries/{id}/status.
func (h *DeliveryHandler) Status(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveryStatusResponse{
		DeliveryID: d.ID,
		Status:     string(d.Status),
		UpdatedAt:  d.UpdatedAt,
	})
}

func (h *DeliveryHandler) load(w http.ResponseWriter, r *http.Request) (*domain.Delivery, bool) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return nil, false
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return nil, false
	}
	d, err := h.usecase.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return nil, false
	}
	return d, true
}

// Timeline handles GET /deliveries/{id}/timeline.
func (h *DeliveryHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	changes, err := h.usecase.Timeline(r.Context(), actor, id)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toTimeline(changes))
}

// Assign handles POST /deliveries/{id}/assign.
// @Summary Назначить курьера
// @Tags deliveries
// @Accept json
// @Produce json
// @Param request body assignRequest true "Courier"
// @Success 200 {object} deliveryResponse
// @Failure 409 {object} ErrorResponse "courier busy or delivery not pending"
// @Router /deliveries/{id}/assign [post]
func (h *DeliveryHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	var req assignRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	d, err := h.usecase.Assign(r.Context(), actor, id, req.LivreurID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponse(*d))
}

// UpdateStatus handles POST /deliveries/{id}/status.
func (h *DeliveryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	var req statusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	d, err := h.usecase.UpdateStatus(r.Context(), actor, id, req.value())
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponse(*d))
}

// Cancel handles POST /deliveries/{id}/cancel.
func (h *DeliveryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	d, err := h.usecase.Cancel(r.Context(), actor, id)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponse(*d))
}

package handlers

import (
	"net/http"

	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
)

// UserHandler serves /users.
type UserHandler struct {
	uc     userUsecase
	logger logx.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(logger logx.Logger, uc userUsecase) *UserHandler {
	return &UserHandler{uc: uc, logger: logger}
}

// Me handles GET /users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return
	}
	u, err := h.uc.Me(r.Context(), actor)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toUserResponse(*u))
}

// List handles GET /users/ (admin).
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, nil)
}

// Clients handles GET /users/clients.
func (h *UserHandler) Clients(w http.ResponseWriter, r *http.Request) {
	role := domain.RoleClient
	h.list(w, r, &role)
}

// Couriers handles GET /users/livreurs. Each entry carries the derived availability in "status".
func (h *UserHandler) Couriers(w http.ResponseWriter, r *http.Request) {
	role := domain.RoleCourier
	h.list(w, r, &role)
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request, role *domain.Role) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return
	}
	list, err := h.uc.List(r.Context(), actor, role)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toUserSummaries(list))
}

// Create handles POST /users/ (admin): same body as registration, any role.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return
	}
	var req registerRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	u, err := h.uc.CreateUser(r.Context(), actor, req.toInput())
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, toUserResponse(*u))
}

package handlers

import (
	"net/http"

	"moto-dispatch/internal/logx"
)

// StatsHandler serves GET /stats.
type StatsHandler struct {
	uc     statsUsecase
	logger logx.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(logger logx.Logger, uc statsUsecase) *StatsHandler {
	return &StatsHandler{uc: uc, logger: logger}
}

// Get handles GET /stats (manager, admin).
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(h.logger, w, r)
	if !ok {
		return
	}
	st, err := h.uc.Get(r.Context(), actor)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toStatsResponse(st))
}

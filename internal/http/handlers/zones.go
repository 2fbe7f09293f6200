package handlers

import (
	"net/http"
	"strconv"

	"moto-dispatch/internal/logx"
)

// ZoneHandler serves GET /zones.
type ZoneHandler struct {
	uc     zoneUsecase
	logger logx.Logger
}

// NewZoneHandler creates a new ZoneHandler.
func NewZoneHandler(logger logx.Logger, uc zoneUsecase) *ZoneHandler {
	return &ZoneHandler{uc: uc, logger: logger}
}

// List handles GET /zones?active=true.
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if s := r.URL.Query().Get("active"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			writeError(h.logger, w, r, http.StatusBadRequest, codeValidation, "active: must be a boolean")
			return
		}
		activeOnly = v
	}
	list, err := h.uc.List(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toZoneResponses(list))
}

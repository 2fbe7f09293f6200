// Package handlers implements the HTTP/JSON surface of the dispatch API.
package handlers

import (
	"net/http"

	"moto-dispatch/internal/health"
	"moto-dispatch/internal/logx"
)

// Handlers holds HTTP handlers dependencies (logger, etc.).
type Handlers struct {
	Logger  logx.Logger
	checker healthChecker
}

// New creates a Handlers instance with the given logger. checker may be nil.
func New(logger logx.Logger, checker healthChecker) *Handlers {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Handlers{Logger: logger, checker: checker}
}

// Ping handles GET /ping and returns 200 with {"message":"pong"}.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.Logger, w, r, http.StatusOK, messageResponse{Message: "pong"})
}

// HealthcheckHead handles HEAD /healthcheck and returns 204 No Content.
func (h *Handlers) HealthcheckHead(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /health: 200 when every dependency answers, 503 otherwise.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	rep := health.Report{Status: health.StatusUp, Checks: map[string]string{}}
	if h.checker != nil {
		rep = h.checker.Run(r.Context())
	}
	status := http.StatusOK
	if !rep.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(h.Logger, w, r, status, rep)
}

// NotFound returns a JSON 404 error for unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(h.Logger, w, r, http.StatusNotFound, codeNotFound, "route not found")
}

// MethodNotAllowed returns a JSON 405 error.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(h.Logger, w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

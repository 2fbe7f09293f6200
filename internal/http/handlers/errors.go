package handlers

import (
	"errors"
	"net/http"

	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/logx"
)

const (
	codeValidation        = "validation_error"
	codeUnauthorized      = "unauthorized"
	codeForbidden         = "forbidden"
	codeNotFound          = "not_found"
	codeInvalidTransition = "invalid_transition"
	codeInvalidState      = "invalid_state"
	codeCourierBusy       = "courier_busy"
	codeConflict          = "conflict"
	codeTimeout           = "timeout"
	codeInternal          = "internal_error"
)

// writeServiceError maps service errors to HTTP answers. Unknown errors are
// logged and hidden behind a generic 500.
func writeServiceError(logger logx.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var terr *apperr.TransitionError
	switch {
	case errors.As(err, &terr):
		code := codeInvalidTransition
		if errors.Is(err, apperr.ErrInvalidState) {
			code = codeInvalidState
		}
		writeErrorBody(logger, w, r, http.StatusConflict, ErrorResponse{
			Error:           err.Error(),
			Code:            code,
			CurrentStatus:   terr.Current,
			RequestedStatus: terr.Requested,
		})
	case errors.Is(err, apperr.ErrValidation):
		writeError(logger, w, r, http.StatusBadRequest, codeValidation, validationMessage(err))
	case errors.Is(err, apperr.ErrUnauthorized):
		writeError(logger, w, r, http.StatusUnauthorized, codeUnauthorized, err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		writeError(logger, w, r, http.StatusForbidden, codeForbidden, "forbidden")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(logger, w, r, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, apperr.ErrCourierBusy):
		writeError(logger, w, r, http.StatusConflict, codeCourierBusy, "courier already has an active delivery")
	case errors.Is(err, apperr.ErrConflict):
		writeError(logger, w, r, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, apperr.ErrTimeout):
		writeError(logger, w, r, http.StatusGatewayTimeout, codeTimeout, "operation timed out")
	default:
		if logger != nil {
			logger.Error("internal error",
				logx.String("request_id", reqID(r.Context())),
				logx.String("method", r.Method),
				logx.String("path", r.URL.Path),
				logx.Err(err),
			)
		}
		writeError(logger, w, r, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

func validationMessage(err error) string {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return err.Error()
}

package handlers

import (
	"net/http"
	"strings"

	"moto-dispatch/internal/logx"
)

// AuthHandler serves the public /auth routes.
type AuthHandler struct {
	uc     authUsecase
	logger logx.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(logger logx.Logger, uc authUsecase) *AuthHandler {
	return &AuthHandler{uc: uc, logger: logger}
}

// Login handles POST /auth/login.
// @Summary Вход по телефону и паролю
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} loginResponse
// @Failure 401 {object} ErrorResponse "invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	res, err := h.uc.Login(r.Context(), req.Telephone, req.MotDePasse)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, loginResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		ExpiresAt:   res.ExpiresAt,
		User:        toUserResponse(res.User),
	})
}

// Register handles POST /auth/register. Only the client role may self-register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	u, err := h.uc.Register(r.Context(), req.toInput())
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, toUserResponse(*u))
}

// ForgetPassword handles POST /auth/forget-password?email=. The answer does
// not reveal whether the address is registered.
func (h *AuthHandler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, codeValidation, "email: is required")
		return
	}
	if err := h.uc.RequestPasswordReset(r.Context(), email); err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, messageResponse{
		Message: "if the address is registered, a reset link has been sent",
	})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if err := h.uc.ResetPassword(r.Context(), req.Token, req.MotDePasse); err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, messageResponse{Message: "password updated"})
}

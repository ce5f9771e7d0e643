package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/http/middleware"
	"github.com/vedx/vedx-site/internal/http/response"
	"github.com/vedx/vedx-site/internal/service"
)

// AuthHandler serves /api/auth: login, logout and the password-reset flow.
type AuthHandler struct {
	Auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.login)
	r.With(middleware.RequireSession(h.Auth)).Post("/logout", h.logout)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/resend-otp", h.resendOTP)
	r.Post("/verify-otp", h.verifyOTP)
	r.Post("/reset-password", h.resetPassword)
	return r
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if decodeJSON(w, r, &in) != nil {
		return
	}
	out, err := h.Auth.Login(r.Context(), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	out, err := h.Auth.Logout(r.Context(), middleware.Claims(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in domain.ForgotPasswordRequest
	if decodeJSON(w, r, &in) != nil {
		return
	}
	out, err := h.Auth.ForgotPassword(r.Context(), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) resendOTP(w http.ResponseWriter, r *http.Request) {
	var in domain.ForgotPasswordRequest
	if decodeJSON(w, r, &in) != nil {
		return
	}
	out, err := h.Auth.ResendOTP(r.Context(), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in domain.VerifyOTPRequest
	if decodeJSON(w, r, &in) != nil {
		return
	}
	out, err := h.Auth.VerifyOTP(r.Context(), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in domain.ResetPasswordRequest
	if decodeJSON(w, r, &in) != nil {
		return
	}
	out, err := h.Auth.ResetPassword(r.Context(), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, out)
}

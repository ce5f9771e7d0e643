package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/http/middleware"
	"github.com/vedx/vedx-site/internal/http/response"
	"github.com/vedx/vedx-site/internal/service"
)

// AdminHandler serves /api/admin. Every route needs a live session.
type AdminHandler struct {
	Auth service.AuthService
}

func NewAdminHandler(auth service.AuthService) *AdminHandler {
	return &AdminHandler{Auth: auth}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireSession(h.Auth))
	r.Post("/change-password", h.changePassword)
	r.Get("/profile", h.profile)
	r.Put("/profile", h.updateProfile)
	return r
}

func (h *AdminHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	var in domain.ChangePasswordRequest
	if decodeJSON(w, r, &in) != nil {
		return
	}
	out, err := h.Auth.ChangePassword(r.Context(), middleware.Claims(r), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) profile(w http.ResponseWriter, r *http.Request) {
	out, err := h.Auth.Profile(r.Context(), middleware.Claims(r).AdminID())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateProfileRequest
	if decodeJSON(w, r, &in) != nil {
		return
	}
	out, err := h.Auth.UpdateProfile(r.Context(), middleware.Claims(r).AdminID(), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, out)
}

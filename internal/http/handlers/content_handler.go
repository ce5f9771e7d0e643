package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vedx/vedx-site/internal/content"
	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/http/middleware"
	"github.com/vedx/vedx-site/internal/http/response"
	"github.com/vedx/vedx-site/internal/service"
)

var contentKinds = []domain.ContentKind{
	domain.KindBanners,
	domain.KindBlogs,
	domain.KindContacts,
	domain.KindIndustries,
	domain.KindServices,
}

// ContentHandler serves the public marketing sections and the admin-managed
// collections. Reads are public; writes need a live session.
type ContentHandler struct {
	Content service.ContentService
	Auth    middleware.Authenticator
}

func NewContentHandler(content service.ContentService, auth middleware.Authenticator) *ContentHandler {
	return &ContentHandler{Content: content, Auth: auth}
}

// Mount registers routes directly on r so static sections and collections share /api.
func (h *ContentHandler) Mount(r chi.Router) {
	for _, section := range content.Sections {
		r.Get("/"+section, h.static(section))
	}

	requireSession := middleware.RequireSession(h.Auth)
	for _, kind := range contentKinds {
		kind := kind
		r.Route("/"+string(kind), func(r chi.Router) {
			r.Get("/", h.list(kind))
			r.Get("/{id}", h.get(kind))
			r.Group(func(r chi.Router) {
				r.Use(requireSession)
				r.Post("/", h.create(kind))
				r.Put("/{id}", h.update(kind))
				r.Delete("/{id}", h.delete(kind))
			})
		})
	}
}

func writeRaw(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func (h *ContentHandler) static(section string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := h.Content.Static(r.Context(), section)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		writeRaw(w, http.StatusOK, raw)
	}
}

func (h *ContentHandler) list(kind domain.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := h.Content.List(r.Context(), kind)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		writeRaw(w, http.StatusOK, raw)
	}
}

func (h *ContentHandler) get(kind domain.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := h.Content.Get(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		writeRaw(w, http.StatusOK, raw)
	}
}

func (h *ContentHandler) create(kind domain.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		raw, err := h.Content.Create(r.Context(), kind, body)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		writeRaw(w, http.StatusCreated, raw)
	}
}

func (h *ContentHandler) update(kind domain.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		raw, err := h.Content.Update(r.Context(), kind, chi.URLParam(r, "id"), body)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		writeRaw(w, http.StatusOK, raw)
	}
}

func (h *ContentHandler) delete(kind domain.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.Content.Delete(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
			response.Error(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

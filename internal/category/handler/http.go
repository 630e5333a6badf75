// Package handler exposes category CRUD over HTTP. The rules are small enough
// that they live here rather than in a separate service layer: names are
// unique, and a category referenced by tickets cannot be deleted.
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ticketdesk/backend/internal/category/domain"
	"ticketdesk/backend/internal/category/repository"
	"ticketdesk/backend/internal/platform/web"
)

// Handler serves the /api/v1/categories routes.
type Handler struct {
	repo repository.Repository
}

// NewHandler returns a category HTTP handler backed by repo.
func NewHandler(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

type categoryRequest struct {
	Name string `json:"name"`
}

// Create adds a category (admin only, enforced by route middleware).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		web.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	existing, err := h.repo.GetByName(r.Context(), name)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		web.WriteError(w, http.StatusConflict, "category with this name already exists")
		return
	}
	now := time.Now().UTC()
	c := &domain.Category{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repo.Create(r.Context(), c); err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	web.WriteJSON(w, http.StatusCreated, c)
}

// List returns all categories ordered by name.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.List(r.Context())
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	web.WriteJSON(w, http.StatusOK, categories)
}

// Get returns a single category.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if c == nil {
		web.WriteError(w, http.StatusNotFound, "category not found")
		return
	}
	web.WriteJSON(w, http.StatusOK, c)
}

// Update renames a category (admin only, enforced by route middleware).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		web.WriteError(w, http.StatusBadRequest, "no fields provided for update")
		return
	}
	id := chi.URLParam(r, "id")
	existing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		web.WriteError(w, http.StatusNotFound, "category not found")
		return
	}
	duplicate, err := h.repo.GetByName(r.Context(), name)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if duplicate != nil && duplicate.ID != id {
		web.WriteError(w, http.StatusConflict, "category with this name already exists")
		return
	}
	if err := h.repo.Rename(r.Context(), id, name); err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	updated, err := h.repo.GetByID(r.Context(), id)
	if err != nil || updated == nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	web.WriteJSON(w, http.StatusOK, updated)
}

// Delete removes an unused category (admin only, enforced by route middleware).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if c == nil {
		web.WriteError(w, http.StatusNotFound, "category not found")
		return
	}
	if c.TicketCount > 0 {
		web.WriteError(w, http.StatusConflict, "cannot delete category that is used by tickets")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Package handler exposes user profile routes over HTTP.
package handler

import (
	"net/http"
	"time"

	"ticketdesk/backend/internal/platform/pagination"
	"ticketdesk/backend/internal/platform/web"
	"ticketdesk/backend/internal/server/middleware"
	"ticketdesk/backend/internal/user/repository"

	"ticketdesk/backend/internal/user/domain"
)

// Handler serves the /api/v1/users routes.
type Handler struct {
	repo repository.Repository
}

// NewHandler returns a user HTTP handler backed by repo.
func NewHandler(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

// publicUser is the user shape returned over HTTP. The password hash never
// leaves the repository layer.
type publicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toPublicUser(u *domain.User) publicUser {
	return publicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Me returns the authenticated caller's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	u, err := h.repo.GetByID(r.Context(), id.UserID)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if u == nil {
		web.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	web.WriteJSON(w, http.StatusOK, toPublicUser(u))
}

// List returns all users (admin only, enforced by route middleware).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.Parse(r)
	users, err := h.repo.List(r.Context(), p.Limit, p.Offset())
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	total, err := h.repo.Count(r.Context())
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]publicUser, 0, len(users))
	for _, u := range users {
		items = append(items, toPublicUser(u))
	}
	web.WriteJSON(w, http.StatusOK, pagination.NewPage(items, p, total))
}

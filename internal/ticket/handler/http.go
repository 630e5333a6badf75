// Package handler exposes ticket operations over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ticketdesk/backend/internal/platform/pagination"
	"ticketdesk/backend/internal/platform/web"
	"ticketdesk/backend/internal/policy/engine"
	"ticketdesk/backend/internal/server/middleware"
	"ticketdesk/backend/internal/ticket/domain"
	"ticketdesk/backend/internal/ticket/service"
	userdomain "ticketdesk/backend/internal/user/domain"
)

// Handler serves the /api/v1/tickets routes.
type Handler struct {
	svc *service.TicketService
}

// NewHandler returns a ticket HTTP handler backed by svc.
func NewHandler(svc *service.TicketService) *Handler {
	return &Handler{svc: svc}
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	CategoryID  string `json:"categoryId"`
	// AssigneeID is accepted for compatibility but ignored; assignment is a
	// separate admin operation.
	AssigneeID string `json:"assigneeId"`
}

type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssigneeID  *string `json:"assigneeId"`
	CategoryID  *string `json:"categoryId"`
}

type assignRequest struct {
	TicketID   string `json:"ticketId"`
	AssigneeID string `json:"assigneeId"`
}

type ticketResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CategoryID  *string   `json:"categoryId"`
	RequesterID string    `json:"requesterId"`
	AssigneeID  *string   `json:"assigneeId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTicketResponse(t *domain.Ticket) ticketResponse {
	return ticketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		CategoryID:  t.CategoryID,
		RequesterID: t.RequesterID,
		AssigneeID:  t.AssigneeID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// Create opens a ticket on behalf of the authenticated caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	var req createRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.svc.Create(r.Context(), id.UserID, service.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, toTicketResponse(t))
}

// ListAll returns every ticket (admin only, enforced by route middleware).
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	p := pagination.Parse(r)
	items, total, err := h.svc.ListAll(r.Context(), p.Limit, p.Offset())
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, pagination.NewPage(views(items), p, total))
}

// ListAssigned returns tickets assigned to the caller.
func (h *Handler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	p := pagination.Parse(r)
	items, total, err := h.svc.ListAssigned(r.Context(), id.UserID, p.Limit, p.Offset())
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, pagination.NewPage(views(items), p, total))
}

// ListMine returns tickets the caller has opened.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	p := pagination.Parse(r)
	items, total, err := h.svc.ListRequested(r.Context(), id.UserID, p.Limit, p.Offset())
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, pagination.NewPage(views(items), p, total))
}

// Assign assigns a ticket to a user (admin only, enforced by route middleware).
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	var req assignRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TicketID == "" || req.AssigneeID == "" {
		web.WriteError(w, http.StatusBadRequest, "ticketId and assigneeId are required")
		return
	}
	view, err := h.svc.Assign(r.Context(), id.UserID, req.TicketID, req.AssigneeID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, view)
}

// Get returns a single ticket with its comment thread.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, detail)
}

// Update applies a partial update to a ticket.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	var req updateRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	actor := engine.Actor{ID: id.UserID, Role: userdomain.Role(id.Role)}
	view, err := h.svc.Update(r.Context(), actor, chi.URLParam(r, "id"), service.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, view)
}

// Delete removes a ticket (admin only, enforced by route middleware).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	if err := h.svc.Delete(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		web.WriteError(w, http.StatusNotFound, "ticket not found")
	case errors.Is(err, service.ErrForbidden):
		web.WriteError(w, http.StatusForbidden, "not allowed")
	case errors.Is(err, service.ErrInvalidInput):
		web.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		web.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func views(items []*domain.View) []*domain.View {
	if items == nil {
		return []*domain.View{}
	}
	return items
}

// Package handler exposes comment operations over HTTP. Edits and deletes go
// through the access policy: authors may modify their own comments, admins
// anyone's.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ticketdesk/backend/internal/comment/domain"
	"ticketdesk/backend/internal/comment/repository"
	"ticketdesk/backend/internal/platform/pagination"
	"ticketdesk/backend/internal/platform/web"
	"ticketdesk/backend/internal/policy/engine"
	"ticketdesk/backend/internal/server/middleware"
	userdomain "ticketdesk/backend/internal/user/domain"
)

// TicketExistenceChecker verifies the target ticket before a comment is created.
type TicketExistenceChecker interface {
	Exists(ctx context.Context, ticketID string) (bool, error)
}

// Handler serves the /api/v1/comments routes.
type Handler struct {
	repo    repository.Repository
	tickets TicketExistenceChecker
	policy  engine.Evaluator
}

// NewHandler returns a comment HTTP handler.
func NewHandler(repo repository.Repository, tickets TicketExistenceChecker, policy engine.Evaluator) *Handler {
	return &Handler{repo: repo, tickets: tickets, policy: policy}
}

type createRequest struct {
	Body     string `json:"body"`
	TicketID string `json:"ticketId"`
}

type updateRequest struct {
	Body string `json:"body"`
}

// Create adds a comment to an existing ticket on behalf of the caller.
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
	if req.Body == "" || req.TicketID == "" {
		web.WriteError(w, http.StatusBadRequest, "body and ticketId are required")
		return
	}
	exists, err := h.tickets.Exists(r.Context(), req.TicketID)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !exists {
		web.WriteError(w, http.StatusNotFound, "ticket not found")
		return
	}
	now := time.Now().UTC()
	c := &domain.Comment{
		ID:        uuid.New().String(),
		Body:      req.Body,
		TicketID:  req.TicketID,
		AuthorID:  id.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repo.Create(r.Context(), c); err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	view, err := h.repo.GetView(r.Context(), c.ID)
	if err != nil || view == nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	web.WriteJSON(w, http.StatusCreated, view)
}

// List returns comments newest first, optionally filtered by ?ticketId=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ticketID := r.URL.Query().Get("ticketId")
	p := pagination.Parse(r)
	items, err := h.repo.List(r.Context(), ticketID, p.Limit, p.Offset())
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	total, err := h.repo.Count(r.Context(), ticketID)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []*domain.View{}
	}
	web.WriteJSON(w, http.StatusOK, pagination.NewPage(items, p, total))
}

// Get returns a single comment.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.repo.GetView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if view == nil {
		web.WriteError(w, http.StatusNotFound, "comment not found")
		return
	}
	web.WriteJSON(w, http.StatusOK, view)
}

// Update edits a comment body, policy permitting.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Body == "" {
		web.WriteError(w, http.StatusBadRequest, "no fields provided for update")
		return
	}
	id := chi.URLParam(r, "id")
	if !h.authorize(w, r, id, "comment.update") {
		return
	}
	if err := h.repo.SetBody(r.Context(), id, req.Body); err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	view, err := h.repo.GetView(r.Context(), id)
	if err != nil || view == nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	web.WriteJSON(w, http.StatusOK, view)
}

// Delete removes a comment, policy permitting.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorize(w, r, id, "comment.delete") {
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// authorize loads the comment and runs the access policy for action. It writes
// the error response and returns false when the request must not proceed.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, commentID, action string) bool {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return false
	}
	c, err := h.repo.GetByID(r.Context(), commentID)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return false
	}
	if c == nil {
		web.WriteError(w, http.StatusNotFound, "comment not found")
		return false
	}
	allowed, err := h.policy.Allow(r.Context(), engine.Input{
		Actor:    engine.Actor{ID: identity.UserID, Role: userdomain.Role(identity.Role)},
		Action:   action,
		Resource: engine.Resource{Kind: "comment", AuthorID: c.AuthorID},
	})
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "internal error")
		return false
	}
	if !allowed {
		web.WriteError(w, http.StatusForbidden, "you are not allowed to modify this comment")
		return false
	}
	return true
}

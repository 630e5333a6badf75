// Package service implements ticket operations on top of the ticket
// repository and the access policy engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ticketdesk/backend/internal/audit"
	"ticketdesk/backend/internal/policy/engine"
	"ticketdesk/backend/internal/ticket/domain"
	userdomain "ticketdesk/backend/internal/user/domain"
)

// Sentinel errors for the ticket service; handlers map them to HTTP status codes.
var (
	// ErrNotFound maps to 404.
	ErrNotFound = errors.New("ticket not found")
	// ErrForbidden maps to 403. Returned when the policy denies the action,
	// e.g. an agent updating a ticket not assigned to them.
	ErrForbidden = errors.New("not allowed")
	// ErrInvalidInput maps to 400. Wrapped by validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// TicketRepo is the ticket repository surface the service needs.
type TicketRepo interface {
	Create(ctx context.Context, t *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetView(ctx context.Context, id string) (*domain.View, error)
	ListAll(ctx context.Context, limit, offset int) ([]*domain.View, error)
	CountAll(ctx context.Context) (int, error)
	ListByAssignee(ctx context.Context, userID string, limit, offset int) ([]*domain.View, error)
	CountByAssignee(ctx context.Context, userID string) (int, error)
	ListByRequester(ctx context.Context, userID string, limit, offset int) ([]*domain.View, error)
	CountByRequester(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, t *domain.Ticket) error
	SetAssignee(ctx context.Context, ticketID, assigneeID string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// UserRepo resolves assignees when tickets are assigned.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// CategoryRepo checks that a referenced category exists.
type CategoryRepo interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// CommentLister loads the comment thread for the ticket detail view.
type CommentLister interface {
	ListForTicket(ctx context.Context, ticketID string) ([]domain.CommentView, error)
}

// CreateInput are the fields accepted when opening a ticket.
type CreateInput struct {
	Title       string
	Description string
	Priority    string
	CategoryID  string
}

// UpdateInput is a partial ticket update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssigneeID  *string
	CategoryID  *string
}

// TicketService implements ticket lifecycle operations.
type TicketService struct {
	repo       TicketRepo
	userRepo   UserRepo
	categories CategoryRepo
	comments   CommentLister
	policy     engine.Evaluator
	auditLog   audit.EventLogger
}

// NewTicketService returns a TicketService with the given dependencies.
// auditLog may be nil to disable audit logging.
func NewTicketService(
	repo TicketRepo,
	userRepo UserRepo,
	categories CategoryRepo,
	comments CommentLister,
	policy engine.Evaluator,
	auditLog audit.EventLogger,
) *TicketService {
	return &TicketService{
		repo:       repo,
		userRepo:   userRepo,
		categories: categories,
		comments:   comments,
		policy:     policy,
		auditLog:   auditLog,
	}
}

// Create opens a new ticket with status OPEN on behalf of requesterID.
func (s *TicketService) Create(ctx context.Context, requesterID string, in CreateInput) (*domain.Ticket, error) {
	now := time.Now().UTC()
	t := &domain.Ticket{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		Priority:    domain.Priority(in.Priority),
		Status:      domain.StatusOpen,
		RequesterID: requesterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.CategoryID != "" {
		ok, err := s.categories.Exists(ctx, in.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: category not found", ErrInvalidInput)
		}
		t.CategoryID = &in.CategoryID
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logEvent(ctx, requesterID, "ticket.created", "ticket:"+t.ID, "")
	return t, nil
}

// ListAll returns every ticket, newest first, with the total count.
func (s *TicketService) ListAll(ctx context.Context, limit, offset int) ([]*domain.View, int, error) {
	items, err := s.repo.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAssigned returns tickets assigned to userID with the total count.
func (s *TicketService) ListAssigned(ctx context.Context, userID string, limit, offset int) ([]*domain.View, int, error) {
	items, err := s.repo.ListByAssignee(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountByAssignee(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListRequested returns tickets opened by userID with the total count.
func (s *TicketService) ListRequested(ctx context.Context, userID string, limit, offset int) ([]*domain.View, int, error) {
	items, err := s.repo.ListByRequester(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountByRequester(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Assign assigns the ticket to assigneeID and returns the updated read model.
func (s *TicketService) Assign(ctx context.Context, actorID, ticketID, assigneeID string) (*domain.View, error) {
	assignee, err := s.userRepo.GetByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if assignee == nil {
		return nil, fmt.Errorf("%w: assignee not found", ErrInvalidInput)
	}
	ok, err := s.repo.SetAssignee(ctx, ticketID, assigneeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	s.logEvent(ctx, actorID, "ticket.assigned", "ticket:"+ticketID, fmt.Sprintf(`{"assigneeId":%q}`, assigneeID))
	return s.mustView(ctx, ticketID)
}

// Get returns the ticket detail including its comment thread.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Detail, error) {
	view, err := s.repo.GetView(ctx, id)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, ErrNotFound
	}
	comments, err := s.comments.ListForTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []domain.CommentView{}
	}
	return &domain.Detail{View: *view, Comments: comments}, nil
}

// Update applies a partial update. Admins may update any ticket; agents only
// tickets assigned to them (enforced by the access policy).
func (s *TicketService) Update(ctx context.Context, actor engine.Actor, id string, in UpdateInput) (*domain.View, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}

	assigneeID := ""
	if t.AssigneeID != nil {
		assigneeID = *t.AssigneeID
	}
	allowed, err := s.policy.Allow(ctx, engine.Input{
		Actor:  actor,
		Action: "ticket.update",
		Resource: engine.Resource{
			Kind:        "ticket",
			AssigneeID:  assigneeID,
			RequesterID: t.RequesterID,
		},
	})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		status := domain.Status(*in.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
		t.Status = status
	}
	if in.Priority != nil {
		priority := domain.Priority(*in.Priority)
		if !priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, *in.Priority)
		}
		t.Priority = priority
	}
	if in.AssigneeID != nil {
		if *in.AssigneeID == "" {
			t.AssigneeID = nil
		} else {
			assignee, err := s.userRepo.GetByID(ctx, *in.AssigneeID)
			if err != nil {
				return nil, err
			}
			if assignee == nil {
				return nil, fmt.Errorf("%w: assignee not found", ErrInvalidInput)
			}
			t.AssigneeID = in.AssigneeID
		}
	}
	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			t.CategoryID = nil
		} else {
			ok, err := s.categories.Exists(ctx, *in.CategoryID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("%w: category not found", ErrInvalidInput)
			}
			t.CategoryID = in.CategoryID
		}
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.logEvent(ctx, actor.ID, "ticket.updated", "ticket:"+id, "")
	return s.mustView(ctx, id)
}

// Delete removes the ticket and its comments.
func (s *TicketService) Delete(ctx context.Context, actorID, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.logEvent(ctx, actorID, "ticket.deleted", "ticket:"+id, "")
	return nil
}

func (s *TicketService) mustView(ctx context.Context, id string) (*domain.View, error) {
	view, err := s.repo.GetView(ctx, id)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, ErrNotFound
	}
	return view, nil
}

func (s *TicketService) logEvent(ctx context.Context, userID, action, resource, metadata string) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.LogEvent(ctx, userID, action, resource, metadata)
}

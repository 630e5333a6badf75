// Package domain holds the ticket entity and its read models.
package domain

import (
	"errors"
	"time"
)

// Priority is the ticket priority level.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status is the ticket lifecycle state.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Ticket is the persisted ticket row. AssigneeID and CategoryID are nil when
// the ticket is unassigned or uncategorized.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Priority    Priority
	Status      Status
	CategoryID  *string
	RequesterID string
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the fields required to create a ticket.
func (t *Ticket) Validate() error {
	if t.Title == "" {
		return errors.New("title is required")
	}
	if t.Description == "" {
		return errors.New("description is required")
	}
	if !t.Priority.Valid() {
		return errors.New("priority must be LOW, MEDIUM, or HIGH")
	}
	if t.RequesterID == "" {
		return errors.New("requester is required")
	}
	return nil
}

// UserRef is the embedded user summary in ticket read models.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CategoryRef is the embedded category summary in ticket read models.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// View is the list read model with requester, assignee, and category joined in.
type View struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    Priority     `json:"priority"`
	Status      Status       `json:"status"`
	Category    *CategoryRef `json:"category"`
	Requester   *UserRef     `json:"requester,omitempty"`
	Assignee    *UserRef     `json:"assignee"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// CommentView is a ticket comment as embedded in the detail read model.
type CommentView struct {
	Body      string    `json:"body"`
	Author    UserRef   `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// Detail is the single-ticket read model including its comment thread.
type Detail struct {
	View
	Comments []CommentView `json:"comments"`
}

// Package domain holds the ticket comment entity and its read model.
package domain

import "time"

// Comment is the persisted comment row.
type Comment struct {
	ID        string
	Body      string
	TicketID  string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthorRef is the embedded author summary in the comment read model.
type AuthorRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// View is the comment read model with the author joined in.
type View struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	TicketID  string    `json:"ticketId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    AuthorRef `json:"author"`
}

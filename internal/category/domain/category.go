// Package domain holds the ticket category entity.
package domain

import "time"

// Category is a ticket category. TicketCount is derived, not stored.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	TicketCount int       `json:"ticketCount"`
}

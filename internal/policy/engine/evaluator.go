// Package engine evaluates resource-level access rules with OPA Rego.
// Route-level role checks live in the HTTP middleware; this engine decides
// the finer questions, like whether an agent may update a ticket that is
// not assigned to them or whether a commenter may edit someone else's comment.
package engine

import (
	"context"

	userdomain "ticketdesk/backend/internal/user/domain"
)

// Actor is the authenticated principal requesting an action.
type Actor struct {
	ID   string
	Role userdomain.Role
}

// Resource describes the object being acted on. Only the fields relevant
// to the resource kind need to be set.
type Resource struct {
	// Kind is the resource type, e.g. "ticket" or "comment".
	Kind string
	// AssigneeID is the agent assigned to a ticket, empty when unassigned.
	AssigneeID string
	// AuthorID is the author of a comment.
	AuthorID string
	// RequesterID is the user who opened a ticket.
	RequesterID string
}

// Input is the full policy input for a single decision.
type Input struct {
	Actor    Actor
	Action   string
	Resource Resource
}

// Evaluator decides whether an actor may perform an action on a resource.
type Evaluator interface {
	// Allow returns true when the policy permits the action. A false result
	// with a nil error is a clean deny; an error means the decision could
	// not be made and callers should deny.
	Allow(ctx context.Context, in Input) (bool, error)
}

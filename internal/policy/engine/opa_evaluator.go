package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const accessPolicyModule = "access.rego"

// Access policy. Admins may do anything; agents may update tickets assigned
// to them; comment authors may edit and delete their own comments.
const accessRegoPolicy = `package ticketdesk.access

default allow = false

allow if {
	input.actor.role == "ADMIN"
}

allow if {
	input.action == "ticket.update"
	input.actor.role == "AGENT"
	input.resource.assignee_id != ""
	input.resource.assignee_id == input.actor.id
}

allow if {
	input.action == "comment.update"
	input.resource.author_id == input.actor.id
}

allow if {
	input.action == "comment.delete"
	input.resource.author_id == input.actor.id
}
`

// OPAEvaluator evaluates access decisions with an in-process OPA Rego engine.
// The policy is compiled and the query prepared once at construction.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles the access policy and prepares the allow query.
func NewOPAEvaluator(ctx context.Context) (*OPAEvaluator, error) {
	compiler, err := ast.CompileModules(map[string]string{accessPolicyModule: accessRegoPolicy})
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	query, err := rego.New(
		rego.Query("data.ticketdesk.access.allow"),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare access query: %w", err)
	}
	return &OPAEvaluator{query: query}, nil
}

// Allow evaluates the prepared allow query against the given input.
func (e *OPAEvaluator) Allow(ctx context.Context, in Input) (bool, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(in)))
	if err != nil {
		return false, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("access policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("access policy returned non-boolean result")
	}
	return allowed, nil
}

func buildInput(in Input) map[string]interface{} {
	return map[string]interface{}{
		"actor": map[string]interface{}{
			"id":   in.Actor.ID,
			"role": string(in.Actor.Role),
		},
		"action": in.Action,
		"resource": map[string]interface{}{
			"kind":         in.Resource.Kind,
			"assignee_id":  in.Resource.AssigneeID,
			"author_id":    in.Resource.AuthorID,
			"requester_id": in.Resource.RequesterID,
		},
	}
}

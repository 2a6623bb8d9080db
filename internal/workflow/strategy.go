package workflow

import (
	"context"

	"github.com/frahmantamala/hr-approvals/internal/approval"
	"github.com/frahmantamala/hr-approvals/internal/permission"
)

// Payload is the kind-specific body of a request.
type Payload interface {
	Validate() error
	// ApprovalContext returns the planning input; the coordinator fills in
	// the company and request type.
	ApprovalContext() approval.Context
}

// CompletionHook runs inside the transaction that approves the last step.
type CompletionHook func(ctx context.Context, tx Tx, req *Request, actorID string) error

// Strategy is what differs between request kinds.
type Strategy[P Payload] struct {
	Kind approval.RequestType
	// Module prefixes the permission codes, e.g. ADVANCES.
	Module string
	// Label names the kind in notifications, e.g. "advance".
	Label string
	// Summary describes a payload in one line for notifications.
	Summary    func(p P) string
	OnComplete CompletionHook
}

func (s Strategy[P]) PermissionCode(step approval.Step) permission.Code {
	return permission.ApproveCode(s.Module, step)
}

func (s Strategy[P]) ViewCode() permission.Code {
	return permission.ViewCode(s.Module)
}

// AllowsDelay reports whether DELAYED may be submitted at step.
func (s Strategy[P]) AllowsDelay(step approval.Step) bool {
	return step.IsActionable() && step != approval.StepManager
}

func (s Strategy[P]) summary(p P) string {
	if s.Summary == nil {
		return s.Label + " request"
	}
	return s.Summary(p)
}

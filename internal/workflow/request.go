package workflow

import (
	"encoding/json"
	"time"

	"github.com/frahmantamala/hr-approvals/internal/approval"
)

// Status is the display label of a request. The authoritative state is the
// current step together with the per-step decisions.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusMgrApproved     Status = "MGR_APPROVED"
	StatusHRApproved      Status = "HR_APPROVED"
	StatusFinanceApproved Status = "FINANCE_APPROVED"
	StatusCEOApproved     Status = "CEO_APPROVED"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusDelayed         Status = "DELAYED"
	StatusCancelled       Status = "CANCELLED"
)

// AllStatuses is the order used by Stats.
var AllStatuses = []Status{
	StatusPending,
	StatusMgrApproved,
	StatusHRApproved,
	StatusFinanceApproved,
	StatusCEOApproved,
	StatusDelayed,
	StatusApproved,
	StatusRejected,
	StatusCancelled,
}

var stepApprovedStatus = map[approval.Step]Status{
	approval.StepManager: StatusMgrApproved,
	approval.StepHR:      StatusHRApproved,
	approval.StepFinance: StatusFinanceApproved,
	approval.StepCEO:     StatusCEOApproved,
}

// StepApprovedStatus is the label shown after step was approved and the
// request moved on.
func StepApprovedStatus(step approval.Step) Status {
	if s, ok := stepApprovedStatus[step]; ok {
		return s
	}
	return StatusPending
}

type StepDecision struct {
	Decision   approval.Decision `json:"decision"`
	ApproverID string            `json:"approver_id,omitempty"`
	DecidedAt  *time.Time        `json:"decided_at,omitempty"`
	Notes      string            `json:"notes,omitempty"`
}

// Request is the state shared by every approvable request kind.
type Request struct {
	ID                       string                          `json:"id"`
	CompanyID                string                          `json:"company_id"`
	Kind                     approval.RequestType            `json:"kind"`
	SubjectID                string                          `json:"user_id"`
	ManagerApproverID        *string                         `json:"manager_approver_id,omitempty"`
	Chain                    approval.Chain                  `json:"approval_chain"`
	CurrentStep              approval.Step                   `json:"current_step"`
	Status                   Status                          `json:"status"`
	Decisions                map[approval.Step]*StepDecision `json:"decisions"`
	Amount                   *int64                          `json:"amount,omitempty"`
	ApprovedAmount           *int64                          `json:"approved_amount,omitempty"`
	ApprovedMonthlyDeduction *int64                          `json:"approved_monthly_deduction,omitempty"`
	Payload                  json.RawMessage                 `json:"payload"`
	AppliedToSalary          bool                            `json:"applied_to_salary"`
	DelayCount               int                             `json:"delay_count"`
	Version                  int                             `json:"version"`
	CreatedAt                time.Time                       `json:"created_at"`
	UpdatedAt                time.Time                       `json:"updated_at"`
}

// IsClosed reports whether no further decision can be made.
func (r *Request) IsClosed() bool {
	return r.Status == StatusCancelled || r.CurrentStep == approval.StepCompleted
}

// Decision returns the recorded decision for step, PENDING when none.
func (r *Request) Decision(step approval.Step) approval.Decision {
	if d, ok := r.Decisions[step]; ok && d != nil {
		return d.Decision
	}
	return approval.DecisionPending
}

// HasDecisions reports whether any step holds a non-pending decision.
func (r *Request) HasDecisions() bool {
	for _, d := range r.Decisions {
		if d != nil && d.Decision != approval.DecisionPending {
			return true
		}
	}
	return false
}

// EffectiveAmount is the approved amount when one was set, else the requested one.
func (r *Request) EffectiveAmount() *int64 {
	if r.ApprovedAmount != nil {
		return r.ApprovedAmount
	}
	return r.Amount
}

// Clone copies the request deeply enough that mutating the copy leaves r intact.
func (r *Request) Clone() *Request {
	cp := *r
	cp.Chain = append(approval.Chain(nil), r.Chain...)
	cp.Payload = append(json.RawMessage(nil), r.Payload...)
	cp.Decisions = make(map[approval.Step]*StepDecision, len(r.Decisions))
	for step, d := range r.Decisions {
		if d == nil {
			continue
		}
		dc := *d
		cp.Decisions[step] = &dc
	}
	return &cp
}

// pendingDecisions marks every actionable step of the chain as PENDING.
func pendingDecisions(chain approval.Chain) map[approval.Step]*StepDecision {
	decisions := make(map[approval.Step]*StepDecision, len(chain))
	for _, step := range chain.Base() {
		decisions[step] = &StepDecision{Decision: approval.DecisionPending}
	}
	return decisions
}

// LogEntry is one row of a request's approval history.
type LogEntry struct {
	ID        string               `json:"id"`
	CompanyID string               `json:"company_id"`
	Kind      approval.RequestType `json:"request_kind"`
	RequestID string               `json:"request_id"`
	Step      approval.Step        `json:"step"`
	Decision  approval.Decision    `json:"decision"`
	Notes     string               `json:"notes,omitempty"`
	ByUserID  string               `json:"by_user_id"`
	CreatedAt time.Time            `json:"created_at"`
}

// SalaryChange is the audit of one raise applied to a baseline.
type SalaryChange struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"company_id"`
	EmployeeID string    `json:"employee_id"`
	RequestID  string    `json:"request_id"`
	OldAmount  int64     `json:"old_amount"`
	NewAmount  int64     `json:"new_amount"`
	ChangedBy  string    `json:"changed_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to 1..100 items, 20 by default.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

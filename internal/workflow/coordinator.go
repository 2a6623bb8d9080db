package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/hr-approvals/internal/approval"
	"github.com/frahmantamala/hr-approvals/internal/employee"
	"github.com/frahmantamala/hr-approvals/internal/notification"
	"github.com/frahmantamala/hr-approvals/internal/permission"
)

// Authorizer is the slice of the permission service the workflow relies on.
type Authorizer interface {
	GetAccessibleEmployeeIDs(ctx context.Context, approverID, companyID string, code permission.Code) (permission.EmployeeSet, error)
	CanAccessEmployee(ctx context.Context, approverID, companyID string, code permission.Code, targetID string) (permission.Access, error)
	HasPermission(ctx context.Context, userID, companyID string, code permission.Code) (bool, error)
	ApproversFor(ctx context.Context, companyID string, code permission.Code, subjectID string) ([]string, error)
}

type ChainPlanner interface {
	Plan(ctx context.Context, pc approval.Context) (approval.Chain, error)
}

type EmployeeLookup interface {
	GetByID(ctx context.Context, companyID, employeeID string) (*employee.Employee, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, messages []notification.Message) int
}

type Deps struct {
	Repository Repository
	Planner    ChainPlanner
	Authorizer Authorizer
	Employees  EmployeeLookup
	Notifier   Notifier
	Logger     *slog.Logger
}

// Coordinator runs the approval workflow for one request kind.
type Coordinator[P Payload] struct {
	strategy  Strategy[P]
	repo      Repository
	planner   ChainPlanner
	authz     Authorizer
	employees EmployeeLookup
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

func NewCoordinator[P Payload](strategy Strategy[P], deps Deps) *Coordinator[P] {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator[P]{
		strategy:  strategy,
		repo:      deps.Repository,
		planner:   deps.Planner,
		authz:     deps.Authorizer,
		employees: deps.Employees,
		notifier:  deps.Notifier,
		logger:    logger.With("request_kind", strategy.Kind),
		now:       time.Now,
	}
}

func (c *Coordinator[P]) Strategy() Strategy[P] {
	return c.strategy
}

// DecideInput is one approver's verdict on one step.
type DecideInput struct {
	CompanyID string
	RequestID string
	ActorID   string
	Step      approval.Step
	Decision  approval.Decision
	Notes     string

	// Only honoured on APPROVED.
	ApprovedAmount           *int64
	ApprovedMonthlyDeduction *int64
}

type Stats struct {
	Total    int64            `json:"total"`
	ByStatus map[Status]int64 `json:"by_status"`
}

// Create plans the chain, stores the request at its first step and notifies
// the first step's approvers.
func (c *Coordinator[P]) Create(ctx context.Context, companyID, subjectID string, payload P) (*Request, error) {
	if err := payload.Validate(); err != nil {
		c.logger.Warn("request validation failed", "user_id", subjectID, "company_id", companyID, "error", err)
		return nil, err
	}

	subject, err := c.employees.GetByID(ctx, companyID, subjectID)
	if err != nil {
		c.logger.Warn("requester not found in directory", "user_id", subjectID, "company_id", companyID, "error", err)
		return nil, err
	}

	pc := payload.ApprovalContext()
	pc.CompanyID = companyID
	pc.RequestType = c.strategy.Kind

	chain, err := c.planner.Plan(ctx, pc)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, ErrInvalidPayload.WithCause(err)
	}

	now := c.now()
	req := &Request{
		ID:                uuid.NewString(),
		CompanyID:         companyID,
		Kind:              c.strategy.Kind,
		SubjectID:         subjectID,
		ManagerApproverID: subject.ManagerID,
		Chain:             chain,
		CurrentStep:       chain.First(),
		Status:            StatusPending,
		Decisions:         pendingDecisions(chain),
		Amount:            pc.Amount,
		Payload:           raw,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := c.repo.Create(ctx, req); err != nil {
		c.logger.Error("failed to create request", "user_id", subjectID, "company_id", companyID, "error", err)
		return nil, err
	}

	c.logger.Info("request created",
		"request_id", req.ID,
		"user_id", subjectID,
		"company_id", companyID,
		"chain", chain.String())

	c.notify(ctx, c.approvalRequiredMessages(ctx, req, req.CurrentStep, c.strategy.summary(payload)))
	return req, nil
}

// Decide records a verdict for the request's current step. The write is a
// compare-and-swap on (current step, version), so of two concurrent decisions
// on the same step exactly one succeeds.
func (c *Coordinator[P]) Decide(ctx context.Context, in DecideInput) (*Request, error) {
	if !in.Decision.IsVerdict() {
		return nil, approval.ErrInvalidDecision.WithMessage(fmt.Sprintf("decision must be APPROVED, REJECTED or DELAYED, got %q", in.Decision))
	}
	if !in.Step.IsActionable() {
		return nil, approval.ErrUnknownStep.WithMessage(fmt.Sprintf("step %q cannot be decided", in.Step))
	}
	if in.Decision == approval.DecisionDelayed && !c.strategy.AllowsDelay(in.Step) {
		return nil, ErrDelayNotAllowed
	}
	if in.ApprovedAmount != nil && *in.ApprovedAmount <= 0 {
		return nil, ErrApprovedAmountBad
	}

	req, err := c.repo.GetByID(ctx, in.CompanyID, c.strategy.Kind, in.RequestID)
	if err != nil {
		return nil, err
	}

	if req.Status == StatusCancelled {
		c.logger.Warn("decision on cancelled request", "request_id", req.ID, "approver_id", in.ActorID, "step", in.Step)
		return nil, ErrRequestClosed
	}
	if req.CurrentStep != in.Step {
		c.logger.Warn("decision does not match current step",
			"request_id", req.ID,
			"approver_id", in.ActorID,
			"step", in.Step,
			"current_step", req.CurrentStep)
		return nil, ErrStepMismatch.WithMessage(fmt.Sprintf("request is at %s, not %s", req.CurrentStep, in.Step))
	}

	if err := c.authorizeStep(ctx, req, in.ActorID, in.Step); err != nil {
		return nil, err
	}

	updated, err := c.transition(req, in)
	if err != nil {
		return nil, err
	}

	entry := &LogEntry{
		ID:        uuid.NewString(),
		CompanyID: req.CompanyID,
		Kind:      req.Kind,
		RequestID: req.ID,
		Step:      in.Step,
		Decision:  in.Decision,
		Notes:     in.Notes,
		ByUserID:  in.ActorID,
		CreatedAt: updated.UpdatedAt,
	}

	err = c.repo.Transact(ctx, func(tx Tx) error {
		if err := tx.CompareAndSwap(ctx, updated, req.CurrentStep, req.Version); err != nil {
			return err
		}
		if err := tx.AppendLog(ctx, entry); err != nil {
			return err
		}
		if updated.Status == StatusApproved && c.strategy.OnComplete != nil {
			return c.strategy.OnComplete(ctx, tx, updated, in.ActorID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConcurrentUpdate) {
			c.logger.Warn("concurrent decision lost", "request_id", req.ID, "approver_id", in.ActorID, "step", in.Step)
		} else {
			c.logger.Error("failed to store decision", "request_id", req.ID, "approver_id", in.ActorID, "step", in.Step, "error", err)
		}
		return nil, err
	}

	c.logger.Info("request decided",
		"request_id", req.ID,
		"approver_id", in.ActorID,
		"step", in.Step,
		"decision", in.Decision,
		"status", updated.Status,
		"current_step", updated.CurrentStep)

	messages := decisionMessages(c.strategy.Label, updated, in)
	if updated.CurrentStep != in.Step && updated.CurrentStep.IsActionable() {
		messages = append(messages, c.approvalRequiredMessages(ctx, updated, updated.CurrentStep, c.summaryOf(updated))...)
	}
	c.notify(ctx, messages)

	return updated, nil
}

// transition computes the request after in was applied. req is left untouched.
func (c *Coordinator[P]) transition(req *Request, in DecideInput) (*Request, error) {
	now := c.now()
	updated := req.Clone()
	updated.Decisions[in.Step] = &StepDecision{
		Decision:   in.Decision,
		ApproverID: in.ActorID,
		DecidedAt:  &now,
		Notes:      in.Notes,
	}
	updated.Version = req.Version + 1
	updated.UpdatedAt = now

	switch in.Decision {
	case approval.DecisionApproved:
		next, err := req.Chain.Next(in.Step)
		if err != nil {
			return nil, err
		}
		if err := req.Chain.ValidateTransition(in.Step, next); err != nil {
			return nil, err
		}
		updated.CurrentStep = next
		if next == approval.StepCompleted {
			updated.Status = StatusApproved
		} else {
			updated.Status = StepApprovedStatus(in.Step)
		}
		if in.ApprovedAmount != nil {
			updated.ApprovedAmount = in.ApprovedAmount
		}
		if in.ApprovedMonthlyDeduction != nil {
			updated.ApprovedMonthlyDeduction = in.ApprovedMonthlyDeduction
		}
	case approval.DecisionRejected:
		if err := req.Chain.ValidateTransition(in.Step, approval.StepCompleted); err != nil {
			return nil, err
		}
		updated.CurrentStep = approval.StepCompleted
		updated.Status = StatusRejected
	case approval.DecisionDelayed:
		updated.Status = StatusDelayed
		updated.DelayCount = req.DelayCount + 1
	}
	return updated, nil
}

// authorizeStep lets the recorded manager decide the MANAGER step; everyone
// else needs the step's permission with a scope covering the requester.
func (c *Coordinator[P]) authorizeStep(ctx context.Context, req *Request, actorID string, step approval.Step) error {
	if step == approval.StepManager && req.ManagerApproverID != nil && *req.ManagerApproverID == actorID {
		return nil
	}

	code := c.strategy.PermissionCode(step)
	access, err := c.authz.CanAccessEmployee(ctx, actorID, req.CompanyID, code, req.SubjectID)
	if err != nil {
		return err
	}
	if !access.HasAccess {
		c.logger.Warn("approver not allowed to decide step",
			"request_id", req.ID,
			"approver_id", actorID,
			"step", step,
			"permission_code", code,
			"reason", access.Reason)
		return ErrNotStepApprover
	}
	return nil
}

// Cancel withdraws a request. Only the requester can do it, and only while
// the first step is still undecided.
func (c *Coordinator[P]) Cancel(ctx context.Context, companyID, requestID, actorID string) (*Request, error) {
	req, err := c.repo.GetByID(ctx, companyID, c.strategy.Kind, requestID)
	if err != nil {
		return nil, err
	}
	if req.SubjectID != actorID {
		c.logger.Warn("cancel by non owner", "request_id", requestID, "user_id", actorID)
		return nil, ErrNotRequestOwner
	}
	if req.IsClosed() {
		return nil, ErrRequestClosed
	}
	if req.CurrentStep != req.Chain.First() || req.HasDecisions() {
		return nil, ErrCannotCancel
	}

	updated := req.Clone()
	updated.Status = StatusCancelled
	updated.CurrentStep = approval.StepCompleted
	updated.Version = req.Version + 1
	updated.UpdatedAt = c.now()

	err = c.repo.Transact(ctx, func(tx Tx) error {
		return tx.CompareAndSwap(ctx, updated, req.CurrentStep, req.Version)
	})
	if err != nil {
		c.logger.Error("failed to cancel request", "request_id", requestID, "error", err)
		return nil, err
	}

	c.logger.Info("request cancelled", "request_id", requestID, "user_id", actorID)

	var messages []notification.Message
	for _, recipient := range c.approversForStep(ctx, req, req.CurrentStep) {
		messages = append(messages, notification.Message{
			RecipientID: recipient,
			Kind:        notification.KindRequestCancelled,
			Title:       fmt.Sprintf("%s request withdrawn", titleCase(c.strategy.Label)),
			Body:        fmt.Sprintf("The %s request waiting for your %s approval was cancelled by the requester", c.strategy.Label, req.CurrentStep),
			Metadata:    metadata(req, req.CurrentStep),
		})
	}
	c.notify(ctx, messages)

	return updated, nil
}

// GetInbox lists requests waiting at step for employees the approver may act
// on. At the MANAGER step it also returns requests that recorded the approver
// as manager.
func (c *Coordinator[P]) GetInbox(ctx context.Context, companyID, approverID string, step approval.Step, page Page) ([]*Request, error) {
	if !step.IsActionable() {
		return nil, approval.ErrUnknownStep.WithMessage(fmt.Sprintf("step %q has no inbox", step))
	}

	accessible, err := c.authz.GetAccessibleEmployeeIDs(ctx, approverID, companyID, c.strategy.PermissionCode(step))
	if err != nil {
		return nil, err
	}

	filter := PendingFilter{
		CompanyID:  companyID,
		Kind:       c.strategy.Kind,
		Step:       step,
		SubjectIDs: accessible.Slice(),
		Page:       page.Normalize(),
	}
	if step == approval.StepManager {
		filter.ManagerApproverID = approverID
	}
	if len(filter.SubjectIDs) == 0 && filter.ManagerApproverID == "" {
		return []*Request{}, nil
	}

	requests, err := c.repo.ListPending(ctx, filter)
	if err != nil {
		c.logger.Error("failed to list inbox", "approver_id", approverID, "step", step, "error", err)
		return nil, err
	}
	return requests, nil
}

// Get returns a request to its owner, its recorded manager, anyone whose
// view permission covers the owner, or an approver of its current step.
func (c *Coordinator[P]) Get(ctx context.Context, companyID, actorID, requestID string) (*Request, error) {
	req, err := c.repo.GetByID(ctx, companyID, c.strategy.Kind, requestID)
	if err != nil {
		return nil, err
	}
	if err := c.authorizeRead(ctx, req, actorID); err != nil {
		return nil, err
	}
	return req, nil
}

func (c *Coordinator[P]) authorizeRead(ctx context.Context, req *Request, actorID string) error {
	if req.SubjectID == actorID {
		return nil
	}
	if req.ManagerApproverID != nil && *req.ManagerApproverID == actorID {
		return nil
	}

	codes := []permission.Code{c.strategy.ViewCode()}
	if req.CurrentStep.IsActionable() {
		codes = append(codes, c.strategy.PermissionCode(req.CurrentStep))
	}
	for _, code := range codes {
		access, err := c.authz.CanAccessEmployee(ctx, actorID, req.CompanyID, code, req.SubjectID)
		if err != nil {
			return err
		}
		if access.HasAccess {
			return nil
		}
	}

	c.logger.Warn("request read denied", "request_id", req.ID, "user_id", actorID)
	return ErrRequestHidden
}

func (c *Coordinator[P]) ListMine(ctx context.Context, companyID, userID string, page Page) ([]*Request, error) {
	return c.repo.ListBySubject(ctx, companyID, c.strategy.Kind, userID, page.Normalize())
}

// ListBySubject returns an employee's requests of this kind, newest first, so
// an approver can see earlier requests while deciding. The actor needs the
// view permission or one of the kind's approve permissions covering the
// employee.
func (c *Coordinator[P]) ListBySubject(ctx context.Context, companyID, actorID, subjectID string, page Page) ([]*Request, error) {
	if actorID != subjectID {
		codes := []permission.Code{c.strategy.ViewCode()}
		for _, step := range approval.ActionableSteps {
			codes = append(codes, c.strategy.PermissionCode(step))
		}
		allowed := false
		for _, code := range codes {
			access, err := c.authz.CanAccessEmployee(ctx, actorID, companyID, code, subjectID)
			if err != nil {
				return nil, err
			}
			if access.HasAccess {
				allowed = true
				break
			}
		}
		if !allowed {
			c.logger.Warn("employee request history denied", "approver_id", actorID, "user_id", subjectID)
			return nil, ErrRequestHidden.WithMessage("not allowed to view this employee's requests")
		}
	}
	return c.repo.ListBySubject(ctx, companyID, c.strategy.Kind, subjectID, page.Normalize())
}

// Stats counts the company's requests by status. It needs the kind's view
// permission with any scope.
func (c *Coordinator[P]) Stats(ctx context.Context, companyID, actorID string) (*Stats, error) {
	ok, err := c.authz.HasPermission(ctx, actorID, companyID, c.strategy.ViewCode())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRequestHidden.WithMessage("viewing request statistics needs " + string(c.strategy.ViewCode()))
	}

	counts, err := c.repo.CountByStatus(ctx, companyID, c.strategy.Kind)
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByStatus: make(map[Status]int64, len(AllStatuses))}
	for _, s := range AllStatuses {
		stats.ByStatus[s] = counts[s]
		stats.Total += counts[s]
	}
	return stats, nil
}

func (c *Coordinator[P]) History(ctx context.Context, companyID, actorID, requestID string) ([]*LogEntry, error) {
	if _, err := c.Get(ctx, companyID, actorID, requestID); err != nil {
		return nil, err
	}
	return c.repo.History(ctx, companyID, c.strategy.Kind, requestID)
}

// DecodePayload returns the kind-specific body of req.
func (c *Coordinator[P]) DecodePayload(req *Request) (P, error) {
	var p P
	if err := json.Unmarshal(req.Payload, &p); err != nil {
		return p, ErrInvalidPayload.WithCause(err)
	}
	return p, nil
}

func (c *Coordinator[P]) summaryOf(req *Request) string {
	p, err := c.DecodePayload(req)
	if err != nil {
		return c.strategy.Label + " request"
	}
	return c.strategy.summary(p)
}

// approversForStep returns who can decide step for the request. Lookup
// failures only shrink the list.
func (c *Coordinator[P]) approversForStep(ctx context.Context, req *Request, step approval.Step) []string {
	recipients := map[string]bool{}
	if step == approval.StepManager && req.ManagerApproverID != nil {
		recipients[*req.ManagerApproverID] = true
	}

	holders, err := c.authz.ApproversFor(ctx, req.CompanyID, c.strategy.PermissionCode(step), req.SubjectID)
	if err != nil {
		c.logger.Error("failed to resolve approvers", "request_id", req.ID, "step", step, "error", err)
	}
	for _, h := range holders {
		recipients[h] = true
	}

	ids := make([]string, 0, len(recipients))
	for id := range recipients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Coordinator[P]) approvalRequiredMessages(ctx context.Context, req *Request, step approval.Step, summary string) []notification.Message {
	approvers := c.approversForStep(ctx, req, step)
	messages := make([]notification.Message, 0, len(approvers))
	for _, approver := range approvers {
		messages = append(messages, notification.Message{
			RecipientID: approver,
			Kind:        notification.KindApprovalRequired,
			Title:       fmt.Sprintf("%s request waiting for your approval", titleCase(c.strategy.Label)),
			Body:        fmt.Sprintf("%s needs %s approval", summary, step),
			Metadata:    metadata(req, step),
		})
	}
	return messages
}

func (c *Coordinator[P]) notify(ctx context.Context, messages []notification.Message) {
	if c.notifier == nil || len(messages) == 0 {
		return
	}
	if failed := c.notifier.Dispatch(ctx, messages); failed > 0 {
		c.logger.Warn("some notifications were not sent", "failed", failed, "total", len(messages))
	}
}

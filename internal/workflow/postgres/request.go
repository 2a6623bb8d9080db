package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/frahmantamala/hr-approvals/internal/approval"
	employeeDatamodel "github.com/frahmantamala/hr-approvals/internal/core/datamodel/employee"
	requestDatamodel "github.com/frahmantamala/hr-approvals/internal/core/datamodel/request"
	"github.com/frahmantamala/hr-approvals/internal/workflow"
)

// RequestRepository implements workflow.Repository using GORM. Requests of
// every kind share one table.
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) workflow.Repository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, req *workflow.Request) error {
	return r.db.WithContext(ctx).Create(toRequestRow(req)).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, companyID string, kind approval.RequestType, id string) (*workflow.Request, error) {
	var row requestDatamodel.Request
	err := r.db.WithContext(ctx).
		Preload("Steps", orderSteps).
		Where("id = ? AND company_id = ? AND kind = ?", id, companyID, string(kind)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrRequestNotFound
		}
		return nil, err
	}
	return fromRequestRow(&row)
}

func (r *RequestRepository) ListPending(ctx context.Context, filter workflow.PendingFilter) ([]*workflow.Request, error) {
	query := r.db.WithContext(ctx).
		Preload("Steps", orderSteps).
		Where("company_id = ? AND kind = ? AND current_step = ? AND status <> ?",
			filter.CompanyID, string(filter.Kind), string(filter.Step), string(workflow.StatusCancelled))

	switch {
	case len(filter.SubjectIDs) > 0 && filter.ManagerApproverID != "":
		query = query.Where("(user_id IN ? OR manager_approver_id = ?)", filter.SubjectIDs, filter.ManagerApproverID)
	case len(filter.SubjectIDs) > 0:
		query = query.Where("user_id IN ?", filter.SubjectIDs)
	case filter.ManagerApproverID != "":
		query = query.Where("manager_approver_id = ?", filter.ManagerApproverID)
	default:
		return []*workflow.Request{}, nil
	}

	page := filter.Page.Normalize()
	var rows []requestDatamodel.Request
	err := query.
		Order("created_at ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromRequestRows(rows)
}

func (r *RequestRepository) ListBySubject(ctx context.Context, companyID string, kind approval.RequestType, subjectID string, page workflow.Page) ([]*workflow.Request, error) {
	page = page.Normalize()
	var rows []requestDatamodel.Request
	err := r.db.WithContext(ctx).
		Preload("Steps", orderSteps).
		Where("company_id = ? AND kind = ? AND user_id = ?", companyID, string(kind), subjectID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromRequestRows(rows)
}

func (r *RequestRepository) CountByStatus(ctx context.Context, companyID string, kind approval.RequestType) (map[workflow.Status]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&requestDatamodel.Request{}).
		Select("status, COUNT(*) AS total").
		Where("company_id = ? AND kind = ?", companyID, string(kind)).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[workflow.Status]int64, len(rows))
	for _, row := range rows {
		counts[workflow.Status(row.Status)] = row.Total
	}
	return counts, nil
}

func (r *RequestRepository) History(ctx context.Context, companyID string, kind approval.RequestType, requestID string) ([]*workflow.LogEntry, error) {
	var rows []requestDatamodel.ApprovalLog
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND kind = ? AND request_id = ?", companyID, string(kind), requestID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*workflow.LogEntry, len(rows))
	for i := range rows {
		entries[i] = fromLogRow(&rows[i])
	}
	return entries, nil
}

func (r *RequestRepository) Transact(ctx context.Context, fn func(tx workflow.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&requestTx{db: tx})
	})
}

type requestTx struct {
	db *gorm.DB
}

// CompareAndSwap writes req only if the stored row still sits at
// expectedStep with expectedVersion.
func (t *requestTx) CompareAndSwap(ctx context.Context, req *workflow.Request, expectedStep approval.Step, expectedVersion int) error {
	res := t.db.WithContext(ctx).
		Model(&requestDatamodel.Request{}).
		Where("id = ? AND company_id = ? AND current_step = ? AND version = ?",
			req.ID, req.CompanyID, string(expectedStep), expectedVersion).
		Updates(map[string]interface{}{
			"current_step":               string(req.CurrentStep),
			"status":                     string(req.Status),
			"approved_amount":            req.ApprovedAmount,
			"approved_monthly_deduction": req.ApprovedMonthlyDeduction,
			"delay_count":                req.DelayCount,
			"version":                    req.Version,
			"updated_at":                 req.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return workflow.ErrConcurrentUpdate
	}

	for step, d := range req.Decisions {
		if d == nil {
			continue
		}
		err := t.db.WithContext(ctx).
			Model(&requestDatamodel.StepDecision{}).
			Where("request_id = ? AND step = ?", req.ID, string(step)).
			Updates(map[string]interface{}{
				"decision":    string(d.Decision),
				"approver_id": nullableString(d.ApproverID),
				"decided_at":  d.DecidedAt,
				"notes":       d.Notes,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *requestTx) AppendLog(ctx context.Context, entry *workflow.LogEntry) error {
	return t.db.WithContext(ctx).Create(&requestDatamodel.ApprovalLog{
		ID:        entry.ID,
		CompanyID: entry.CompanyID,
		Kind:      string(entry.Kind),
		RequestID: entry.RequestID,
		Step:      string(entry.Step),
		Decision:  string(entry.Decision),
		Notes:     entry.Notes,
		ByUserID:  entry.ByUserID,
		CreatedAt: entry.CreatedAt,
	}).Error
}

// ApplyRaise flips applied_to_salary and moves the active baseline in the
// same transaction. A request that was already applied returns nil, nil.
func (t *requestTx) ApplyRaise(ctx context.Context, req *workflow.Request, amount int64, changedBy string) (*workflow.SalaryChange, error) {
	res := t.db.WithContext(ctx).
		Model(&requestDatamodel.Request{}).
		Where("id = ? AND company_id = ? AND applied_to_salary = ?", req.ID, req.CompanyID, false).
		Update("applied_to_salary", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	var baseline employeeDatamodel.SalaryBaseline
	err := t.db.WithContext(ctx).
		Where("company_id = ? AND employee_id = ? AND is_active = ?", req.CompanyID, req.SubjectID, true).
		Order("created_at DESC").
		First(&baseline).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrSalaryNotFound
		}
		return nil, err
	}

	newSalary := baseline.BaseSalary + amount
	if err := t.db.WithContext(ctx).
		Model(&employeeDatamodel.SalaryBaseline{}).
		Where("id = ?", baseline.ID).
		Update("base_salary", newSalary).Error; err != nil {
		return nil, err
	}

	change := &employeeDatamodel.SalaryChange{
		ID:         uuid.NewString(),
		CompanyID:  req.CompanyID,
		EmployeeID: req.SubjectID,
		BaselineID: baseline.ID,
		RequestID:  req.ID,
		OldSalary:  baseline.BaseSalary,
		NewSalary:  newSalary,
		ChangedBy:  changedBy,
		Reason:     "raise approved",
		CreatedAt:  time.Now(),
	}
	if err := t.db.WithContext(ctx).Create(change).Error; err != nil {
		return nil, err
	}

	return &workflow.SalaryChange{
		ID:         change.ID,
		CompanyID:  change.CompanyID,
		EmployeeID: change.EmployeeID,
		RequestID:  change.RequestID,
		OldAmount:  change.OldSalary,
		NewAmount:  change.NewSalary,
		ChangedBy:  change.ChangedBy,
		CreatedAt:  change.CreatedAt,
	}, nil
}

func orderSteps(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toRequestRow(req *workflow.Request) *requestDatamodel.Request {
	row := &requestDatamodel.Request{
		ID:                       req.ID,
		CompanyID:                req.CompanyID,
		Kind:                     string(req.Kind),
		UserID:                   req.SubjectID,
		ManagerApproverID:        req.ManagerApproverID,
		ApprovalChain:            req.Chain.String(),
		CurrentStep:              string(req.CurrentStep),
		Status:                   string(req.Status),
		Amount:                   req.Amount,
		ApprovedAmount:           req.ApprovedAmount,
		ApprovedMonthlyDeduction: req.ApprovedMonthlyDeduction,
		Payload:                  datatypes.JSON(req.Payload),
		AppliedToSalary:          req.AppliedToSalary,
		DelayCount:               req.DelayCount,
		Version:                  req.Version,
		CreatedAt:                req.CreatedAt,
		UpdatedAt:                req.UpdatedAt,
	}

	for i, step := range req.Chain.Base() {
		decision := approval.DecisionPending
		var s requestDatamodel.StepDecision
		if d, ok := req.Decisions[step]; ok && d != nil {
			decision = d.Decision
			s.ApproverID = nullableString(d.ApproverID)
			s.DecidedAt = d.DecidedAt
			s.Notes = d.Notes
		}
		s.RequestID = req.ID
		s.Step = string(step)
		s.Position = i
		s.Decision = string(decision)
		row.Steps = append(row.Steps, s)
	}
	return row
}

// fromRequestRow validates the stored chain before handing the request out.
func fromRequestRow(row *requestDatamodel.Request) (*workflow.Request, error) {
	chain, err := approval.ParseChain(row.ApprovalChain)
	if err != nil {
		return nil, err
	}
	currentStep, err := approval.ParseStep(row.CurrentStep)
	if err != nil {
		return nil, err
	}

	req := &workflow.Request{
		ID:                       row.ID,
		CompanyID:                row.CompanyID,
		Kind:                     approval.RequestType(row.Kind),
		SubjectID:                row.UserID,
		ManagerApproverID:        row.ManagerApproverID,
		Chain:                    chain,
		CurrentStep:              currentStep,
		Status:                   workflow.Status(row.Status),
		Decisions:                make(map[approval.Step]*workflow.StepDecision, len(row.Steps)),
		Amount:                   row.Amount,
		ApprovedAmount:           row.ApprovedAmount,
		ApprovedMonthlyDeduction: row.ApprovedMonthlyDeduction,
		Payload:                  []byte(row.Payload),
		AppliedToSalary:          row.AppliedToSalary,
		DelayCount:               row.DelayCount,
		Version:                  row.Version,
		CreatedAt:                row.CreatedAt,
		UpdatedAt:                row.UpdatedAt,
	}
	for _, s := range row.Steps {
		d := &workflow.StepDecision{
			Decision:  approval.Decision(s.Decision),
			DecidedAt: s.DecidedAt,
			Notes:     s.Notes,
		}
		if s.ApproverID != nil {
			d.ApproverID = *s.ApproverID
		}
		req.Decisions[approval.Step(s.Step)] = d
	}
	return req, nil
}

func fromRequestRows(rows []requestDatamodel.Request) ([]*workflow.Request, error) {
	result := make([]*workflow.Request, 0, len(rows))
	for i := range rows {
		req, err := fromRequestRow(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, nil
}

func fromLogRow(row *requestDatamodel.ApprovalLog) *workflow.LogEntry {
	return &workflow.LogEntry{
		ID:        row.ID,
		CompanyID: row.CompanyID,
		Kind:      approval.RequestType(row.Kind),
		RequestID: row.RequestID,
		Step:      approval.Step(row.Step),
		Decision:  approval.Decision(row.Decision),
		Notes:     row.Notes,
		ByUserID:  row.ByUserID,
		CreatedAt: row.CreatedAt,
	}
}

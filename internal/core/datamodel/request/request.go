package request

import (
	"time"

	"gorm.io/datatypes"
)

// Request is one approvable request of any kind. ApprovalChain holds the
// comma separated steps including the COMPLETED sentinel.
type Request struct {
	ID                       string         `gorm:"primaryKey;size:36"`
	CompanyID                string         `gorm:"column:company_id;size:36;not null;index:idx_requests_inbox"`
	Kind                     string         `gorm:"column:kind;size:16;not null;index:idx_requests_inbox"`
	UserID                   string         `gorm:"column:user_id;size:36;not null;index"`
	ManagerApproverID        *string        `gorm:"column:manager_approver_id;size:36;index"`
	ApprovalChain            string         `gorm:"column:approval_chain;not null"`
	CurrentStep              string         `gorm:"column:current_step;size:16;not null;index:idx_requests_inbox"`
	Status                   string         `gorm:"column:status;size:32;not null"`
	Amount                   *int64         `gorm:"column:amount"`
	ApprovedAmount           *int64         `gorm:"column:approved_amount"`
	ApprovedMonthlyDeduction *int64         `gorm:"column:approved_monthly_deduction"`
	Payload                  datatypes.JSON `gorm:"column:payload"`
	AppliedToSalary          bool           `gorm:"column:applied_to_salary;not null;default:false"`
	DelayCount               int            `gorm:"column:delay_count;not null;default:0"`
	Version                  int            `gorm:"column:version;not null;default:1"`
	CreatedAt                time.Time      `gorm:"column:created_at"`
	UpdatedAt                time.Time      `gorm:"column:updated_at"`
	Steps                    []StepDecision `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

func (Request) TableName() string {
	return "approval_requests"
}

// StepDecision is the decision row of one actionable step of a request.
type StepDecision struct {
	RequestID  string     `gorm:"primaryKey;column:request_id;size:36"`
	Step       string     `gorm:"primaryKey;column:step;size:16"`
	Position   int        `gorm:"column:position;not null"`
	Decision   string     `gorm:"column:decision;size:16;not null"`
	ApproverID *string    `gorm:"column:approver_id;size:36"`
	DecidedAt  *time.Time `gorm:"column:decided_at"`
	Notes      string     `gorm:"column:notes"`
}

func (StepDecision) TableName() string {
	return "approval_request_steps"
}

type ApprovalLog struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CompanyID string    `gorm:"column:company_id;size:36;not null"`
	Kind      string    `gorm:"column:kind;size:16;not null"`
	RequestID string    `gorm:"column:request_id;size:36;not null;index"`
	Step      string    `gorm:"column:step;size:16;not null"`
	Decision  string    `gorm:"column:decision;size:16;not null"`
	Notes     string    `gorm:"column:notes"`
	ByUserID  string    `gorm:"column:by_user_id;size:36;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (ApprovalLog) TableName() string {
	return "approval_logs"
}

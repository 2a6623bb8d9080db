package advance

import (
	"encoding/json"
	"fmt"
	"time"

	errors "github.com/frahmantamala/hr-approvals/internal"
	"github.com/frahmantamala/hr-approvals/internal/approval"
	"github.com/frahmantamala/hr-approvals/internal/core/common/validation"
	"github.com/frahmantamala/hr-approvals/internal/permission"
	"github.com/frahmantamala/hr-approvals/internal/workflow"
)

type Type string

const (
	TypeSalaryAdvance    Type = "SALARY_ADVANCE"
	TypeEmergencyAdvance Type = "EMERGENCY_ADVANCE"
	TypeHousingAdvance   Type = "HOUSING_ADVANCE"
)

var Types = []string{string(TypeSalaryAdvance), string(TypeEmergencyAdvance), string(TypeHousingAdvance)}

const (
	MaxAmount       = 1_000_000_000
	MaxPeriodMonths = 60
)

// Payload is an advance request body. Amounts are in the smallest currency unit.
type Payload struct {
	Type             Type      `json:"type"`
	Amount           int64     `json:"amount"`
	PeriodMonths     int       `json:"period_months"`
	MonthlyDeduction int64     `json:"monthly_deduction"`
	StartDate        time.Time `json:"start_date"`
	Notes            string    `json:"notes,omitempty"`
}

// UnmarshalJSON defaults the type to SALARY_ADVANCE.
func (p *Payload) UnmarshalJSON(data []byte) error {
	type alias Payload
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Type == "" {
		a.Type = TypeSalaryAdvance
	}
	*p = Payload(a)
	return nil
}

func (p Payload) Validate() error {
	v := validation.NewValidator()
	v.Field("type", string(p.Type)).Required().OneOf(Types, errors.ErrCodeInvalidType)
	v.Field("amount", p.Amount).Required().MinInt(1, errors.ErrCodeInvalidAmount).MaxInt(MaxAmount, errors.ErrCodeInvalidAmount)
	v.Field("period_months", p.PeriodMonths).Required().MinInt(1, errors.ErrCodeValidationFailed).MaxInt(MaxPeriodMonths, errors.ErrCodeValidationFailed)
	v.Field("monthly_deduction", p.MonthlyDeduction).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	v.Field("start_date", p.StartDate).Required()
	v.Field("notes", p.Notes).MaxLength(1000)
	v.Field("monthly_deduction", p.MonthlyDeduction).Custom(func(interface{}) *errors.AppError {
		if p.MonthlyDeduction > 0 && p.PeriodMonths > 0 && p.MonthlyDeduction*int64(p.PeriodMonths) < p.Amount {
			return errors.NewValidationFieldError("monthly_deduction", "monthly deduction over the period does not cover the amount", errors.ErrCodeInvalidAmount)
		}
		return nil
	})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (p Payload) ApprovalContext() approval.Context {
	amount := p.Amount
	return approval.Context{Amount: &amount}
}

func summary(p Payload) string {
	return fmt.Sprintf("%s of %d over %d months", p.Type, p.Amount, p.PeriodMonths)
}

func NewStrategy() workflow.Strategy[Payload] {
	return workflow.Strategy[Payload]{
		Kind:    approval.RequestTypeAdvance,
		Module:  permission.ModuleAdvances,
		Label:   "advance",
		Summary: summary,
	}
}

func NewCoordinator(deps workflow.Deps) *workflow.Coordinator[Payload] {
	return workflow.NewCoordinator(NewStrategy(), deps)
}

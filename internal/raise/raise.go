package raise

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/hr-approvals/internal"
	"github.com/frahmantamala/hr-approvals/internal/approval"
	"github.com/frahmantamala/hr-approvals/internal/core/common/validation"
	"github.com/frahmantamala/hr-approvals/internal/permission"
	"github.com/frahmantamala/hr-approvals/internal/workflow"
)

type Type string

const (
	TypeAnnualIncrement  Type = "ANNUAL_INCREMENT"
	TypePromotion        Type = "PROMOTION"
	TypePerformance      Type = "PERFORMANCE"
	TypeCostOfLiving     Type = "COST_OF_LIVING"
	TypeMarketAdjustment Type = "MARKET_ADJUSTMENT"
)

var Types = []string{
	string(TypeAnnualIncrement),
	string(TypePromotion),
	string(TypePerformance),
	string(TypeCostOfLiving),
	string(TypeMarketAdjustment),
}

const (
	MaxAmount   = 100_000_000
	monthLayout = "2006-01"
)

// Payload is a raise request body. Amount is the monthly increase added to
// the salary baseline once the request is approved.
type Payload struct {
	Type           Type   `json:"type"`
	Amount         int64  `json:"amount"`
	EffectiveMonth string `json:"effective_month"`
	Notes          string `json:"notes,omitempty"`
}

func (p Payload) Validate() error {
	v := validation.NewValidator()
	v.Field("type", string(p.Type)).Required().OneOf(Types, errors.ErrCodeInvalidType)
	v.Field("amount", p.Amount).Required().MinInt(1, errors.ErrCodeInvalidAmount).MaxInt(MaxAmount, errors.ErrCodeInvalidAmount)
	v.Field("effective_month", p.EffectiveMonth).Required().Custom(func(value interface{}) *errors.AppError {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if _, err := time.Parse(monthLayout, s); err != nil {
			return errors.NewValidationFieldError("effective_month", "effective month must look like 2026-01", errors.ErrCodeInvalidDate)
		}
		return nil
	})
	v.Field("notes", p.Notes).MaxLength(1000)
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
	return fmt.Sprintf("%s raise of %d from %s", p.Type, p.Amount, p.EffectiveMonth)
}

// ApplyToSalary adds the approved amount, or the requested one, to the
// requester's salary baseline inside the approving transaction.
func ApplyToSalary(logger *slog.Logger) workflow.CompletionHook {
	return func(ctx context.Context, tx workflow.Tx, req *workflow.Request, actorID string) error {
		amount := req.EffectiveAmount()
		if amount == nil {
			return workflow.ErrAmountRequired
		}

		change, err := tx.ApplyRaise(ctx, req, *amount, actorID)
		if err != nil {
			return err
		}
		req.AppliedToSalary = true

		if change == nil {
			logger.Warn("raise was already applied to salary", "request_id", req.ID, "user_id", req.SubjectID)
			return nil
		}
		logger.Info("raise applied to salary",
			"request_id", req.ID,
			"user_id", req.SubjectID,
			"old_amount", change.OldAmount,
			"new_amount", change.NewAmount,
			"changed_by", actorID)
		return nil
	}
}

func NewStrategy(logger *slog.Logger) workflow.Strategy[Payload] {
	return workflow.Strategy[Payload]{
		Kind:       approval.RequestTypeRaise,
		Module:     permission.ModuleRaises,
		Label:      "raise",
		Summary:    summary,
		OnComplete: ApplyToSalary(logger),
	}
}

func NewCoordinator(deps workflow.Deps) *workflow.Coordinator[Payload] {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return workflow.NewCoordinator(NewStrategy(logger), deps)
}

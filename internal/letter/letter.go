package letter

import (
	"fmt"

	errors "github.com/frahmantamala/hr-approvals/internal"
	"github.com/frahmantamala/hr-approvals/internal/approval"
	"github.com/frahmantamala/hr-approvals/internal/core/common/validation"
	"github.com/frahmantamala/hr-approvals/internal/permission"
	"github.com/frahmantamala/hr-approvals/internal/workflow"
)

type Type string

const (
	TypeSalaryDefinition         Type = "SALARY_DEFINITION"
	TypeServiceConfirmation      Type = "SERVICE_CONFIRMATION"
	TypeSalaryAdjustment         Type = "SALARY_ADJUSTMENT"
	TypePromotion                Type = "PROMOTION"
	TypeTransferAssignment       Type = "TRANSFER_ASSIGNMENT"
	TypeResignation              Type = "RESIGNATION"
	TypeTermination              Type = "TERMINATION"
	TypeClearance                Type = "CLEARANCE"
	TypeExperience               Type = "EXPERIENCE"
	TypeSalaryDefinitionDirected Type = "SALARY_DEFINITION_DIRECTED"
	TypeNOC                      Type = "NOC"
	TypeDelegation               Type = "DELEGATION"
)

var Types = []string{
	string(TypeSalaryDefinition),
	string(TypeServiceConfirmation),
	string(TypeSalaryAdjustment),
	string(TypePromotion),
	string(TypeTransferAssignment),
	string(TypeResignation),
	string(TypeTermination),
	string(TypeClearance),
	string(TypeExperience),
	string(TypeSalaryDefinitionDirected),
	string(TypeNOC),
	string(TypeDelegation),
}

// Payload is a letter request body. DirectedTo names the addressee of a
// directed salary definition and is required for that type only.
type Payload struct {
	LetterType Type   `json:"letter_type"`
	DirectedTo string `json:"directed_to,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func (p Payload) Validate() error {
	v := validation.NewValidator()
	v.Field("letter_type", string(p.LetterType)).Required().OneOf(Types, errors.ErrCodeInvalidType)
	if p.LetterType == TypeSalaryDefinitionDirected {
		v.Field("directed_to", p.DirectedTo).Required().MaxLength(200)
	}
	v.Field("notes", p.Notes).MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ApprovalContext carries no amount: letters never escalate.
func (p Payload) ApprovalContext() approval.Context {
	return approval.Context{}
}

func summary(p Payload) string {
	if p.DirectedTo != "" {
		return fmt.Sprintf("%s letter to %s", p.LetterType, p.DirectedTo)
	}
	return fmt.Sprintf("%s letter", p.LetterType)
}

func NewStrategy() workflow.Strategy[Payload] {
	return workflow.Strategy[Payload]{
		Kind:    approval.RequestTypeLetter,
		Module:  permission.ModuleLetters,
		Label:   "letter",
		Summary: summary,
	}
}

func NewCoordinator(deps workflow.Deps) *workflow.Coordinator[Payload] {
	return workflow.NewCoordinator(NewStrategy(), deps)
}

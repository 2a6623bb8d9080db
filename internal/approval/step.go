package approval

import (
	"fmt"
	"strings"
)

// Step is one stage of an approval chain. COMPLETED is the terminal sentinel
// and is never decided on.
type Step string

const (
	StepManager   Step = "MANAGER"
	StepHR        Step = "HR"
	StepFinance   Step = "FINANCE"
	StepCEO       Step = "CEO"
	StepCompleted Step = "COMPLETED"
)

var validSteps = map[Step]bool{
	StepManager:   true,
	StepHR:        true,
	StepFinance:   true,
	StepCEO:       true,
	StepCompleted: true,
}

// ActionableSteps lists the steps a person can decide on, in their usual order.
var ActionableSteps = []Step{StepManager, StepHR, StepFinance, StepCEO}

func (s Step) IsValid() bool {
	return validSteps[s]
}

func (s Step) IsTerminal() bool {
	return s == StepCompleted
}

// IsActionable reports whether an approver can decide on the step.
func (s Step) IsActionable() bool {
	return s.IsValid() && !s.IsTerminal()
}

func (s Step) String() string {
	return string(s)
}

func ParseStep(raw string) (Step, error) {
	s := Step(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", ErrUnknownStep.WithMessage(fmt.Sprintf("unknown approval step %q", raw))
	}
	return s, nil
}

// Decision is the outcome recorded for a step.
type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
	DecisionDelayed  Decision = "DELAYED"
)

// IsVerdict reports whether an approver may submit the decision.
func (d Decision) IsVerdict() bool {
	switch d {
	case DecisionApproved, DecisionRejected, DecisionDelayed:
		return true
	}
	return false
}

func (d Decision) IsValid() bool {
	return d == DecisionPending || d.IsVerdict()
}

func (d Decision) String() string {
	return string(d)
}

// ParseVerdict parses a decision submitted by an approver. PENDING is not a verdict.
func ParseVerdict(raw string) (Decision, error) {
	d := Decision(strings.ToUpper(strings.TrimSpace(raw)))
	if !d.IsVerdict() {
		return "", ErrInvalidDecision.WithMessage(fmt.Sprintf("decision must be APPROVED, REJECTED or DELAYED, got %q", raw))
	}
	return d, nil
}

// RequestType names the kind of request a chain is planned for.
type RequestType string

const (
	RequestTypeAdvance RequestType = "ADVANCE"
	RequestTypeRaise   RequestType = "RAISE"
	RequestTypeLetter  RequestType = "LETTER"
	RequestTypeLeave   RequestType = "LEAVE"
)

func ParseRequestType(raw string) (RequestType, error) {
	t := RequestType(strings.ToUpper(strings.TrimSpace(raw)))
	if t == "" {
		return "", ErrUnknownRequestType
	}
	return t, nil
}

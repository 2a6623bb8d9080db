package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/frahmantamala/hr-approvals/internal/approval"
	"github.com/frahmantamala/hr-approvals/internal/notification"
)

// decisionMessages is what the requester hears about a decision.
func decisionMessages(label string, req *Request, in DecideInput) []notification.Message {
	msg := notification.Message{
		RecipientID: req.SubjectID,
		Metadata:    metadata(req, in.Step),
	}

	switch {
	case in.Decision == approval.DecisionApproved && req.Status == StatusApproved:
		msg.Kind = notification.KindRequestApproved
		msg.Title = fmt.Sprintf("%s request approved", titleCase(label))
		msg.Body = fmt.Sprintf("Your %s request was approved", label)
		if req.ApprovedAmount != nil && (req.Amount == nil || *req.ApprovedAmount != *req.Amount) {
			msg.Body += fmt.Sprintf(" (approved amount: %d)", *req.ApprovedAmount)
		}
		if req.ApprovedMonthlyDeduction != nil {
			msg.Body += fmt.Sprintf(", monthly deduction: %d", *req.ApprovedMonthlyDeduction)
		}
	case in.Decision == approval.DecisionApproved:
		msg.Kind = notification.KindStepApproved
		msg.Title = fmt.Sprintf("%s approved your %s request", in.Step, label)
		msg.Body = fmt.Sprintf("Your %s request is now waiting for %s approval", label, req.CurrentStep)
	case in.Decision == approval.DecisionRejected:
		msg.Kind = notification.KindRequestRejected
		msg.Title = fmt.Sprintf("%s request rejected", titleCase(label))
		msg.Body = fmt.Sprintf("Your %s request was rejected at the %s step: %s", label, in.Step, notesOrDefault(in.Notes))
	case in.Decision == approval.DecisionDelayed:
		msg.Kind = notification.KindRequestDelayed
		msg.Title = fmt.Sprintf("%s request delayed", titleCase(label))
		msg.Body = fmt.Sprintf("%s postponed the decision on your %s request: %s", in.Step, label, notesOrDefault(in.Notes))
	default:
		return nil
	}
	return []notification.Message{msg}
}

func metadata(req *Request, step approval.Step) map[string]string {
	return map[string]string{
		"request_id":   req.ID,
		"request_kind": string(req.Kind),
		"step":         string(step),
		"status":       string(req.Status),
		"version":      strconv.Itoa(req.Version),
	}
}

func notesOrDefault(notes string) string {
	if strings.TrimSpace(notes) == "" {
		return "no notes"
	}
	return notes
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

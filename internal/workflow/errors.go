package workflow

import (
	errors "github.com/frahmantamala/hr-approvals/internal"
)

var (
	ErrRequestNotFound   = errors.NewNotFoundError("request not found", errors.ErrCodeRequestNotFound)
	ErrStepMismatch      = errors.NewInvalidStateError("request is not waiting for a decision at this step", errors.ErrCodeStepMismatch)
	ErrRequestClosed     = errors.NewInvalidStateError("request is closed", errors.ErrCodeRequestClosed)
	ErrConcurrentUpdate  = errors.NewInvalidStateError("request was changed by another decision", errors.ErrCodeConcurrentUpdate)
	ErrCannotCancel      = errors.NewInvalidStateError("request can only be cancelled before the first decision", errors.ErrCodeCannotCancel)
	ErrNotRequestOwner   = errors.NewForbiddenError("only the requester can do this", errors.ErrCodeNotRequestOwner)
	ErrNotStepApprover   = errors.NewForbiddenError("not allowed to decide this step for this employee", errors.ErrCodeNotStepApprover)
	ErrRequestHidden     = errors.NewForbiddenError("not allowed to view this request", errors.ErrCodeRequestHidden)
	ErrDelayNotAllowed   = errors.NewValidationError("the manager step cannot be delayed", errors.ErrCodeDelayNotAllowed)
	ErrInvalidPayload    = errors.NewValidationError("request payload is invalid", errors.ErrCodeInvalidPayload)
	ErrSalaryNotFound    = errors.NewNotFoundError("employee has no active salary baseline", errors.ErrCodeSalaryNotFound)
	ErrAmountRequired    = errors.NewValidationError("an amount is required to apply this request", errors.ErrCodeInvalidAmount)
	ErrApprovedAmountBad = errors.NewValidationFieldError("approved_amount", "approved amount must be positive", errors.ErrCodeInvalidAmount)
)

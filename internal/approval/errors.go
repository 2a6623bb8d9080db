package approval

import (
	errors "github.com/frahmantamala/hr-approvals/internal"
)

var (
	ErrUnknownStep        = errors.NewValidationError("unknown approval step", errors.ErrCodeInvalidStep)
	ErrUnknownRequestType = errors.NewValidationError("request type is required", errors.ErrCodeInvalidType)
	ErrInvalidDecision    = errors.NewValidationError("invalid decision", errors.ErrCodeInvalidDecision)

	ErrStepNotInChain = errors.NewInvalidTransitionError("step is not part of the approval chain", errors.ErrCodeStepNotInChain)
	ErrStepSkipped    = errors.NewInvalidTransitionError("transition skips a step of the approval chain", errors.ErrCodeStepSkipped)
	ErrMalformedChain = errors.NewConfigurationError("approval chain is malformed", errors.ErrCodeMalformedChain)

	ErrChainConfigNotFound = errors.NewNotFoundError("approval chain configuration not found", errors.ErrCodeMissingChainSetup)
)

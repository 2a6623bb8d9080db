// Package validation collects field errors for request payloads and reports
// them together as one VALIDATION_FAILED error.
package validation

import (
	"fmt"
	"strings"
	"time"

	errors "github.com/frahmantamala/hr-approvals/internal"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{fields: make([]FieldValidator, 0, 4)}
}

// Field starts the rule chain of one field. Finish a chain before starting
// the next one: the returned pointer is only valid until the next Field call.
func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	v.fields = append(v.fields, FieldValidator{FieldName: name, Value: value})
	return &v.fields[len(v.fields)-1]
}

func (fv *FieldValidator) add(rule ValidatorFunc) *FieldValidator {
	fv.Validators = append(fv.Validators, rule)
	return fv
}

func (fv *FieldValidator) fail(message string, code errors.ErrorCode) *errors.AppError {
	return errors.NewValidationFieldError(fv.FieldName, message, code)
}

// Required rejects zero values. Missing dates report INVALID_DATE.
func (fv *FieldValidator) Required() *FieldValidator {
	return fv.add(func(value interface{}) *errors.AppError {
		missing := fmt.Sprintf("%s is required", fv.FieldName)
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return fv.fail(missing, errors.ErrCodeValidationFailed)
			}
		case *string:
			if v == nil || strings.TrimSpace(*v) == "" {
				return fv.fail(missing, errors.ErrCodeValidationFailed)
			}
		case time.Time:
			if v.IsZero() {
				return fv.fail(missing, errors.ErrCodeInvalidDate)
			}
		default:
			if n, ok := asInt64(value); ok && n == 0 {
				return fv.fail(missing, errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
}

func (fv *FieldValidator) MinInt(min int64, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(value interface{}) *errors.AppError {
		if v, ok := asInt64(value); ok && v < min {
			return fv.fail(fmt.Sprintf("%s must be at least %d", fv.FieldName, min), code)
		}
		return nil
	})
}

func (fv *FieldValidator) MaxInt(max int64, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(value interface{}) *errors.AppError {
		if v, ok := asInt64(value); ok && v > max {
			return fv.fail(fmt.Sprintf("%s must not exceed %d", fv.FieldName, max), code)
		}
		return nil
	})
}

// OneOf accepts strings from allowed. Empty values are left to Required.
func (fv *FieldValidator) OneOf(allowed []string, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok || v == "" {
			return nil
		}
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fv.fail(fmt.Sprintf("%s must be one of %s", fv.FieldName, strings.Join(allowed, ", ")), code)
	})
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	return fv.add(func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && len(v) > max {
			return fv.fail(fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max), errors.ErrCodeValidationFailed)
		}
		return nil
	})
}

func (fv *FieldValidator) Custom(rule func(interface{}) *errors.AppError) *FieldValidator {
	return fv.add(rule)
}

func asInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case *int64:
		if v != nil {
			return *v, true
		}
	case *int:
		if v != nil {
			return int64(*v), true
		}
	}
	return 0, false
}

// Validate runs every rule and returns nil when all fields pass.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var collected []errors.ValidationError
	for _, field := range v.fields {
		for _, rule := range field.Validators {
			if err := rule(field.Value); err != nil {
				collected = append(collected, fieldErrors(field.FieldName, err)...)
			}
		}
	}

	if len(collected) == 0 {
		return nil
	}
	return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: collected})
}

func fieldErrors(field string, err *errors.AppError) []errors.ValidationError {
	if details, ok := err.Details.(errors.ValidationErrors); ok {
		return details.Errors
	}
	return []errors.ValidationError{{Field: field, Message: err.Message, Code: string(err.Code)}}
}

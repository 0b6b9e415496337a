package foundation

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
)

// Validator checks one value.
type Validator[T any] func(T) ValidationResult

// ValidationResult accumulates field failures.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// FieldError is one failed check on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (fe FieldError) Error() string {
	if fe.Field == "" {
		return fe.Message
	}
	return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
}

// Valid is the passing result.
func Valid() ValidationResult { return ValidationResult{Valid: true} }

// Invalid is a failing result listing errs.
func Invalid(errs ...FieldError) ValidationResult {
	return ValidationResult{Errors: errs}
}

// NewValidationError builds a FieldError.
func NewValidationError(field, code, message string) FieldError {
	return FieldError{Field: field, Code: code, Message: message}
}

// Combine merges two results; the merge passes only if both do.
func (vr ValidationResult) Combine(other ValidationResult) ValidationResult {
	if vr.Valid && other.Valid {
		return Valid()
	}
	return Invalid(append(append([]FieldError(nil), vr.Errors...), other.Errors...)...)
}

// ToError returns nil for a passing result, otherwise a validation error
// whose message joins every field failure and whose context lists the
// failing fields.
func (vr ValidationResult) ToError() error {
	if vr.Valid {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	fields := make([]string, 0, len(vr.Errors))
	for _, fe := range vr.Errors {
		messages = append(messages, fe.Error())
		fields = append(fields, fe.Field)
	}
	return errors.ValidationError(strings.Join(messages, "; ")).
		WithContext("fields", fields).
		Build()
}

// ValidatorChain runs validators in order and merges every failure.
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain builds a chain.
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Validate runs the whole chain; it does not stop at the first failure.
func (vc *ValidatorChain[T]) Validate(value T) ValidationResult {
	result := Valid()
	for _, v := range vc.validators {
		result = result.Combine(v(value))
	}
	return result
}

// Required fails on the zero value.
func Required[T comparable](field string) Validator[T] {
	return func(value T) ValidationResult {
		var zero T
		if value == zero {
			return Invalid(NewValidationError(field, "required", "field is required"))
		}
		return Valid()
	}
}

// Positive fails unless value > 0.
func Positive[T int | int64 | float64](field string) Validator[T] {
	return func(value T) ValidationResult {
		if value <= 0 {
			return Invalid(NewValidationError(field, "positive", fmt.Sprintf("must be positive, got %v", value)))
		}
		return Valid()
	}
}

// AtLeast fails when value < limit.
func AtLeast[T int | int64](field string, limit T) Validator[T] {
	return func(value T) ValidationResult {
		if value < limit {
			return Invalid(NewValidationError(field, "min", fmt.Sprintf("must be at least %v, got %v", limit, value)))
		}
		return Valid()
	}
}

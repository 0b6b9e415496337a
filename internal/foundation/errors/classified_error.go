package errors

import (
	"errors"
	"fmt"
)

// ClassifiedError is an error with a category, a severity and structured
// context. Values are immutable; WithContext returns a copy.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.category, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.category, e.message)
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

// Message is the human-readable text without category or cause.
func (e *ClassifiedError) Message() string { return e.message }

// Context returns the attached detail. Do not modify it.
func (e *ClassifiedError) Context() ErrorContext { return e.context }

// WithContext returns a copy of e with key set.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	cp := *e
	cp.context = e.context.with(key, value)
	return &cp
}

// Transient reports whether retrying the failed operation may succeed.
func (e *ClassifiedError) Transient() bool { return e.category.Transient() }

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// HasCategory reports whether err's first ClassifiedError has category.
func HasCategory(err error, category ErrorCategory) bool {
	ce, ok := AsClassified(err)
	return ok && ce.category == category
}

// ReasonCode returns the stable, machine-readable reason for a failed command:
// the "reason" context value when present, otherwise the category.
// Unclassified errors report "internal".
func ReasonCode(err error) string {
	if err == nil {
		return ""
	}
	ce, ok := AsClassified(err)
	if !ok {
		return string(CategoryInternal)
	}
	if reason, ok := ce.context.GetString("reason"); ok {
		return reason
	}
	return string(ce.category)
}

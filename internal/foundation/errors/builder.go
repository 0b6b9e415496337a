package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of category with error severity.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		message:  message,
		context:  ErrorContext{},
	}}
}

// WrapError is NewError with a cause.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = cause
	return b
}

func (b *ErrorBuilder) WithSeverity(s ErrorSeverity) *ErrorBuilder {
	b.err.severity = s
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder   { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder { return b.WithSeverity(SeverityWarning) }

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context[key] = value
	return b
}

// WithReason sets the stable reason code.
func (b *ErrorBuilder) WithReason(reason string) *ErrorBuilder {
	return b.WithContext("reason", reason)
}

// Build returns the error. The builder must not be reused.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	return &out
}

// ValidationError rejects a malformed command or payload.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message)
}

// NotFoundError rejects a reference to an unknown component or section.
func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message)
}

// ReentrancyViolation reports a history capture attempted during replay.
func ReentrancyViolation(message string) *ErrorBuilder {
	return NewError(CategoryReentrancy, message).Warning()
}

// ConsistencyError reports diverged component and section references.
func ConsistencyError(message string) *ErrorBuilder {
	return NewError(CategoryConsistency, message).Warning()
}

// ReadinessError reports a dependency that never became ready.
func ReadinessError(message string) *ErrorBuilder {
	return NewError(CategoryReadiness, message)
}

// PersistenceError reports a journal or autosave failure.
func PersistenceError(message string) *ErrorBuilder {
	return NewError(CategoryPersistence, message)
}

func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}

package errors

// ErrorCategory classifies a failure. Callers branch on it and report it as
// the fallback reason code.
type ErrorCategory string

const (
	// Command rejections.
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// Store internals; logged, never returned to command callers.
	CategoryReentrancy  ErrorCategory = "reentrancy"
	CategoryConsistency ErrorCategory = "consistency"

	CategoryConfig      ErrorCategory = "config"
	CategoryReadiness   ErrorCategory = "readiness"
	CategoryPersistence ErrorCategory = "persistence"
	CategoryNetwork     ErrorCategory = "network"
	CategoryFileSystem  ErrorCategory = "filesystem"
	CategoryInternal    ErrorCategory = "internal"
)

// Transient reports whether failures of this category may succeed when
// tried again unchanged.
func (c ErrorCategory) Transient() bool {
	switch c {
	case CategoryReadiness, CategoryPersistence, CategoryNetwork, CategoryFileSystem:
		return true
	default:
		return false
	}
}

// ErrorSeverity picks the log level an error is reported at.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// ErrorContext is structured detail attached to an error. The "reason" key
// holds the stable reason code.
type ErrorContext map[string]any

// GetString returns a string-valued entry.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

func (c ErrorContext) with(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = value
	return out
}

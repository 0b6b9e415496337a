// Package errors classifies layoutstate failures.
//
// Every rejected command carries a ClassifiedError. Its "reason" context
// value is the stable code reported to callers; without one the category is
// used instead:
//
//   - validation: malformed command or payload
//   - not_found: unknown component or section
//   - reentrancy: history capture attempted during replay (logged, ignored)
//   - consistency: component and section references diverged (repaired)
//
// Example:
//
//	err := errors.NotFoundError("section not found").
//		WithContext("section_id", id).
//		WithReason("section_not_found").
//		Build()
package errors

// Package foundation holds small generic building blocks shared by the
// layoutstate packages: a success-or-failure Result, enumeration
// normalizers and composable validators.
package foundation

import "fmt"

// Result carries either a value or an error, never both.
type Result[T any, E error] struct {
	value T
	err   E
	ok    bool
}

// Ok wraps a value.
func Ok[T any, E error](value T) Result[T, E] {
	return Result[T, E]{value: value, ok: true}
}

// Err wraps a failure.
func Err[T any, E error](err E) Result[T, E] {
	return Result[T, E]{err: err}
}

func (r Result[T, E]) IsOk() bool  { return r.ok }
func (r Result[T, E]) IsErr() bool { return !r.ok }

// Unwrap returns the value and panics on a failure.
func (r Result[T, E]) Unwrap() T {
	if !r.ok {
		panic(fmt.Sprintf("foundation: Unwrap on failed result: %v", r.err))
	}
	return r.value
}

// UnwrapErr returns the failure and panics on a value.
func (r Result[T, E]) UnwrapErr() E {
	if r.ok {
		panic("foundation: UnwrapErr on successful result")
	}
	return r.err
}

// UnwrapOr returns the value, or fallback on a failure.
func (r Result[T, E]) UnwrapOr(fallback T) T {
	if r.ok {
		return r.value
	}
	return fallback
}

// Split converts back to the (value, error) pair. A failure yields the zero
// value; a success yields a nil error interface.
func (r Result[T, E]) Split() (T, error) {
	if r.ok {
		return r.value, nil
	}
	var zero T
	return zero, r.err
}

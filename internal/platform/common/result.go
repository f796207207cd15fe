// Package common provides core infrastructure for the UseCase/UnitOfWork pattern.
// Every successful registry or brand mutation goes through UnitOfWork.Commit,
// so a domain event and an audit log are always written with the change.
package common

// Result represents the outcome of a use case execution.
// Success can only be created inside this package (by a UnitOfWork commit
// or by Map over an existing success).
type Result[T any] struct {
	value   T
	err     *UseCaseError
	success bool
}

func newSuccess[T any](value T) Result[T] {
	return Result[T]{
		value:   value,
		success: true,
	}
}

// Failure creates a failed result. Validation and not-found paths return
// failures directly without touching the unit of work.
func Failure[T any](err *UseCaseError) Result[T] {
	return Result[T]{
		err:     err,
		success: false,
	}
}

// IsSuccess returns true if the result is successful.
func (r Result[T]) IsSuccess() bool {
	return r.success
}

// IsFailure returns true if the result is a failure.
func (r Result[T]) IsFailure() bool {
	return !r.success
}

// Value returns the success value.
// Should only be called after checking IsSuccess().
func (r Result[T]) Value() T {
	return r.value
}

// Error returns the error if the result is a failure, nil otherwise.
func (r Result[T]) Error() *UseCaseError {
	return r.err
}

// Map transforms a successful result's value.
// If the result is a failure, it returns the failure unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.IsFailure() {
		return Failure[U](r.err)
	}
	return newSuccess(fn(r.value))
}

// MapError rewrites the error of a failed result and leaves successes untouched.
func MapError[T any](r Result[T], fn func(*UseCaseError) *UseCaseError) Result[T] {
	if r.IsSuccess() {
		return r
	}
	return Failure[T](fn(r.err))
}

// OrElse returns the success value or the provided default if failure.
func (r Result[T]) OrElse(defaultValue T) T {
	if r.IsSuccess() {
		return r.value
	}
	return defaultValue
}

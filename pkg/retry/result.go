package retry

import "github.com/mithril-search/mithril/pkg/failure"

// Result is the outcome of a Retry call: either a value and the attempt
// count it took to get it, or a terminal ClassifiedError.
type Result[T any] struct {
	value    T
	err      failure.ClassifiedError
	attempts int
}

// NewSuccessResult builds a successful Result.
func NewSuccessResult[T any](value T, attempts int) Result[T] {
	return Result[T]{value: value, attempts: attempts}
}

// Value returns the produced value, or the zero value of T on failure.
func (r Result[T]) Value() T { return r.value }

// Err returns the terminal error, or nil on success.
func (r Result[T]) Err() failure.ClassifiedError { return r.err }

// Attempts reports how many attempts Retry made.
func (r Result[T]) Attempts() int { return r.attempts }

// IsSuccess reports whether the call eventually succeeded.
func (r Result[T]) IsSuccess() bool { return r.err == nil }

// IsFailure reports whether the call exhausted its attempts or hit a
// non-retryable error.
func (r Result[T]) IsFailure() bool { return r.err != nil }

// Package xerrors allows arbitrary typed data to travel alongside an error.
package xerrors

import (
	"errors"
	"log/slog"
)

// ExtendedError carries a value of type T in addition to the wrapped error.
type ExtendedError[T any] struct {
	Data T
	err  error
}

// Error returns the message of the wrapped error unchanged.
func (e ExtendedError[T]) Error() string {
	return e.err.Error()
}

// Unwrap returns the wrapped error.
func (e ExtendedError[T]) Unwrap() error {
	return e.err
}

// LogValue implements slog.LogValuer, exposing the extended data.
// The error message itself is logged separately to avoid repetition.
func (e ExtendedError[T]) LogValue() slog.Value {
	if v, ok := any(e.Data).(slog.LogValuer); ok {
		return v.LogValue()
	}
	return slog.AnyValue(e.Data)
}

// Extend attaches data to err. A nil err stays nil.
func Extend[T any](data T, err error) error {
	if err == nil {
		return nil
	}
	return ExtendedError[T]{Data: data, err: err}
}

// Extract retrieves data of type T from anywhere in the error chain.
// If the chain carries multiple values of the same type, the outermost wins.
func Extract[T any](err error) (T, bool) {
	var extended ExtendedError[T]
	ok := errors.As(err, &extended)
	return extended.Data, ok
}

// Unjoin returns the direct children of an error created with errors.Join,
// or the error itself as a single-element slice.
func Unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

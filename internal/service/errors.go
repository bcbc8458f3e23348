package service

import (
	"errors"
	"fmt"

	"github.com/christopherklint97/timepulse/internal/store"
)

// ErrInvalidInput marks a request that failed validation. The wrapping error
// names the concrete problem.
var ErrInvalidInput = errors.New("invalid input")

// OpError reports a storage failure during an operation. Its message stays
// generic; the cause is available through Unwrap.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return e.Op + ": operation failed"
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// classify keeps lookup and conflict errors recognisable and turns anything
// else coming back from the store into an *OpError.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrDuplicate) || errors.Is(err, ErrInvalidInput) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &OpError{Op: op, Err: err}
}

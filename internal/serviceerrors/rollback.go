package serviceerrors

import "errors"

// RollbackError marks an error raised inside a transaction that must not be committed
type RollbackError struct {
	err error
}

func (e *RollbackError) Error() string {
	return e.err.Error()
}

func (e *RollbackError) Unwrap() error {
	return e.err
}

// WithRollback wraps err so the enclosing transaction is rolled back
func WithRollback(err error) error {
	if err == nil {
		return nil
	}
	return &RollbackError{err: err}
}

// ShouldRollback reports whether err was raised with WithRollback
func ShouldRollback(err error) bool {
	var rollbackErr *RollbackError
	return errors.As(err, &rollbackErr)
}

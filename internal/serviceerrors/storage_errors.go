package serviceerrors

import "fmt"

// StorageError represents an error in storage operations
type StorageError struct {
	Message    string
	Code       int
	ResourceID string
}

func (e *StorageError) Error() string {
	return e.Message
}

func NewStorageErrorWithError(err error, format string, a ...any) *StorageError {
	msg := fmt.Sprintf(format, a...)
	e := fmt.Errorf("%s: %w", msg, err)
	return &StorageError{Message: e.Error()}
}

func NewStorageError(format string, a ...any) *StorageError {
	return &StorageError{Message: fmt.Sprintf(format, a...)}
}

// NewNotFoundError reports a missing resource, Code is set so handlers map it to a 404
func NewNotFoundError(resourceID string, format string, a ...any) *StorageError {
	return &StorageError{Message: fmt.Sprintf(format, a...), Code: 404, ResourceID: resourceID}
}

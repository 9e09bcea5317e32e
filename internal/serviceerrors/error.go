package serviceerrors

import (
	"errors"

	"github.com/playbook-ai/playbook-ai/internal/messages"
)

type ServiceError struct {
	messageCode   *messages.MessageCode
	messageParams []any
}

func (e *ServiceError) Error() string {
	return messages.GetErrorMesssage(e.messageCode, e.messageParams...)
}

func (e *ServiceError) MessageCode() *messages.MessageCode {
	return e.messageCode
}

func (e *ServiceError) MessageParams() []any {
	return e.messageParams
}

func NewServiceError(messageCode *messages.MessageCode, messageParams ...any) *ServiceError {
	return &ServiceError{
		messageCode:   messageCode,
		messageParams: messageParams,
	}
}

// AsServiceError unwraps err into a ServiceError, falling back to UnknownError
// for anything that did not originate in this service.
func AsServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) && storageErr.Code != 0 {
		return NewServiceError(messages.ResourceNotFound, "Type", "run", "ResourceId", storageErr.ResourceID)
	}
	return NewServiceError(messages.UnknownError, "Error", err.Error())
}

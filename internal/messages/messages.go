package messages

import (
	"fmt"
	"strings"

	"github.com/playbook-ai/playbook-ai/internal/constants"
)

// This package provides all the error messages that should be reported to the user.
// Note that we add a comment with the message parameters so that it is possible
// to see the parameters in the IDE when creating an error message.
var (
	// API errors that are not storage specific

	// MissingPathParameter The path parameter '{{.ParameterName}}' is required.
	MissingPathParameter = createMessage(
		constants.HTTPCodeBadRequest,
		"missing_path_parameter",
		"The path parameter '{{.ParameterName}}' is required.",
	)

	// ResourceNotFound The {{.Type}} resource {{.ResourceId}} was not found.
	ResourceNotFound = createMessage(
		constants.HTTPCodeNotFound,
		"resource_not_found",
		"The {{.Type}} resource {{.ResourceId}} was not found.",
	)

	// QueryParameterInvalid The query parameter '{{.ParameterName}}' is not a valid {{.Type}}: '{{.Value}}'.
	QueryParameterInvalid = createMessage(
		constants.HTTPCodeBadRequest,
		"query_parameter_invalid",
		"The query parameter '{{.ParameterName}}' is not a valid {{.Type}}: '{{.Value}}'.",
	)

	// FormParameterRequired The form field '{{.ParameterName}}' is required.
	FormParameterRequired = createMessage(
		constants.HTTPCodeBadRequest,
		"form_parameter_required",
		"The form field '{{.ParameterName}}' is required.",
	)

	// FormParameterInvalid The form field '{{.ParameterName}}' is not a valid {{.Type}}: '{{.Value}}'.
	FormParameterInvalid = createMessage(
		constants.HTTPCodeBadRequest,
		"form_parameter_invalid",
		"The form field '{{.ParameterName}}' is not a valid {{.Type}}: '{{.Value}}'.",
	)

	// UnsupportedContentType The content type '{{.ContentType}}' is not supported, use application/x-www-form-urlencoded or multipart/form-data.
	UnsupportedContentType = createMessage(
		constants.HTTPCodeBadRequest,
		"unsupported_content_type",
		"The content type '{{.ContentType}}' is not supported, use application/x-www-form-urlencoded or multipart/form-data.",
	)

	// InvalidJSONRequest The request JSON is invalid: '{{.Error}}'. Please check the request and try again.
	InvalidJSONRequest = createMessage(
		constants.HTTPCodeBadRequest,
		"invalid_json_request",
		"The request JSON is invalid: '{{.Error}}'. Please check the request and try again.",
	)

	// RequestValidationFailed The request validation failed: '{{.Error}}'. Please check the request and try again.
	RequestValidationFailed = createMessage(
		constants.HTTPCodeBadRequest,
		"request_validation_failed",
		"The request validation failed: '{{.Error}}'. Please check the request and try again.",
	)

	// Workflow related errors

	// WorkflowRunFailed The workflow {{.WorkflowId}} run {{.RunId}} failed: '{{.Error}}'.
	WorkflowRunFailed = createMessage(
		constants.HTTPCodeInternalServerError,
		"workflow_run_failed",
		"The workflow {{.WorkflowId}} run {{.RunId}} failed: '{{.Error}}'.",
	)

	// RunNotInProgress The run {{.RunId}} is not in progress.
	RunNotInProgress = createMessage(
		constants.HTTPCodeNotFound,
		"run_not_in_progress",
		"The run {{.RunId}} is not in progress.",
	)

	// Configuration related errors

	// ConfigurationFailed The service startup failed: '{{.Error}}'.
	ConfigurationFailed = createMessage(
		constants.HTTPCodeInternalServerError,
		"configuration_failed",
		"The service startup failed: '{{.Error}}'.",
	)

	// JSON errors that are not coming from user input

	// JSONUnmarshalFailed The JSON unmarshalling failed for the {{.Type}}: '{{.Error}}'.
	JSONUnmarshalFailed = createMessage(
		constants.HTTPCodeInternalServerError,
		"json_unmarshal_failed",
		"The JSON unmarshalling failed for the {{.Type}}: '{{.Error}}'.",
	)

	// Storage related errors

	// DatabaseOperationFailed The request for the {{.Type}} resource {{.ResourceId}} failed: '{{.Error}}'.
	DatabaseOperationFailed = createMessage(
		constants.HTTPCodeInternalServerError,
		"database_operation_failed",
		"The request for the {{.Type}} resource {{.ResourceId}} failed: '{{.Error}}'.",
	)
	// QueryFailed The request for the {{.Type}} failed: '{{.Error}}'.
	QueryFailed = createMessage(
		constants.HTTPCodeInternalServerError,
		"query_failed",
		"The request for the {{.Type}} failed: '{{.Error}}'.",
	)

	// InternalServerError An internal server error occurred: '{{.Error}}'.
	InternalServerError = createMessage(
		constants.HTTPCodeInternalServerError,
		"internal_server_error",
		"An internal server error occurred: '{{.Error}}'.",
	)

	// MethodNotAllowed The HTTP method {{.Method}} is not allowed for the API {{.Api}}.
	MethodNotAllowed = createMessage(
		constants.HTTPCodeMethodNotAllowed,
		"method_not_allowed",
		"The HTTP method {{.Method}} is not allowed for the API {{.Api}}.",
	)

	// UnknownError An unknown error occurred: '{{.Error}}'. This is a fallback error if the error is not a service error.
	UnknownError = createMessage(
		constants.HTTPCodeInternalServerError,
		"unknown_error",
		"An unknown error occurred: {{.Error}}.",
	)
)

type MessageCode struct {
	status int
	code   string
	one    string
}

func (m *MessageCode) GetCode() int {
	return m.status
}

// GetMessageCode returns the stable identifier reported to API clients
func (m *MessageCode) GetMessageCode() string {
	return m.code
}

func (m *MessageCode) GetMessage() string {
	return m.one
}

func createMessage(status int, code string, one string) *MessageCode {
	return &MessageCode{
		status,
		code,
		one,
	}
}

func GetErrorMesssage(messageCode *MessageCode, messageParams ...any) string {
	msg := messageCode.GetMessage()
	for i := 0; i < len(messageParams); i += 2 {
		param := messageParams[i]
		var paramValue any
		if i+1 < len(messageParams) {
			paramValue = messageParams[i+1]
		} else {
			paramValue = "NOT_DEFINED" // this is a placeholder for a missing parameter value - if you see this value then the code needs to be fixed
		}
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{{.%v}}", param), fmt.Sprintf("%v", paramValue))
	}
	return msg
}

package serialization

import (
	"encoding/json"
	"errors"

	validator "github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/messages"
	"github.com/playbook-ai/playbook-ai/internal/serviceerrors"
)

func Unmarshal(validate *validator.Validate, executionContext *executioncontext.ExecutionContext, jsonBytes []byte, v any) error {
	err := json.Unmarshal(jsonBytes, v)
	if err != nil {
		return serviceerrors.NewServiceError(messages.InvalidJSONRequest, "Error", err.Error())
	}
	return Validate(validate, executionContext, v)
}

// Decode converts a decoded JSON object into v using the json tags and validates the result
func Decode(validate *validator.Validate, executionContext *executioncontext.ExecutionContext, input map[string]any, v any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  v,
	})
	if err != nil {
		return serviceerrors.NewServiceError(messages.InternalServerError, "Error", err.Error())
	}
	if err := decoder.Decode(input); err != nil {
		return serviceerrors.NewServiceError(messages.InvalidJSONRequest, "Error", err.Error())
	}
	return Validate(validate, executionContext, v)
}

// Validate runs the struct validation and logs every failing field
func Validate(validate *validator.Validate, executionContext *executioncontext.ExecutionContext, v any) error {
	err := validate.StructCtx(executionContext.Ctx, v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, validationError := range validationErrors {
			executionContext.Logger.Info("Validation error", "field", validationError.Field(), "tag", validationError.Tag(), "value", validationError.Value())
		}
	}
	return serviceerrors.NewServiceError(messages.RequestValidationFailed, "Error", err.Error())
}

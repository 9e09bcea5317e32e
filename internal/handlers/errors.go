package handlers

import (
	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/http_wrappers"
	"github.com/playbook-ai/playbook-ai/internal/messages"
	"github.com/playbook-ai/playbook-ai/internal/serviceerrors"
)

// writeError renders err as an api.Error, errors that are not service errors become 500s
func writeError(ctx *executioncontext.ExecutionContext, w http_wrappers.ResponseWrapper, err error) {
	serviceErr := serviceerrors.AsServiceError(err)
	code := serviceErr.MessageCode().GetCode()
	if code >= 500 {
		ctx.Logger.Error("Request failed", constants.LOG_RESP_CODE, code, constants.LOG_ERROR, err.Error())
	} else {
		ctx.Logger.Info("Request rejected", constants.LOG_RESP_CODE, code, constants.LOG_ERROR, serviceErr.Error())
	}
	w.ErrorWithCode(serviceErr.MessageCode().GetMessageCode(), serviceErr.Error(), code, ctx.RequestID)
}

func writeMessage(ctx *executioncontext.ExecutionContext, w http_wrappers.ResponseWrapper, messageCode *messages.MessageCode, messageParams ...any) {
	writeError(ctx, w, serviceerrors.NewServiceError(messageCode, messageParams...))
}

// HandleMethodNotAllowed is used for known paths requested with an unsupported method
func (h *Handlers) HandleMethodNotAllowed(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	writeMessage(ctx, w, messages.MethodNotAllowed, "Method", r.Method(), "Api", r.Path())
}

// HandleNotFound is used for every path that is not routed
func (h *Handlers) HandleNotFound(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	writeMessage(ctx, w, messages.ResourceNotFound, "Type", "path", "ResourceId", r.Path())
}

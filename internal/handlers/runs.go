package handlers

import (
	"encoding/json"
	"fmt"
	"mime"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/http_wrappers"
	"github.com/playbook-ai/playbook-ai/internal/messages"
	"github.com/playbook-ai/playbook-ai/internal/serialization"
	"github.com/playbook-ai/playbook-ai/internal/serviceerrors"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

const (
	runIDPathValue = "run_id"

	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// HandleCreateRun handles POST /workflows/{workflow_id}/runs
//
// The body is form encoded: message holds the run input as a JSON object, stream
// selects a server-sent event response (the default) or a single JSON run record.
func (h *Handlers) HandleCreateRun(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	workflowID := r.PathValue(workflowIDPathValue)
	workflow, ok := h.findWorkflow(workflowID)
	if !ok {
		writeMessage(ctx, w, messages.ResourceNotFound, "Type", "workflow", "ResourceId", workflowID)
		return
	}

	req, err := h.parseRunRequest(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := ValidateInput(workflow, req.Message); err != nil {
		writeError(ctx, w, err)
		return
	}

	ctx = ctx.WithLogger(ctx.Logger.With(constants.LOG_WORKFLOW_ID, workflowID))
	if req.Stream {
		h.streamRun(ctx, workflow, req, w)
		return
	}

	run, err := h.executor.Execute(ctx, workflow, req, nil)
	if err != nil {
		if run == nil {
			writeError(ctx, w, err)
			return
		}
		serviceErr := serviceerrors.AsServiceError(err)
		if serviceErr.MessageCode().GetCode() < 500 {
			writeError(ctx, w, err)
			return
		}
		// the failed run record is the body of the error response
		w.WriteJSON(run, serviceErr.MessageCode().GetCode())
		return
	}
	w.WriteJSON(run, 200)
}

func (h *Handlers) streamRun(ctx *executioncontext.ExecutionContext, workflow abstractions.Workflow, req *api.RunRequest, w http_wrappers.ResponseWrapper) {
	w.SetHeader("Content-Type", "text/event-stream")
	w.SetHeader("Cache-Control", "no-cache")
	w.SetHeader("Connection", "keep-alive")
	w.SetHeader("X-Accel-Buffering", "no")
	w.SetStatusCode(200)
	w.Flush()

	emit := func(event api.RunEvent) {
		if err := writeEvent(w, event); err != nil {
			ctx.Logger.Warn("Failed to write run event", "event", event.Event, constants.LOG_ERROR, err.Error())
		}
	}
	run, err := h.executor.Execute(ctx, workflow, req, emit)
	if err != nil {
		// the client has already seen the failure as an event
		ctx.Logger.Info("Streamed run did not complete", constants.LOG_ERROR, err.Error())
		return
	}
	ctx.Logger.Info("Streamed run finished", constants.LOG_RUN_ID, run.ID, "status", run.Status)
}

// writeEvent writes one server-sent event: "event: <name>\ndata: <json>\n\n"
func writeEvent(w http_wrappers.ResponseWrapper, event api.RunEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}

func (h *Handlers) parseRunRequest(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper) (*api.RunRequest, error) {
	contentType := r.Header("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || (mediaType != "application/x-www-form-urlencoded" && mediaType != "multipart/form-data") {
		return nil, serviceerrors.NewServiceError(messages.UnsupportedContentType, "ContentType", contentType)
	}

	rawMessage, ok := r.FormValue("message")
	if !ok || strings.TrimSpace(rawMessage) == "" {
		return nil, serviceerrors.NewServiceError(messages.FormParameterRequired, "ParameterName", "message")
	}
	var message map[string]any
	if err := json.Unmarshal([]byte(rawMessage), &message); err != nil || message == nil {
		return nil, serviceerrors.NewServiceError(messages.FormParameterInvalid, "ParameterName", "message", "Type", "JSON object", "Value", rawMessage)
	}

	stream := true
	if rawStream, ok := r.FormValue("stream"); ok && rawStream != "" {
		stream, err = strconv.ParseBool(rawStream)
		if err != nil {
			return nil, serviceerrors.NewServiceError(messages.FormParameterInvalid, "ParameterName", "stream", "Type", "boolean", "Value", rawStream)
		}
	}
	sessionID, _ := r.FormValue("session_id")
	userID, _ := r.FormValue("user_id")

	req := &api.RunRequest{
		Message:   message,
		Stream:    stream,
		SessionID: sessionID,
		UserID:    userID,
	}
	if err := serialization.Validate(h.validate, ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ValidateInput checks the run message against the JSON schema of the workflow
func ValidateInput(workflow abstractions.Workflow, message map[string]any) error {
	schema := workflow.InputSchema()
	if len(schema) == 0 {
		return nil
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewGoLoader(message))
	if err != nil {
		return serviceerrors.NewServiceError(messages.InternalServerError, "Error", err.Error())
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			problems = append(problems, resultErr.String())
		}
		return serviceerrors.NewServiceError(messages.RequestValidationFailed, "Error", strings.Join(problems, "; "))
	}
	return nil
}

// HandleListRuns handles GET /workflows/{workflow_id}/runs
func (h *Handlers) HandleListRuns(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	workflowID := r.PathValue(workflowIDPathValue)
	if _, ok := h.findWorkflow(workflowID); !ok {
		writeMessage(ctx, w, messages.ResourceNotFound, "Type", "workflow", "ResourceId", workflowID)
		return
	}

	limit, err := intQueryParameter(r, "limit", defaultRunsLimit, 1, maxRunsLimit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	offset, err := intQueryParameter(r, "offset", 0, 0, -1)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	statusFilter := ""
	if values := r.Query("status"); len(values) > 0 && values[0] != "" {
		state, err := api.GetState(values[0])
		if err != nil {
			writeMessage(ctx, w, messages.QueryParameterInvalid, "ParameterName", "status", "Type", "run status", "Value", values[0])
			return
		}
		statusFilter = string(state)
	}

	runs, err := h.storage.GetRuns(ctx.Ctx, workflowID, limit, offset, statusFilter)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	runs.First = &api.HRef{Href: runsHref(workflowID, limit, 0, statusFilter)}
	if offset+limit < runs.TotalCount {
		runs.Next = &api.HRef{Href: runsHref(workflowID, limit, offset+limit, statusFilter)}
	}
	w.WriteJSON(runs, 200)
}

// HandleGetRun handles GET /workflows/{workflow_id}/runs/{run_id}
func (h *Handlers) HandleGetRun(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	workflowID := r.PathValue(workflowIDPathValue)
	runID := r.PathValue(runIDPathValue)
	if runID == "" {
		writeMessage(ctx, w, messages.MissingPathParameter, "ParameterName", runIDPathValue)
		return
	}
	run, err := h.storage.GetRun(ctx.Ctx, workflowID, runID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteJSON(run, 200)
}

// HandleCancelRun handles POST /workflows/{workflow_id}/runs/{run_id}/cancel
func (h *Handlers) HandleCancelRun(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	workflowID := r.PathValue(workflowIDPathValue)
	runID := r.PathValue(runIDPathValue)
	run, err := h.storage.GetRun(ctx.Ctx, workflowID, runID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if run.Status.IsFinal() || !h.executor.Cancel(runID) {
		writeMessage(ctx, w, messages.RunNotInProgress, "RunId", runID)
		return
	}
	ctx.Logger.Info("Run cancellation requested", constants.LOG_RUN_ID, runID)
	w.WriteJSON(run, 202)
}

// intQueryParameter parses an optional integer query parameter, max < 0 means unbounded
func intQueryParameter(r http_wrappers.RequestWrapper, name string, defaultValue int, min int, max int) (int, error) {
	values := r.Query(name)
	if len(values) == 0 || values[0] == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(values[0])
	if err != nil || value < min || (max >= 0 && value > max) {
		return 0, serviceerrors.NewServiceError(messages.QueryParameterInvalid, "ParameterName", name, "Type", "integer", "Value", values[0])
	}
	return value, nil
}

func runsHref(workflowID string, limit int, offset int, statusFilter string) string {
	href := fmt.Sprintf("/workflows/%s/runs?limit=%d&offset=%d", workflowID, limit, offset)
	if statusFilter != "" {
		href += "&status=" + statusFilter
	}
	return href
}

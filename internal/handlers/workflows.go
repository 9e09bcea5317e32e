package handlers

import (
	"encoding/json"

	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/http_wrappers"
	"github.com/playbook-ai/playbook-ai/internal/messages"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

const workflowIDPathValue = "workflow_id"

// HandleListWorkflows handles GET /workflows
func (h *Handlers) HandleListWorkflows(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	items := make([]api.WorkflowSummary, 0, len(h.workflows))
	for _, workflow := range h.workflows {
		items = append(items, workflowSummary(workflow))
	}
	w.WriteJSON(api.WorkflowList{
		TotalCount: len(items),
		Items:      items,
	}, 200)
}

// HandleGetWorkflow handles GET /workflows/{workflow_id}
func (h *Handlers) HandleGetWorkflow(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	workflowID := r.PathValue(workflowIDPathValue)
	workflow, ok := h.findWorkflow(workflowID)
	if !ok {
		writeMessage(ctx, w, messages.ResourceNotFound, "Type", "workflow", "ResourceId", workflowID)
		return
	}

	detail := api.WorkflowDetail{
		WorkflowSummary: workflowSummary(workflow),
		Steps:           workflow.Steps(),
	}
	if schema := workflow.InputSchema(); len(schema) > 0 {
		if err := json.Unmarshal(schema, &detail.InputSchema); err != nil {
			writeMessage(ctx, w, messages.JSONUnmarshalFailed, "Type", "workflow input schema", "Error", err.Error())
			return
		}
	}
	w.WriteJSON(detail, 200)
}

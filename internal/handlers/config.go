package handlers

import (
	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/http_wrappers"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

// HandleConfig handles GET /config
func (h *Handlers) HandleConfig(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	response := api.ConfigResponse{
		OSID:        h.info.OSID,
		Description: h.info.Description,
		Version:     h.info.Version,
		Workflows:   make([]api.WorkflowSummary, 0, len(h.workflows)),
		Databases:   []string{},
		Interfaces:  h.info.Interfaces,
	}
	for _, workflow := range h.workflows {
		response.Workflows = append(response.Workflows, workflowSummary(workflow))
	}
	if h.storage != nil {
		response.Databases = append(response.Databases, h.storage.GetDatasourceName())
	}
	if response.Interfaces == nil {
		response.Interfaces = []api.InterfaceResource{}
	}
	if h.artifacts != nil {
		response.Artifacts = h.artifacts.Name()
	}
	w.WriteJSON(response, 200)
}

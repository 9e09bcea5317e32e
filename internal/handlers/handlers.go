package handlers

import (
	"github.com/go-playground/validator/v10"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/executor"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

// ServerInfo identifies the server in the config report and the API documents
type ServerInfo struct {
	OSID        string
	Description string
	Version     string
	Interfaces  []api.InterfaceResource
}

// Route is a registered method and path pair
type Route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Contains the service state information that handlers can access
type Handlers struct {
	info      ServerInfo
	workflows []abstractions.Workflow
	storage   abstractions.Storage
	executor  *executor.Executor
	validate  *validator.Validate
	artifacts abstractions.ArtifactStore
	routes    func() []Route
}

func New(info ServerInfo, workflows []abstractions.Workflow, storage abstractions.Storage, executor *executor.Executor, validate *validator.Validate, artifacts abstractions.ArtifactStore) *Handlers {
	return &Handlers{
		info:      info,
		workflows: workflows,
		storage:   storage,
		executor:  executor,
		validate:  validate,
		artifacts: artifacts,
	}
}

// SetRouteTable sets the source of the routes described by the OpenAPI document.
// It is read on every request so routes added later are included.
func (h *Handlers) SetRouteTable(routes func() []Route) {
	h.routes = routes
}

func (h *Handlers) findWorkflow(id string) (abstractions.Workflow, bool) {
	for _, workflow := range h.workflows {
		if workflow.ID() == id {
			return workflow, true
		}
	}
	return nil, false
}

func workflowSummary(workflow abstractions.Workflow) api.WorkflowSummary {
	return api.WorkflowSummary{
		ID:          workflow.ID(),
		Name:        workflow.Name(),
		Description: workflow.Description(),
	}
}

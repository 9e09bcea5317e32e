package agentos

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/handlers"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

var emptyObjectSchema = json.RawMessage(`{"type":"object"}`)

// newMCPServer exposes every workflow as a tool named after the workflow id.
// A tool call runs the workflow synchronously and returns the final content.
func newMCPServer(o *AgentOS) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: o.id, Version: o.version}, nil)
	for _, workflow := range o.workflows {
		schema := json.RawMessage(workflow.InputSchema())
		if len(schema) == 0 {
			schema = emptyObjectSchema
		}
		server.AddTool(&mcp.Tool{
			Name:        workflow.ID(),
			Title:       workflow.Name(),
			Description: workflow.Description(),
			InputSchema: schema,
		}, o.workflowTool(workflow))
	}
	return server
}

func newMCPHandler(o *AgentOS) http.Handler {
	server := newMCPServer(o)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func (o *AgentOS) workflowTool(workflow abstractions.Workflow) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.NewString()
		ectx := executioncontext.NewExecutionContext(ctx, requestID, o.logger.With(
			constants.LOG_REQUEST_ID, requestID,
			constants.LOG_METHOD, "tools/call",
			constants.LOG_URI, MCPPath,
		))

		message := map[string]any{}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &message); err != nil || message == nil {
				return toolError("the arguments must be a JSON object"), nil
			}
		}
		if err := handlers.ValidateInput(workflow, message); err != nil {
			return toolError(err.Error()), nil
		}

		run, err := o.executor.Execute(ectx, workflow, &api.RunRequest{Message: message}, nil)
		if err != nil {
			return toolError(err.Error()), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: run.Content}},
		}, nil
	}
}

func toolError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

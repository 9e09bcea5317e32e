package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/Jeffail/gabs/v2"

	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/http_wrappers"
	"github.com/playbook-ai/playbook-ai/internal/messages"
)

const OpenAPIPath = "/openapi.json"

// OpenAPIDocument describes the HTTP API, including one run operation per served workflow
func (h *Handlers) OpenAPIDocument() (*gabs.Container, error) {
	doc := gabs.New()
	set := func(value any, path ...string) {
		// Set only fails when a path element is not an object, the paths below never collide
		_, _ = doc.Set(value, path...)
	}

	set("3.1.0", "openapi")
	set(h.info.OSID, "info", "title")
	set(h.info.Description, "info", "description")
	set(h.info.Version, "info", "version")

	if h.routes != nil {
		for _, route := range h.routes() {
			summary, description := describeRoute(route)
			for _, method := range openAPIMethods(route.Method) {
				set(operation(summary, description), "paths", route.Path, method)
			}
		}
	}

	for _, workflow := range h.workflows {
		path := "/workflows/" + workflow.ID() + "/runs"
		op := operation("Run "+workflow.Name(), workflow.Description())
		op["operationId"] = "run_" + workflow.ID()
		op["requestBody"] = map[string]any{
			"required": true,
			"content": map[string]any{
				"application/x-www-form-urlencoded": map[string]any{
					"schema": map[string]any{
						"type":     "object",
						"required": []string{"message"},
						"properties": map[string]any{
							"message": map[string]any{
								"type":             "string",
								"contentMediaType": "application/json",
								"contentSchema":    map[string]any{"$ref": "#/components/schemas/" + workflow.ID() + "-input"},
							},
							"stream":     map[string]any{"type": "boolean", "default": true},
							"session_id": map[string]any{"type": "string"},
							"user_id":    map[string]any{"type": "string"},
						},
					},
				},
			},
		}
		op["responses"] = map[string]any{
			"200": map[string]any{
				"description": "The run record, or a stream of run events when stream is true",
				"content": map[string]any{
					"application/json":  map[string]any{},
					"text/event-stream": map[string]any{},
				},
			},
			"400": map[string]any{"description": "The request is invalid"},
			"404": map[string]any{"description": "The workflow does not exist"},
			"500": map[string]any{"description": "The run failed, the body is the failed run record"},
		}
		set(op, "paths", path, "post")

		if schema := workflow.InputSchema(); len(schema) > 0 {
			var parsed map[string]any
			if err := json.Unmarshal(schema, &parsed); err != nil {
				return nil, err
			}
			set(parsed, "components", "schemas", workflow.ID()+"-input")
		}
	}
	return doc, nil
}

// describeRoute returns the summary and description of a registered route
func describeRoute(route Route) (string, string) {
	switch route.Method + " " + route.Path {
	case "GET /":
		return "Control plane UI", "Lists the served workflows with a run form"
	case "GET /health":
		return "Health check", "Reports that the service is up"
	case "GET /metrics":
		return "Metrics", "Prometheus metrics in the text exposition format"
	case "GET /config":
		return "Server configuration", "Lists the served workflows, databases and interfaces"
	case "GET /docs":
		return "API docs", "Interactive documentation of this API"
	case "GET " + OpenAPIPath:
		return "OpenAPI document", "This document"
	case "GET /workflows":
		return "List workflows", "Lists the served workflows"
	case "GET /workflows/{workflow_id}":
		return "Get workflow", "Returns the steps and the input schema of a workflow"
	case "GET /workflows/{workflow_id}/runs":
		return "List runs", "Lists the runs of a workflow, newest first"
	case "POST /workflows/{workflow_id}/runs":
		return "Create run", "Runs a workflow, the per workflow operations describe the request body"
	case "GET /workflows/{workflow_id}/runs/{run_id}":
		return "Get run", "Returns a run record"
	case "POST /workflows/{workflow_id}/runs/{run_id}/cancel":
		return "Cancel run", "Cancels a run that is in progress"
	case "* /mcp":
		return "MCP endpoint", "Model Context Protocol streamable HTTP transport, every workflow is a tool"
	}
	return route.Method + " " + route.Path, ""
}

// openAPIMethods maps a route method to the OpenAPI operation keys, "*" accepts
// the methods of the MCP streamable HTTP transport
func openAPIMethods(method string) []string {
	if method == "*" {
		return []string{"get", "post", "delete"}
	}
	return []string{strings.ToLower(method)}
}

func operation(summary string, description string) map[string]any {
	return map[string]any{
		"summary":     summary,
		"description": description,
		"responses": map[string]any{
			"200": map[string]any{"description": "OK"},
		},
	}
}

// HandleOpenAPI handles GET /openapi.json
func (h *Handlers) HandleOpenAPI(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	doc, err := h.OpenAPIDocument()
	if err != nil {
		writeMessage(ctx, w, messages.InternalServerError, "Error", err.Error())
		return
	}
	w.SetHeader("Content-Type", "application/json")
	w.SetStatusCode(http.StatusOK)
	_, _ = w.Write(doc.Bytes())
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}} - API docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({ url: "{{.SpecURL}}", dom_id: "#swagger-ui" });
  </script>
</body>
</html>
`))

// HandleDocs handles GET /docs
func (h *Handlers) HandleDocs(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	renderHTML(ctx, w, docsTemplate, map[string]string{
		"Title":   h.info.OSID,
		"SpecURL": OpenAPIPath,
	})
}

package agentos

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/runtimes/local"
	"github.com/playbook-ai/playbook-ai/internal/validation"
	"github.com/playbook-ai/playbook-ai/internal/workflows/playbook"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

const (
	testOSID           = "playbook-ai-sales-intelligence"
	playbookWorkflowID = "playbook-ai---sales-intelligence-pipeline"
)

func newPlaybookWorkflow(t *testing.T) abstractions.Workflow {
	t.Helper()
	validate, err := validation.NewValidator()
	require.NoError(t, err)
	runtime, err := local.NewLocalRuntime(slog.Default())
	require.NoError(t, err)
	workflow, err := playbook.NewWorkflow(runtime, validate, slog.Default())
	require.NoError(t, err)
	return workflow
}

func newTestOS(t *testing.T, opts ...Option) *AgentOS {
	t.Helper()
	o, err := New(testOSID, "Sales intelligence", []abstractions.Workflow{newPlaybookWorkflow(t)}, opts...)
	require.NoError(t, err)
	return o
}

func TestNew(t *testing.T) {
	workflow := newPlaybookWorkflow(t)

	_, err := New("", "description", []abstractions.Workflow{workflow})
	assert.Error(t, err)

	_, err = New(testOSID, "description", nil)
	assert.Error(t, err)

	_, err = New(testOSID, "description", []abstractions.Workflow{workflow, workflow})
	assert.ErrorContains(t, err, "duplicate workflow id")

	o, err := New(testOSID, "description", []abstractions.Workflow{workflow}, WithVersion("2.0.0"))
	require.NoError(t, err)
	assert.Equal(t, testOSID, o.ID())
	assert.Equal(t, "2.0.0", o.version)
	assert.NotNil(t, o.GetApp())
}

func TestAppRoutes(t *testing.T) {
	server := httptest.NewServer(newTestOS(t).GetApp())
	defer server.Close()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/config", http.StatusOK},
		{http.MethodGet, "/docs", http.StatusOK},
		{http.MethodGet, "/openapi.json", http.StatusOK},
		{http.MethodGet, "/workflows", http.StatusOK},
		{http.MethodGet, "/workflows/" + playbookWorkflowID, http.StatusOK},
		{http.MethodGet, "/workflows/unknown", http.StatusNotFound},
		{http.MethodGet, "/workflows/" + playbookWorkflowID + "/runs", http.StatusOK},
		{http.MethodDelete, "/workflows", http.StatusMethodNotAllowed},
		{http.MethodPut, "/workflows/" + playbookWorkflowID + "/runs", http.StatusMethodNotAllowed},
		{http.MethodGet, "/no/such/path", http.StatusNotFound},
		{http.MethodGet, "/mcp", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Global-Transaction-Id"))
		})
	}
}

func TestAppRequestID(t *testing.T) {
	server := httptest.NewServer(newTestOS(t).GetApp())
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/workflows/unknown", nil)
	require.NoError(t, err)
	req.Header.Set("X-Global-Transaction-Id", "caller-id")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "caller-id", resp.Header.Get("X-Global-Transaction-Id"))
	var body api.Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "caller-id", body.Trace)
	assert.Equal(t, "resource_not_found", body.MessageCode)
}

func TestAppRunOverHTTP(t *testing.T) {
	server := httptest.NewServer(newTestOS(t).GetApp())
	defer server.Close()

	form := url.Values{}
	form.Set("message", `{"vendor_domain":"gong.io","prospect_domain":"sendoso.com"}`)
	form.Set("stream", "false")
	resp, err := http.PostForm(server.URL+"/workflows/"+playbookWorkflowID+"/runs", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run api.RunResource
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, api.StateCompleted, run.Status)

	get, err := http.Get(server.URL + "/workflows/" + playbookWorkflowID + "/runs/" + run.ID)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)

	form.Set("stream", "true")
	stream, err := http.PostForm(server.URL+"/workflows/"+playbookWorkflowID+"/runs", form)
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))
	body, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "event: WorkflowStarted\n"))
	assert.Contains(t, string(body), "event: WorkflowCompleted\n")
}

func TestAddRoute(t *testing.T) {
	app := newTestOS(t).GetApp()
	health := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	require.NoError(t, app.AddRoute(http.MethodGet, "/health", health))
	assert.Error(t, app.AddRoute(http.MethodGet, "/health", health))
	assert.Error(t, app.AddRoute(http.MethodGet, "health", health))
	assert.Error(t, app.AddRoute("", "/other", health))
	assert.Contains(t, app.Routes(), Route{Method: http.MethodGet, Path: "/health"})
	assert.Contains(t, app.Routes(), Route{Method: http.MethodPost, Path: "/workflows/{workflow_id}/runs"})

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	require.NoError(t, app.AddRoute(http.MethodPost, "/config", health))
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/config", nil))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestOpenAPIFollowsRoutes(t *testing.T) {
	app := newTestOS(t, WithMCP(true)).GetApp()
	openAPI := func() map[string]any {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		paths, ok := doc["paths"].(map[string]any)
		require.True(t, ok)
		return paths
	}

	paths := openAPI()
	assert.Contains(t, paths, MCPPath)
	assert.Contains(t, paths, "/workflows/{workflow_id}/runs/{run_id}/cancel")
	assert.NotContains(t, paths, "/health")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, app.AddRoute(http.MethodGet, "/health", handler))
	require.NoError(t, app.AddRoute(http.MethodPut, "/settings", handler))

	paths = openAPI()
	assert.Contains(t, paths, "/health")
	require.Contains(t, paths, "/settings")
	assert.Contains(t, paths["/settings"], "put")
}

func TestConfigReportsMCP(t *testing.T) {
	app := newTestOS(t, WithMCP(true)).GetApp()
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var config api.ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &config))
	assert.Equal(t, testOSID, config.OSID)
	assert.Equal(t, []api.InterfaceResource{{Type: "mcp", Route: MCPPath}}, config.Interfaces)
	assert.Contains(t, app.Routes(), Route{Method: "*", Path: MCPPath})
}

func TestMCPTools(t *testing.T) {
	o := newTestOS(t, WithMCP(true))
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := newMCPServer(o).Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	assert.Equal(t, playbookWorkflowID, tools.Tools[0].Name)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      playbookWorkflowID,
		Arguments: map[string]any{"vendor_domain": "gong.io", "prospect_domain": "sendoso.com"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Prospect: sendoso.com")

	result, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      playbookWorkflowID,
		Arguments: map[string]any{"vendor_domain": "gong.io"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

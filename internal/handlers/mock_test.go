package handlers_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/executor"
	"github.com/playbook-ai/playbook-ai/internal/handlers"
	"github.com/playbook-ai/playbook-ai/internal/http_wrappers"
	"github.com/playbook-ai/playbook-ai/internal/runtimes/local"
	"github.com/playbook-ai/playbook-ai/internal/storage/sql"
	"github.com/playbook-ai/playbook-ai/internal/validation"
	"github.com/playbook-ai/playbook-ai/internal/workflows/playbook"
)

const playbookWorkflowID = "playbook-ai---sales-intelligence-pipeline"

type MockRequest struct {
	method      string
	path        string
	headers     map[string]string
	pathValues  map[string]string
	queryValues map[string][]string
	formValues  map[string]string
}

func createMockRequest(method string, path string) *MockRequest {
	return &MockRequest{
		method:      method,
		path:        path,
		headers:     map[string]string{},
		pathValues:  map[string]string{},
		queryValues: map[string][]string{},
		formValues:  map[string]string{},
	}
}

func (r *MockRequest) withPathValue(name string, value string) *MockRequest {
	r.pathValues[name] = value
	return r
}

func (r *MockRequest) withQuery(name string, value string) *MockRequest {
	r.queryValues[name] = append(r.queryValues[name], value)
	return r
}

// withForm sets a form field and marks the body as url encoded
func (r *MockRequest) withForm(name string, value string) *MockRequest {
	r.headers["Content-Type"] = "application/x-www-form-urlencoded"
	r.formValues[name] = value
	return r
}

func (r *MockRequest) Method() string                     { return r.method }
func (r *MockRequest) URI() string                        { return r.path }
func (r *MockRequest) Header(key string) string           { return r.headers[key] }
func (r *MockRequest) SetHeader(key string, value string) { r.headers[key] = value }
func (r *MockRequest) Path() string                       { return r.path }
func (r *MockRequest) PathValue(name string) string       { return r.pathValues[name] }
func (r *MockRequest) BodyAsBytes() ([]byte, error)       { return nil, nil }

func (r *MockRequest) Query(key string) []string {
	if values, ok := r.queryValues[key]; ok {
		return values
	}
	return []string{}
}

func (r *MockRequest) FormValue(key string) (string, bool) {
	value, ok := r.formValues[key]
	return value, ok
}

type MockResponseWrapper struct {
	recorder *httptest.ResponseRecorder
}

func newMockResponse() (MockResponseWrapper, *httptest.ResponseRecorder) {
	recorder := httptest.NewRecorder()
	return MockResponseWrapper{recorder: recorder}, recorder
}

func (w MockResponseWrapper) Error(errorMessage string, code int, requestId string) {
	w.ErrorWithCode("", errorMessage, code, requestId)
}

func (w MockResponseWrapper) ErrorWithCode(messageCode string, errorMessage string, code int, requestId string) {
	http_wrappers.NewResponseWrapper(w.recorder, nil).ErrorWithCode(messageCode, errorMessage, code, requestId)
}

func (w MockResponseWrapper) SetHeader(key string, value string) { w.recorder.Header().Set(key, value) }
func (w MockResponseWrapper) DeleteHeader(key string)            { w.recorder.Header().Del(key) }
func (w MockResponseWrapper) SetStatusCode(code int)             { w.recorder.WriteHeader(code) }
func (w MockResponseWrapper) Write(buf []byte) (int, error)      { return w.recorder.Write(buf) }
func (w MockResponseWrapper) Flush()                             { w.recorder.Flush() }

func (w MockResponseWrapper) WriteJSON(v any, code int) {
	http_wrappers.NewResponseWrapper(w.recorder, nil).WriteJSON(v, code)
}

func createExecutionContext() *executioncontext.ExecutionContext {
	return executioncontext.NewExecutionContext(context.Background(), "test-request-id", slog.Default())
}

type testServer struct {
	handlers *handlers.Handlers
	storage  abstractions.Storage
	executor *executor.Executor
}

// newTestHandlers serves the sales intelligence workflow on the local runtime and in-memory sqlite
func newTestHandlers(t *testing.T) *testServer {
	t.Helper()
	logger := slog.Default()
	storage, err := sql.NewStorage(map[string]any{"driver": "sqlite", "url": ":memory:"}, logger)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })

	validate, err := validation.NewValidator()
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}
	runtime, _ := local.NewLocalRuntime(logger)
	workflow, err := playbook.NewWorkflow(runtime, validate, logger)
	if err != nil {
		t.Fatalf("failed to create workflow: %v", err)
	}

	exec := executor.New(storage, nil, logger)
	h := handlers.New(handlers.ServerInfo{
		OSID:        "playbook-ai-sales-intelligence",
		Description: "Complete sales intelligence pipeline API",
		Version:     "1.0.0",
	}, []abstractions.Workflow{workflow}, storage, exec, validate, nil)
	return &testServer{handlers: h, storage: storage, executor: exec}
}

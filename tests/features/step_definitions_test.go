package features

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/cucumber/godog"

	"github.com/playbook-ai/playbook-ai/cmd/playbook_ai/server"
	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/agentos"
	"github.com/playbook-ai/playbook-ai/internal/bootstrap"
	"github.com/playbook-ai/playbook-ai/internal/config"
	"github.com/playbook-ai/playbook-ai/internal/runtimes/local"
	"github.com/playbook-ai/playbook-ai/internal/validation"
	"github.com/playbook-ai/playbook-ai/internal/workflows/playbook"
)

// baseURL is the service under test, SERVER_URL selects an external deployment
var (
	baseURL     string
	localServer *httptest.Server
	banner      bytes.Buffer
)

type testContext struct {
	client    *http.Client
	response  *http.Response
	body      []byte
	lastRunID string
}

func newTestContext() *testContext {
	return &testContext{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (tc *testContext) reset() {
	tc.response = nil
	tc.body = nil
	tc.lastRunID = ""
}

// InitializeTestSuite starts the service in process unless SERVER_URL is set
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		if serverURL := os.Getenv("SERVER_URL"); serverURL != "" {
			baseURL = strings.TrimSuffix(serverURL, "/")
			return
		}
		handler, err := startInProcess()
		if err != nil {
			panic(fmt.Sprintf("failed to start the service: %v", err))
		}
		localServer = httptest.NewServer(handler)
		baseURL = localServer.URL
	})
	ctx.AfterSuite(func() {
		if localServer != nil {
			localServer.Close()
		}
	})
}

func startInProcess() (http.Handler, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validate, err := validation.NewValidator()
	if err != nil {
		return nil, err
	}
	runtime, err := local.NewLocalRuntime(logger)
	if err != nil {
		return nil, err
	}
	workflow, err := playbook.NewWorkflow(runtime, validate, logger)
	if err != nil {
		return nil, err
	}

	build := func(id string, description string, workflows []abstractions.Workflow) (bootstrap.Application, error) {
		o, err := agentos.New(id, description, workflows, agentos.WithLogger(logger), agentos.WithValidator(validate), agentos.WithMCP(true))
		if err != nil {
			return nil, err
		}
		return o.GetApp(), nil
	}
	var handler http.Handler
	listen := func(ctx context.Context, cfg config.ServiceConfig, app http.Handler) error {
		handler = server.NewServer(cfg, app, logger).Handler()
		return nil
	}
	cfg := config.ServiceConfig{Port: 8080, Version: "1.0.0", CORSOrigin: "*"}
	if err := bootstrap.Run(context.Background(), cfg, []abstractions.Workflow{workflow}, build, listen, &banner); err != nil {
		return nil, err
	}
	return handler, nil
}

// InitializeScenario registers all step definitions
func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := newTestContext()

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Background Steps
	ctx.Step(`^the service is running$`, tc.theServiceIsRunning)

	// HTTP Steps
	ctx.Step(`^I send a (GET|POST|PUT|DELETE|OPTIONS) request to "([^"]*)"$`, tc.iSendRequest)
	ctx.Step(`^I submit a run to "([^"]*)" with message '([^']*)' and stream "(true|false)"$`, tc.iSubmitARun)
	ctx.Step(`^I send a POST request to "([^"]*)" with content type "([^"]*)" and body '([^']*)'$`, tc.iSendPostWithContentType)
	ctx.Step(`^I fetch the last run from "([^"]*)"$`, tc.iFetchTheLastRun)

	// Response Validation
	ctx.Step(`^the response code should be (\d+)$`, tc.theResponseCodeShouldBe)
	ctx.Step(`^the response body should be JSON equal to '([^']*)'$`, tc.theResponseBodyShouldBeJSON)
	ctx.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, tc.theResponseHeaderShouldBe)
	ctx.Step(`^the response should contain the value "([^"]*)" at path "([^"]*)"$`, tc.theResponseShouldContainValueAtPath)
	ctx.Step(`^the response should have (\d+) items? at path "([^"]*)"$`, tc.theResponseShouldHaveItemsAtPath)
	ctx.Step(`^the response body should contain "([^"]*)"$`, tc.theResponseBodyShouldContain)
	ctx.Step(`^the event stream should contain the events "([^"]*)" in order$`, tc.theEventStreamShouldContainEvents)
	ctx.Step(`^the startup banner should announce port (\d+)$`, tc.theBannerShouldAnnouncePort)
}

// ============================================================================
// Background Steps
// ============================================================================

func (tc *testContext) theServiceIsRunning(ctx context.Context) error {
	if baseURL == "" {
		return fmt.Errorf("the service is not running")
	}
	return nil
}

// ============================================================================
// HTTP Steps
// ============================================================================

func (tc *testContext) do(req *http.Request) error {
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	tc.response = resp
	tc.body, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	var run struct {
		ID         string `json:"id"`
		WorkflowID string `json:"workflow_id"`
	}
	if json.Unmarshal(tc.body, &run) == nil && run.ID != "" && run.WorkflowID != "" {
		tc.lastRunID = run.ID
	}
	return nil
}

func (tc *testContext) iSendRequest(ctx context.Context, method string, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

func (tc *testContext) iSubmitARun(ctx context.Context, path string, message string, stream string) error {
	form := url.Values{}
	form.Set("message", message)
	form.Set("stream", stream)
	return tc.iSendPostWithContentType(ctx, path, "application/x-www-form-urlencoded", form.Encode())
}

func (tc *testContext) iSendPostWithContentType(ctx context.Context, path string, contentType string, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return tc.do(req)
}

func (tc *testContext) iFetchTheLastRun(ctx context.Context, path string) error {
	if tc.lastRunID == "" {
		return fmt.Errorf("no run was created in this scenario")
	}
	return tc.iSendRequest(ctx, http.MethodGet, strings.TrimSuffix(path, "/")+"/"+tc.lastRunID)
}

// ============================================================================
// Response Validation
// ============================================================================

func (tc *testContext) theResponseCodeShouldBe(code int) error {
	if tc.response == nil {
		return fmt.Errorf("no response received")
	}
	if tc.response.StatusCode != code {
		return fmt.Errorf("expected status code %d, got %d: %s", code, tc.response.StatusCode, string(tc.body))
	}
	return nil
}

func (tc *testContext) theResponseBodyShouldBeJSON(expected string) error {
	var want, got any
	if err := json.Unmarshal([]byte(expected), &want); err != nil {
		return fmt.Errorf("invalid expected JSON: %w", err)
	}
	if err := json.Unmarshal(tc.body, &got); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}
	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	if !bytes.Equal(wantJSON, gotJSON) {
		return fmt.Errorf("expected body %s, got %s", wantJSON, gotJSON)
	}
	return nil
}

func (tc *testContext) theResponseHeaderShouldBe(name string, value string) error {
	if got := tc.response.Header.Get(name); got != value {
		return fmt.Errorf("expected header %s to be %q, got %q", name, value, got)
	}
	return nil
}

func (tc *testContext) valueAtPath(path string) (any, error) {
	var document any
	if err := json.Unmarshal(tc.body, &document); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	value, err := jsonpath.Get(path, document)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %s: %w", path, err)
	}
	return value, nil
}

func (tc *testContext) theResponseShouldContainValueAtPath(expected string, path string) error {
	value, err := tc.valueAtPath(path)
	if err != nil {
		return err
	}
	if got := fmt.Sprintf("%v", value); got != expected {
		return fmt.Errorf("expected %q at %s, got %q", expected, path, got)
	}
	return nil
}

func (tc *testContext) theResponseShouldHaveItemsAtPath(count int, path string) error {
	value, err := tc.valueAtPath(path)
	if err != nil {
		return err
	}
	items, ok := value.([]any)
	if !ok {
		return fmt.Errorf("expected an array at %s, got %T", path, value)
	}
	if len(items) != count {
		return fmt.Errorf("expected %d items at %s, got %d", count, path, len(items))
	}
	return nil
}

func (tc *testContext) theResponseBodyShouldContain(text string) error {
	if !strings.Contains(string(tc.body), text) {
		return fmt.Errorf("expected the body to contain %q", text)
	}
	return nil
}

func (tc *testContext) theEventStreamShouldContainEvents(names string) error {
	var got []string
	for _, line := range strings.Split(string(tc.body), "\n") {
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			got = append(got, name)
		}
	}
	want := strings.Split(names, ",")
	for i := range want {
		want[i] = strings.TrimSpace(want[i])
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected events %v, got %v", want, got)
	}
	return nil
}

func (tc *testContext) theBannerShouldAnnouncePort(port int) error {
	if localServer == nil {
		return godog.ErrSkip
	}
	if !strings.Contains(banner.String(), fmt.Sprintf("API running on port %d\n", port)) {
		return fmt.Errorf("unexpected banner %q", banner.String())
	}
	return nil
}

package executor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/serviceerrors"
	"github.com/playbook-ai/playbook-ai/internal/storage/sql"
	"github.com/playbook-ai/playbook-ai/internal/workflows"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

type testStep struct {
	name string
	run  func(ctx context.Context, session *workflows.Session) (string, error)
}

func (s *testStep) Name() string        { return s.name }
func (s *testStep) Description() string { return s.name }
func (s *testStep) Execute(ctx context.Context, session *workflows.Session) (string, error) {
	return s.run(ctx, session)
}

func constantStep(name string, output string) workflows.Step {
	return &testStep{name: name, run: func(context.Context, *workflows.Session) (string, error) { return output, nil }}
}

type fakeArtifacts struct {
	keys []string
}

func (f *fakeArtifacts) Name() string { return "fake" }
func (f *fakeArtifacts) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.keys = append(f.keys, key)
	return "s3://bucket/" + key, nil
}

func newStorage(t *testing.T) abstractions.Storage {
	t.Helper()
	storage, err := sql.NewStorage(map[string]any{"driver": "sqlite", "url": ":memory:"}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func newContext() *executioncontext.ExecutionContext {
	return executioncontext.NewExecutionContext(context.Background(), "req-1", slog.Default())
}

func TestExecuteCompletedRun(t *testing.T) {
	storage := newStorage(t)
	store := &fakeArtifacts{}
	executor := New(storage, store, slog.Default())
	wf, err := workflows.New("Test Flow", "", []workflows.Step{constantStep("one", "a"), constantStep("two", "final")})
	require.NoError(t, err)

	var events []api.EventType
	run, err := executor.Execute(newContext(), wf, &api.RunRequest{
		Message: map[string]any{"vendor_domain": "gong.io"},
		UserID:  "u1",
	}, func(event api.RunEvent) { events = append(events, event.Event) })
	require.NoError(t, err)

	assert.Equal(t, api.StateCompleted, run.Status)
	assert.Equal(t, "final", run.Content)
	assert.NotEmpty(t, run.SessionID)
	require.NotNil(t, run.ArtifactURL)
	assert.Equal(t, "s3://bucket/test-flow/"+run.ID+"/playbook.md", *run.ArtifactURL)
	assert.Len(t, run.Steps, 2)
	assert.Equal(t, api.EventWorkflowCompleted, events[len(events)-1])
	assert.Equal(t, 0, executor.InFlight())

	stored, err := storage.GetRun(context.Background(), "test-flow", run.ID)
	require.NoError(t, err)
	assert.Equal(t, api.StateCompleted, stored.Status)
	assert.Equal(t, "final", stored.Content)
	assert.Equal(t, "u1", stored.UserID)
	assert.Equal(t, "gong.io", stored.Input["vendor_domain"])
}

func TestExecuteFailedRun(t *testing.T) {
	storage := newStorage(t)
	executor := New(storage, nil, slog.Default())
	failing := &testStep{name: "broken", run: func(context.Context, *workflows.Session) (string, error) {
		return "", errors.New("model unavailable")
	}}
	wf, err := workflows.New("Failing", "", []workflows.Step{constantStep("ok", "a"), failing})
	require.NoError(t, err)

	run, err := executor.Execute(newContext(), wf, &api.RunRequest{Message: map[string]any{}, SessionID: "s-1"}, nil)
	require.Error(t, err)
	assert.Equal(t, 500, serviceerrors.AsServiceError(err).MessageCode().GetCode())
	assert.Equal(t, api.StateFailed, run.Status)
	assert.Equal(t, "s-1", run.SessionID)
	assert.Contains(t, run.Message.Message, "model unavailable")
	assert.Nil(t, run.ArtifactURL)

	stored, err := storage.GetRun(context.Background(), "failing", run.ID)
	require.NoError(t, err)
	assert.Equal(t, api.StateFailed, stored.Status)
}

func TestExecuteInvalidInput(t *testing.T) {
	executor := New(newStorage(t), nil, slog.Default())
	wf, err := workflows.New("Strict", "", []workflows.Step{constantStep("one", "a")},
		workflows.WithInputValidator(func(context.Context, abstractions.RunInput) error {
			return errors.New("vendor_domain is not a domain")
		}))
	require.NoError(t, err)

	var events []api.RunEvent
	run, err := executor.Execute(newContext(), wf, &api.RunRequest{Message: map[string]any{"vendor_domain": "x"}}, func(event api.RunEvent) {
		events = append(events, event)
	})
	require.Error(t, err)
	assert.Equal(t, 400, serviceerrors.AsServiceError(err).MessageCode().GetCode())
	assert.Equal(t, api.StateFailed, run.Status)
	require.Len(t, events, 1)
	assert.Equal(t, api.EventWorkflowFailed, events[0].Event)
}

func TestCancel(t *testing.T) {
	executor := New(newStorage(t), nil, slog.Default())
	started := make(chan string, 1)
	blocking := &testStep{name: "wait", run: func(ctx context.Context, session *workflows.Session) (string, error) {
		started <- session.RunID
		<-ctx.Done()
		return "", ctx.Err()
	}}
	wf, err := workflows.New("Blocking", "", []workflows.Step{blocking})
	require.NoError(t, err)

	assert.False(t, executor.Cancel("unknown"))

	var wg sync.WaitGroup
	var run *api.RunResource
	var runErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		run, runErr = executor.Execute(newContext(), wf, &api.RunRequest{Message: map[string]any{}}, nil)
	}()

	select {
	case runID := <-started:
		assert.Equal(t, 1, executor.InFlight())
		assert.True(t, executor.Cancel(runID))
	case <-time.After(5 * time.Second):
		t.Fatal("the run did not start")
	}
	wg.Wait()

	require.NoError(t, runErr)
	assert.Equal(t, api.StateCancelled, run.Status)
	require.Len(t, run.Steps, 1)
	assert.Equal(t, api.StateCancelled, run.Steps[0].Status)
	assert.Equal(t, 0, executor.InFlight())
}

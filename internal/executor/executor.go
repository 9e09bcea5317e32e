package executor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/artifacts"
	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/messages"
	"github.com/playbook-ai/playbook-ai/internal/serviceerrors"
	"github.com/playbook-ai/playbook-ai/internal/storage/common"
	"github.com/playbook-ai/playbook-ai/internal/workflows"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

const instrumentationName = "github.com/playbook-ai/playbook-ai/internal/executor"

// Executor runs workflows on behalf of API requests, it persists every run
// and keeps track of the runs in progress so they can be cancelled.
type Executor struct {
	storage   abstractions.Storage
	artifacts abstractions.ArtifactStore
	logger    *slog.Logger

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// New creates an executor, artifactStore may be nil
func New(storage abstractions.Storage, artifactStore abstractions.ArtifactStore, logger *slog.Logger) *Executor {
	return &Executor{
		storage:   storage,
		artifacts: artifactStore,
		logger:    logger,
		inflight:  make(map[string]context.CancelFunc),
	}
}

// Execute runs the workflow to completion on the calling goroutine. Progress
// events are passed to emit, the final run record is returned together with a
// service error when the run did not complete.
func (e *Executor) Execute(ctx *executioncontext.ExecutionContext, workflow abstractions.Workflow, req *api.RunRequest, emit abstractions.EventSink) (*api.RunResource, error) {
	if emit == nil {
		emit = func(api.RunEvent) {}
	}
	now := time.Now().UTC()
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	run := &api.RunResource{
		Resource: api.Resource{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		WorkflowID: workflow.ID(),
		SessionID:  sessionID,
		UserID:     req.UserID,
		Status:     api.StatePending,
		Input:      req.Message,
		Steps:      make([]api.StepStatus, 0),
		Message: &api.MessageInfo{
			Message:     "Workflow run created",
			MessageCode: constants.MESSAGE_CODE_RUN_CREATED,
		},
	}
	logger := ctx.Logger.With(constants.LOG_WORKFLOW_ID, run.WorkflowID, constants.LOG_RUN_ID, run.ID, constants.LOG_SESSION_ID, sessionID)

	if err := e.storage.CreateRun(ctx.Ctx, run); err != nil {
		logger.Error("Failed to create run", constants.LOG_ERROR, err.Error())
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx.Ctx)
	e.register(run.ID, cancel)
	defer e.unregister(run.ID)
	// persistence must survive the cancellation of the run
	storeCtx := context.WithoutCancel(ctx.Ctx)

	run.Status = api.StateRunning
	run.Message = &api.MessageInfo{Message: "Workflow run started", MessageCode: constants.MESSAGE_CODE_RUN_STARTED}
	if err := e.storage.UpdateRun(storeCtx, run); err != nil {
		logger.Error("Failed to mark run as running", constants.LOG_ERROR, err.Error())
	}
	logger.Info("Workflow run started")

	terminal := false
	sink := func(event api.RunEvent) {
		common.UpdateStepStatus(run, event)
		switch event.Event {
		case api.EventStepCompleted, api.EventStepFailed:
			if err := e.storage.UpdateRun(storeCtx, run); err != nil {
				logger.Error("Failed to persist step status", constants.LOG_STEP, event.StepName, constants.LOG_ERROR, err.Error())
			}
		case api.EventWorkflowCompleted, api.EventWorkflowFailed, api.EventWorkflowCancelled:
			terminal = true
		}
		emit(event)
	}

	content, runErr := workflow.Run(runCtx, abstractions.RunInput{
		RunID:     run.ID,
		SessionID: sessionID,
		UserID:    req.UserID,
		Message:   req.Message,
	}, sink)

	serviceErr := e.finish(storeCtx, logger, workflow, run, content, runErr)
	if !terminal {
		// the workflow refused the run before starting it
		emit(api.RunEvent{
			Event:      api.EventWorkflowFailed,
			RunID:      run.ID,
			WorkflowID: run.WorkflowID,
			SessionID:  sessionID,
			Error:      run.Message.Message,
			CreatedAt:  time.Now().UTC(),
		})
	}

	if err := e.storage.UpdateRun(storeCtx, run); err != nil {
		logger.Error("Failed to persist final run status", constants.LOG_ERROR, err.Error())
	}

	elapsed := time.Since(run.CreatedAt)
	runsTotal.WithLabelValues(run.WorkflowID, string(run.Status)).Inc()
	runDuration.WithLabelValues(run.WorkflowID, string(run.Status)).Observe(elapsed.Seconds())
	e.emitLogRecord(storeCtx, run, elapsed)
	logger.Info("Workflow run finished", "status", run.Status, constants.LOG_ELAPSED, elapsed.String())

	if serviceErr != nil {
		return run, serviceErr
	}
	return run, nil
}

// finish records the outcome of the run and returns the error reported to the caller
func (e *Executor) finish(ctx context.Context, logger *slog.Logger, workflow abstractions.Workflow, run *api.RunResource, content string, runErr error) error {
	now := time.Now().UTC()
	var inputErr *workflows.InputError
	switch {
	case runErr == nil:
		run.Content = content
		run.Status, run.Message = common.GetOverallRunStatus(run, len(workflow.Steps()))
		if run.Status != api.StateCompleted {
			// a workflow can legitimately finish without running every listed step
			run.Status = api.StateCompleted
			run.Message = &api.MessageInfo{Message: "Workflow run is completed", MessageCode: constants.MESSAGE_CODE_RUN_COMPLETED}
		}
		e.archive(ctx, logger, run)
		return nil
	case errors.Is(runErr, context.Canceled):
		common.CancelRunningSteps(run, now)
		run.Status = api.StateCancelled
		run.Message = &api.MessageInfo{Message: "Workflow run was cancelled", MessageCode: constants.MESSAGE_CODE_RUN_CANCELLED}
		return nil
	case errors.As(runErr, &inputErr):
		run.Status = api.StateFailed
		run.Message = &api.MessageInfo{Message: inputErr.Error(), MessageCode: constants.MESSAGE_CODE_RUN_FAILED}
		return serviceerrors.NewServiceError(messages.RequestValidationFailed, "Error", inputErr.Err.Error())
	default:
		common.CancelRunningSteps(run, now)
		run.Status, run.Message = common.GetOverallRunStatus(run, len(workflow.Steps()))
		if run.Status != api.StateFailed {
			run.Status = api.StateFailed
			run.Message = &api.MessageInfo{Message: runErr.Error(), MessageCode: constants.MESSAGE_CODE_RUN_FAILED}
		}
		return serviceerrors.NewServiceError(messages.WorkflowRunFailed, "WorkflowId", run.WorkflowID, "RunId", run.ID, "Error", runErr.Error())
	}
}

func (e *Executor) archive(ctx context.Context, logger *slog.Logger, run *api.RunResource) {
	if e.artifacts == nil || run.Content == "" {
		return
	}
	location, err := e.artifacts.Put(ctx, artifacts.ObjectKey(run.WorkflowID, run.ID), []byte(run.Content), "text/markdown; charset=utf-8")
	if err != nil {
		// the run itself succeeded, a missing archive is only logged
		logger.Warn("Failed to archive run output", "store", e.artifacts.Name(), constants.LOG_ERROR, err.Error())
		return
	}
	run.ArtifactURL = &location
}

func (e *Executor) emitLogRecord(ctx context.Context, run *api.RunResource, elapsed time.Duration) {
	var record otellog.Record
	record.SetTimestamp(time.Now())
	record.SetSeverity(otellog.SeverityInfo)
	if run.Status == api.StateFailed {
		record.SetSeverity(otellog.SeverityError)
	}
	record.SetBody(otellog.StringValue("workflow run finished"))
	record.AddAttributes(
		otellog.String("workflow.id", run.WorkflowID),
		otellog.String("workflow.run_id", run.ID),
		otellog.String("workflow.session_id", run.SessionID),
		otellog.String("workflow.status", string(run.Status)),
		otellog.Int("workflow.steps", len(run.Steps)),
		otellog.Float64("workflow.duration_seconds", elapsed.Seconds()),
	)
	global.GetLoggerProvider().Logger(instrumentationName).Emit(ctx, record)
}

// Cancel stops an in-flight run, it reports false when the run is not executing
func (e *Executor) Cancel(runID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cancel, ok := e.inflight[runID]
	if ok {
		cancel()
	}
	return ok
}

// InFlight returns the number of runs currently executing
func (e *Executor) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inflight)
}

func (e *Executor) register(runID string, cancel context.CancelFunc) {
	e.mu.Lock()
	e.inflight[runID] = cancel
	e.mu.Unlock()
	runsInFlight.Inc()
}

func (e *Executor) unregister(runID string) {
	e.mu.Lock()
	cancel, ok := e.inflight[runID]
	delete(e.inflight, runID)
	e.mu.Unlock()
	if ok {
		cancel()
		runsInFlight.Dec()
	}
}

package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

const tracerName = "github.com/playbook-ai/playbook-ai/internal/workflows"

// Step is a single unit of work of a sequential workflow
type Step interface {
	Name() string
	Description() string
	Execute(ctx context.Context, session *Session) (string, error)
}

// InputValidator checks the run message before any step is started
type InputValidator func(ctx context.Context, input abstractions.RunInput) error

// InputError reports a run message the workflow refused to process
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return "invalid workflow input: " + e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// StepError reports the step that stopped a run
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type Option func(*Workflow)

// WithInputSchema sets the JSON schema published for the run message
func WithInputSchema(schema []byte) Option {
	return func(w *Workflow) {
		w.inputSchema = schema
	}
}

func WithInputValidator(validator InputValidator) Option {
	return func(w *Workflow) {
		w.validate = validator
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// Workflow runs its steps one after the other. Every step sees the run input
// and the output of the steps before it, the output of the last step is the
// result of the run.
type Workflow struct {
	id          string
	name        string
	description string
	steps       []Step
	inputSchema []byte
	validate    InputValidator
	logger      *slog.Logger
	tracer      trace.Tracer
}

// IDFromName derives the workflow id: lower case with every space replaced by "-"
func IDFromName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

func New(name string, description string, steps []Step, opts ...Option) (*Workflow, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("workflow name is required")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("workflow %q has no steps", name)
	}
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		if step == nil {
			return nil, fmt.Errorf("workflow %q has a nil step", name)
		}
		if seen[step.Name()] {
			return nil, fmt.Errorf("workflow %q has a duplicate step %q", name, step.Name())
		}
		seen[step.Name()] = true
	}

	w := &Workflow{
		id:          IDFromName(name),
		name:        name,
		description: description,
		steps:       steps,
		logger:      slog.Default(),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.inputSchema != nil && !json.Valid(w.inputSchema) {
		return nil, fmt.Errorf("workflow %q has an invalid input schema", name)
	}
	return w, nil
}

func (w *Workflow) ID() string {
	return w.id
}

func (w *Workflow) Name() string {
	return w.name
}

func (w *Workflow) Description() string {
	return w.description
}

func (w *Workflow) Steps() []api.WorkflowStep {
	steps := make([]api.WorkflowStep, 0, len(w.steps))
	for _, step := range w.steps {
		steps = append(steps, api.WorkflowStep{Name: step.Name(), Description: step.Description()})
	}
	return steps
}

func (w *Workflow) InputSchema() []byte {
	return w.inputSchema
}

// Run executes the steps in order and reports progress through emit. It stops
// at the first failing step or when ctx is done.
func (w *Workflow) Run(ctx context.Context, input abstractions.RunInput, emit abstractions.EventSink) (string, error) {
	if emit == nil {
		emit = func(api.RunEvent) {}
	}
	logger := w.logger.With(constants.LOG_WORKFLOW_ID, w.id, constants.LOG_RUN_ID, input.RunID)

	ctx, span := w.tracer.Start(ctx, "workflow "+w.id, trace.WithAttributes(
		attribute.String("workflow.id", w.id),
		attribute.String("workflow.run_id", input.RunID),
	))
	defer span.End()

	event := func(eventType api.EventType, step string) api.RunEvent {
		return api.RunEvent{
			Event:      eventType,
			RunID:      input.RunID,
			WorkflowID: w.id,
			SessionID:  input.SessionID,
			StepName:   step,
			CreatedAt:  time.Now().UTC(),
		}
	}

	if w.validate != nil {
		if err := w.validate(ctx, input); err != nil {
			span.SetStatus(codes.Error, "invalid input")
			return "", &InputError{Err: err}
		}
	}

	emit(event(api.EventWorkflowStarted, ""))
	session := NewSession(input)

	for _, step := range w.steps {
		if err := ctx.Err(); err != nil {
			logger.Info("Workflow run cancelled", constants.LOG_STEP, step.Name())
			emit(event(api.EventWorkflowCancelled, step.Name()))
			return "", err
		}

		emit(event(api.EventStepStarted, step.Name()))
		output, err := w.runStep(ctx, step, session)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Workflow run cancelled", constants.LOG_STEP, step.Name())
				emit(event(api.EventWorkflowCancelled, step.Name()))
				return "", ctx.Err()
			}
			logger.Error("Workflow step failed", constants.LOG_STEP, step.Name(), constants.LOG_ERROR, err.Error())
			failed := event(api.EventStepFailed, step.Name())
			failed.Error = err.Error()
			emit(failed)

			runFailed := event(api.EventWorkflowFailed, step.Name())
			runFailed.Error = err.Error()
			emit(runFailed)
			span.SetStatus(codes.Error, err.Error())
			return "", &StepError{Step: step.Name(), Err: err}
		}

		session.SetOutput(step.Name(), output)
		completed := event(api.EventStepCompleted, step.Name())
		completed.Content = output
		emit(completed)
	}

	content := session.LastOutput()
	done := event(api.EventWorkflowCompleted, "")
	done.Content = content
	emit(done)
	logger.Info("Workflow run completed", "steps", len(w.steps))
	return content, nil
}

func (w *Workflow) runStep(ctx context.Context, step Step, session *Session) (string, error) {
	ctx, span := w.tracer.Start(ctx, "step "+step.Name(), trace.WithAttributes(attribute.String("workflow.step", step.Name())))
	defer span.End()

	output, err := step.Execute(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return output, err
}

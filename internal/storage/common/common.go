package common

import (
	"strings"
	"time"

	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

// GetOverallRunStatus aggregates the step statuses of a run into the run status.
// total is the number of steps of the workflow, steps that have not started yet
// are absent from run.Steps.
func GetOverallRunStatus(run *api.RunResource, total int) (api.State, *api.MessageInfo) {
	// group all steps by state
	stepStates := make(map[api.State]int)
	var failures []string
	for _, step := range run.Steps {
		stepStates[step.Status]++
		if step.Status == api.StateFailed && step.ErrorMessage != nil {
			failures = append(failures, "Step "+step.Name+" failed with message: "+step.ErrorMessage.Message)
		}
	}

	completed, failed, running, cancelled := stepStates[api.StateCompleted], stepStates[api.StateFailed], stepStates[api.StateRunning], stepStates[api.StateCancelled]

	switch {
	case failed > 0:
		return api.StateFailed, &api.MessageInfo{
			Message:     "Workflow run failed. " + strings.Join(failures, "\n"),
			MessageCode: constants.MESSAGE_CODE_RUN_FAILED,
		}
	case cancelled > 0:
		return api.StateCancelled, &api.MessageInfo{
			Message:     "Workflow run was cancelled",
			MessageCode: constants.MESSAGE_CODE_RUN_CANCELLED,
		}
	case total > 0 && completed == total:
		return api.StateCompleted, &api.MessageInfo{
			Message:     "Workflow run is completed",
			MessageCode: constants.MESSAGE_CODE_RUN_COMPLETED,
		}
	case running > 0 || completed > 0:
		return api.StateRunning, &api.MessageInfo{
			Message:     "Workflow run is running",
			MessageCode: constants.MESSAGE_CODE_RUN_STARTED,
		}
	default:
		return api.StatePending, &api.MessageInfo{
			Message:     "Workflow run is pending",
			MessageCode: constants.MESSAGE_CODE_RUN_CREATED,
		}
	}
}

// UpdateStepStatus applies a step event to the run, adding the step the first time it is seen
func UpdateStepStatus(run *api.RunResource, event api.RunEvent) {
	if event.StepName == "" {
		return
	}
	if run.Steps == nil {
		run.Steps = make([]api.StepStatus, 0)
	}
	index := -1
	for i, step := range run.Steps {
		if step.Name == event.StepName {
			index = i
			break
		}
	}
	if index < 0 {
		run.Steps = append(run.Steps, api.StepStatus{Name: event.StepName, Status: api.StatePending})
		index = len(run.Steps) - 1
	}

	step := &run.Steps[index]
	at := event.CreatedAt
	switch event.Event {
	case api.EventStepStarted:
		step.Status = api.StateRunning
		step.StartedAt = &at
	case api.EventStepCompleted:
		step.Status = api.StateCompleted
		step.Content = event.Content
		finishStep(step, at)
	case api.EventStepFailed:
		step.Status = api.StateFailed
		step.ErrorMessage = &api.MessageInfo{
			Message:     event.Error,
			MessageCode: constants.MESSAGE_CODE_STEP_FAILED,
		}
		finishStep(step, at)
	}
}

// CancelRunningSteps marks steps interrupted by a cancellation
func CancelRunningSteps(run *api.RunResource, at time.Time) {
	for i := range run.Steps {
		if run.Steps[i].Status == api.StateRunning || run.Steps[i].Status == api.StatePending {
			run.Steps[i].Status = api.StateCancelled
			finishStep(&run.Steps[i], at)
		}
	}
}

func finishStep(step *api.StepStatus, at time.Time) {
	step.CompletedAt = &at
	if step.StartedAt != nil {
		step.DurationSeconds = at.Sub(*step.StartedAt).Seconds()
	}
}

package api

import (
	"fmt"
	"time"
)

// State represents the run state enum
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

func (s State) String() string {
	return string(s)
}

// IsFinal reports whether no further transitions are possible from s.
func (s State) IsFinal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

func GetState(s string) (State, error) {
	switch s {
	case string(StatePending):
		return StatePending, nil
	case string(StateRunning):
		return StateRunning, nil
	case string(StateCompleted):
		return StateCompleted, nil
	case string(StateFailed):
		return StateFailed, nil
	case string(StateCancelled):
		return StateCancelled, nil
	default:
		return State(s), fmt.Errorf("invalid state: %s", s)
	}
}

// MessageInfo represents a message from a downstream service
type MessageInfo struct {
	Message     string `json:"message"`
	MessageCode string `json:"message_code"`
}

// StepStatus represents status of an individual step in a workflow run
type StepStatus struct {
	Name            string       `json:"name"`
	Status          State        `json:"status"`
	Content         string       `json:"content,omitempty"`
	ErrorMessage    *MessageInfo `json:"error_message,omitempty"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
	DurationSeconds float64      `json:"duration_seconds,omitempty"`
}

// RunRequest is the decoded form of POST /workflows/{workflow_id}/runs
type RunRequest struct {
	Message   map[string]any `json:"message" validate:"required"`
	Stream    bool           `json:"stream"`
	SessionID string         `json:"session_id,omitempty" validate:"omitempty,max=128"`
	UserID    string         `json:"user_id,omitempty" validate:"omitempty,max=128"`
}

// RunResource represents a workflow run resource response
type RunResource struct {
	Resource
	WorkflowID  string         `json:"workflow_id"`
	SessionID   string         `json:"session_id"`
	UserID      string         `json:"user_id,omitempty"`
	Status      State          `json:"status"`
	Message     *MessageInfo   `json:"message,omitempty"`
	Input       map[string]any `json:"input"`
	Steps       []StepStatus   `json:"steps"`
	Content     string         `json:"content,omitempty"`
	ArtifactURL *string        `json:"artifact_url,omitempty"`
}

// RunResourceList represents list of run resources with pagination
type RunResourceList struct {
	Page
	Items []RunResource `json:"items"`
}

// EventType names the events emitted while a workflow run progresses
type EventType string

const (
	EventWorkflowStarted   EventType = "WorkflowStarted"
	EventStepStarted       EventType = "StepStarted"
	EventStepCompleted     EventType = "StepCompleted"
	EventStepFailed        EventType = "StepFailed"
	EventWorkflowCompleted EventType = "WorkflowCompleted"
	EventWorkflowFailed    EventType = "WorkflowFailed"
	EventWorkflowCancelled EventType = "WorkflowCancelled"
)

// RunEvent is a single progress notification for a run, streamed to clients as SSE
type RunEvent struct {
	Event      EventType `json:"event"`
	RunID      string    `json:"run_id"`
	WorkflowID string    `json:"workflow_id"`
	SessionID  string    `json:"session_id,omitempty"`
	StepName   string    `json:"step_name,omitempty"`
	Content    string    `json:"content,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

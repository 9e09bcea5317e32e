package abstractions

import (
	"context"

	"github.com/playbook-ai/playbook-ai/pkg/api"
)

// EventSink receives the progress events of a run in the order they happen.
type EventSink func(event api.RunEvent)

// RunInput is what a workflow receives for a single run. Message is the decoded
// request message, passed through unmodified.
type RunInput struct {
	RunID     string
	SessionID string
	UserID    string
	Message   map[string]any
}

// Workflow is the capability the server needs from a served workflow. The
// server never looks behind this interface.
type Workflow interface {
	ID() string
	Name() string
	Description() string
	Steps() []api.WorkflowStep
	// InputSchema returns the JSON schema the run message must satisfy.
	InputSchema() []byte
	Run(ctx context.Context, input RunInput, emit EventSink) (string, error)
}

// ArtifactStore archives the final output of completed runs.
type ArtifactStore interface {
	Name() string
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

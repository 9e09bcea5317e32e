package abstractions

import (
	"context"
	"time"

	"github.com/playbook-ai/playbook-ai/pkg/api"
)

// Storage persists workflow run records.
// This interface must be decoupled from the service HTTP layer
type Storage interface {
	GetDatasourceName() string
	Ping(timeout time.Duration) error

	CreateRun(ctx context.Context, run *api.RunResource) error
	GetRun(ctx context.Context, workflowID string, id string) (*api.RunResource, error)
	GetRuns(ctx context.Context, workflowID string, limit int, offset int, statusFilter string) (*api.RunResourceList, error)
	UpdateRun(ctx context.Context, run *api.RunResource) error

	Close() error
}

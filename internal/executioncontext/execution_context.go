package executioncontext

import (
	"context"
	"log/slog"
	"time"
)

// ExecutionContext contains execution context for API operations. This pattern enables
// type-safe passing of configuration and state to workflow-related handlers, which
// receive an ExecutionContext instead of a raw http.Request.
//
// The ExecutionContext contains:
//   - Ctx: the request context, cancelled when the client goes away
//   - Logger: A request-scoped logger with enriched fields (request_id, method, uri, etc.)
//   - RequestID: the caller supplied or generated request id
type ExecutionContext struct {
	Ctx       context.Context
	RequestID string
	Logger    *slog.Logger
	StartedAt time.Time
}

func NewExecutionContext(
	ctx context.Context,
	requestID string,
	logger *slog.Logger,
) *ExecutionContext {
	return &ExecutionContext{
		Ctx:       ctx,
		RequestID: requestID,
		Logger:    logger,
		StartedAt: time.Now(),
	}
}

// WithLogger returns a copy of the execution context that logs with logger
func (e *ExecutionContext) WithLogger(logger *slog.Logger) *ExecutionContext {
	c := *e
	c.Logger = logger
	return &c
}

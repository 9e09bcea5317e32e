package abstractions

import (
	"context"
	"log/slog"
)

// Runtime interface defines the methods for running agent prompts against a model. Concrete implementations
// hold the specific aspects of the various model runtimes (i.e. local, anthropic, etc.). No other places in
// the code should be pointing directly to a model vendor SDK.
type Runtime interface {
	WithLogger(logger *slog.Logger) Runtime
	Name() string
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is a single model request issued by an agent step.
type Prompt struct {
	System    string
	User      string
	MaxTokens int
}

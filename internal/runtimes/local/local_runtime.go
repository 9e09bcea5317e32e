package local

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
)

// LocalRuntime answers prompts without calling a model. The output only
// depends on the prompt, which makes it usable offline and in tests.
type LocalRuntime struct {
	logger *slog.Logger
}

func NewLocalRuntime(logger *slog.Logger) (abstractions.Runtime, error) {
	return &LocalRuntime{logger: logger}, nil
}

func (r *LocalRuntime) WithLogger(logger *slog.Logger) abstractions.Runtime {
	return &LocalRuntime{
		logger: logger,
	}
}

func (r *LocalRuntime) Generate(ctx context.Context, prompt abstractions.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.logger.Debug("Generating local response", "prompt_length", len(prompt.User))

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", firstLine(prompt.System))
	for _, line := range strings.Split(strings.TrimSpace(prompt.User), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fmt.Fprintf(&sb, "- %s\n", line)
	}
	return sb.String(), nil
}

func (r *LocalRuntime) Name() string {
	return "local"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "Response"
	}
	return s
}

package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
)

// PromptFunc renders the user prompt of an agent from the session state
type PromptFunc func(session *Session) (string, error)

// Agent is a step answered by a model runtime
type Agent struct {
	name         string
	description  string
	role         string
	instructions []string
	runtime      abstractions.Runtime
	prompt       PromptFunc
	maxTokens    int
}

func NewAgent(name string, role string, description string, runtime abstractions.Runtime, prompt PromptFunc, instructions ...string) *Agent {
	return &Agent{
		name:         name,
		description:  description,
		role:         role,
		instructions: instructions,
		runtime:      runtime,
		prompt:       prompt,
	}
}

// WithMaxTokens caps the length of the agent response, 0 keeps the runtime default
func (a *Agent) WithMaxTokens(maxTokens int) *Agent {
	a.maxTokens = maxTokens
	return a
}

func (a *Agent) Name() string {
	return a.name
}

func (a *Agent) Description() string {
	return a.description
}

// SystemPrompt is the role followed by the instruction list
func (a *Agent) SystemPrompt() string {
	var sb strings.Builder
	sb.WriteString(a.role)
	if len(a.instructions) > 0 {
		sb.WriteString("\n\nInstructions:")
		for _, instruction := range a.instructions {
			sb.WriteString("\n- ")
			sb.WriteString(instruction)
		}
	}
	return sb.String()
}

func (a *Agent) Execute(ctx context.Context, session *Session) (string, error) {
	if a.runtime == nil {
		return "", errors.New("agent has no model runtime")
	}
	user, err := a.prompt(session)
	if err != nil {
		return "", err
	}
	output, err := a.runtime.Generate(ctx, abstractions.Prompt{
		System:    a.SystemPrompt(),
		User:      user,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(output) == "" {
		return "", fmt.Errorf("agent %s returned an empty response", a.name)
	}
	return output, nil
}

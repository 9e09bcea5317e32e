package workflows

import (
	"fmt"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
)

// StepOutput is the recorded result of a finished step
type StepOutput struct {
	Step    string
	Content string
}

// Session is the state shared by the steps of one run
type Session struct {
	RunID     string
	SessionID string
	UserID    string
	Input     map[string]any
	outputs   []StepOutput
}

func NewSession(input abstractions.RunInput) *Session {
	return &Session{
		RunID:     input.RunID,
		SessionID: input.SessionID,
		UserID:    input.UserID,
		Input:     input.Message,
	}
}

// InputString returns the string value of an input field, or "" when absent
func (s *Session) InputString(key string) string {
	v, ok := s.Input[key]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

func (s *Session) SetOutput(step string, content string) {
	s.outputs = append(s.outputs, StepOutput{Step: step, Content: content})
}

// Output returns the output of a previous step
func (s *Session) Output(step string) (string, bool) {
	for _, output := range s.outputs {
		if output.Step == step {
			return output.Content, true
		}
	}
	return "", false
}

func (s *Session) Outputs() []StepOutput {
	return append([]StepOutput(nil), s.outputs...)
}

func (s *Session) LastOutput() string {
	if len(s.outputs) == 0 {
		return ""
	}
	return s.outputs[len(s.outputs)-1].Content
}

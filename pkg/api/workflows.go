package api

// WorkflowSummary describes a served workflow
type WorkflowSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WorkflowStep describes a single step of a workflow
type WorkflowStep struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WorkflowDetail represents response for getting a single workflow
type WorkflowDetail struct {
	WorkflowSummary
	Steps       []WorkflowStep `json:"steps"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// WorkflowList represents response for listing workflows
type WorkflowList struct {
	TotalCount int               `json:"total_count"`
	Items      []WorkflowSummary `json:"items"`
}

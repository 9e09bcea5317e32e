package api

// InterfaceResource describes an additional interface mounted on the server
type InterfaceResource struct {
	Type  string `json:"type"`
	Route string `json:"route"`
}

// ConfigResponse represents the server configuration report served on /config
type ConfigResponse struct {
	OSID        string              `json:"os_id"`
	Description string              `json:"description,omitempty"`
	Version     string              `json:"version,omitempty"`
	Workflows   []WorkflowSummary   `json:"workflows"`
	Databases   []string            `json:"databases"`
	Interfaces  []InterfaceResource `json:"interfaces"`
	Artifacts   string              `json:"artifacts,omitempty"`
}

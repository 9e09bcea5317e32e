package api

// HealthStatusHealthy is the only status the liveness endpoint reports.
const HealthStatusHealthy = "healthy"

// HealthResponse represents health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

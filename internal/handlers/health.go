package handlers

import (
	"net/http"

	"github.com/playbook-ai/playbook-ai/internal/http_wrappers"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

// HealthHandler reports the service as healthy. It shares no state with other
// requests, the response is built for every call.
func HealthHandler(service string, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http_wrappers.NewResponseWrapper(w, nil).WriteJSON(api.HealthResponse{
			Status:  api.HealthStatusHealthy,
			Service: service,
			Version: version,
		}, http.StatusOK)
	}
}

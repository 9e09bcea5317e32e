package server

import (
	"net/http"
)

const (
	corsAllowMethods = "GET, POST, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Global-Transaction-Id, Mcp-Session-Id, Mcp-Protocol-Version"
	corsExposeHeader = "X-Global-Transaction-Id, Mcp-Session-Id"
)

// CorsMiddleware lets the control plane UI and browser clients on origin call the API.
// An empty origin allows any origin.
func CorsMiddleware(next http.Handler, origin string) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
		w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
		w.Header().Set("Access-Control-Expose-Headers", corsExposeHeader)
		w.Header().Set("Access-Control-Max-Age", "3600")
		if origin != "*" {
			w.Header().Add("Vary", "Origin")
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package constants

const (
	// SERVICE_NAME is reported by the health endpoint
	SERVICE_NAME = "playbook-ai-api"
	// DEFAULT_VERSION is reported when no version is linked into the binary
	DEFAULT_VERSION = "1.0.0"
	// DEFAULT_PORT is used when the PORT environment variable is not set
	DEFAULT_PORT = 8080
	// REQUEST_ID_HEADER carries the caller supplied request id
	REQUEST_ID_HEADER = "X-Global-Transaction-Id"
)

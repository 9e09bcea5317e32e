package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/config"
	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/internal/handlers"
)

const (
	// OSID identifies the server in the configuration report
	OSID = "playbook-ai-sales-intelligence"
	// OSDescription is reported next to OSID
	OSDescription = "Complete sales intelligence pipeline API - End-to-end vendor analysis, prospect research, and sales playbook generation"

	HealthPath = "/health"

	bannerRule = "================================================================================"
)

// Application is the web application produced by the server adapter
type Application interface {
	http.Handler
	AddRoute(method string, path string, handler http.Handler) error
}

// BuildFunc constructs the server adapter for the workflows and returns its application
type BuildFunc func(id string, description string, workflows []abstractions.Workflow) (Application, error)

// ListenFunc serves app on port until ctx is done
type ListenFunc func(ctx context.Context, cfg config.ServiceConfig, app http.Handler) error

// Run builds the application, adds the health route, prints the banner to out
// and hands the application to listen. Construction errors are returned before
// anything is written.
func Run(ctx context.Context, cfg config.ServiceConfig, workflows []abstractions.Workflow, build BuildFunc, listen ListenFunc, out io.Writer) error {
	app, err := build(OSID, OSDescription, workflows)
	if err != nil {
		return fmt.Errorf("failed to build the application: %w", err)
	}
	version := cfg.Version
	if version == "" {
		version = constants.DEFAULT_VERSION
	}
	if err := app.AddRoute(http.MethodGet, HealthPath, handlers.HealthHandler(constants.SERVICE_NAME, version)); err != nil {
		return fmt.Errorf("failed to add the health route: %w", err)
	}

	if _, err := io.WriteString(out, Banner(cfg.Port)); err != nil {
		return fmt.Errorf("failed to write the banner: %w", err)
	}
	return listen(ctx, cfg, app)
}

// Banner is printed once before the listener starts
func Banner(port int) string {
	var b strings.Builder
	b.WriteString("\n" + bannerRule + "\n")
	b.WriteString("PLAYBOOK AI - SALES INTELLIGENCE API SERVER\n")
	b.WriteString(bannerRule + "\n")
	b.WriteString("\nStarting AgentOS API Server...\n")
	fmt.Fprintf(&b, "\nAPI running on port %d\n", port)
	b.WriteString("\n" + bannerRule + "\n\n")
	return b.String()
}

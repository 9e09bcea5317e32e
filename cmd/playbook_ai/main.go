package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/playbook-ai/playbook-ai/cmd/playbook_ai/server"
	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/agentos"
	"github.com/playbook-ai/playbook-ai/internal/artifacts"
	"github.com/playbook-ai/playbook-ai/internal/bootstrap"
	"github.com/playbook-ai/playbook-ai/internal/config"
	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/internal/logging"
	"github.com/playbook-ai/playbook-ai/internal/otel"
	"github.com/playbook-ai/playbook-ai/internal/runtimes"
	"github.com/playbook-ai/playbook-ai/internal/storage"
	"github.com/playbook-ai/playbook-ai/internal/validation"
	"github.com/playbook-ai/playbook-ai/internal/workflows/playbook"
)

var (
	// Version can be set during the compilation
	Version string = constants.DEFAULT_VERSION
	// Build is set during the compilation
	Build string
	// BuildDate is set during the compilation
	BuildDate string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "playbook-ai: %v\n", err)
		os.Exit(1)
	}
}

// run serves until ctx is done, the banner goes to stdout
func run(ctx context.Context, args []string, stdout io.Writer) error {
	logger, logShutdown, err := logging.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create service logger: %w", err)
	}
	defer func() {
		_ = logShutdown()
	}()

	serviceConfig, err := config.LoadConfig(logger, Version, Build, BuildDate, args)
	if err != nil {
		logger.Error("Failed to create service config", "error", err.Error())
		return err
	}

	otelShutdown, err := otel.SetupOTEL(ctx, serviceConfig.OTEL, constants.SERVICE_NAME, Version, logger)
	if err != nil {
		logger.Error("Failed to setup OTEL", "error", err.Error())
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Warn("Failed to shutdown OTEL", "error", err.Error())
		}
	}()

	store, err := storage.NewStorage(serviceConfig, logger)
	if err != nil {
		logger.Error("Failed to create storage", "error", err.Error())
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close storage", "error", err.Error())
		}
	}()

	runtime, err := runtimes.NewRuntime(logger, serviceConfig)
	if err != nil {
		logger.Error("Failed to create runtime", "error", err.Error())
		return err
	}

	artifactStore, err := artifacts.NewArtifactStore(ctx, serviceConfig.Artifacts, logger)
	if err != nil {
		logger.Error("Failed to create artifact store", "error", err.Error())
		return err
	}

	validate, err := validation.NewValidator()
	if err != nil {
		logger.Error("Failed to create validator", "error", err.Error())
		return err
	}

	workflow, err := playbook.NewWorkflow(runtime, validate, logger)
	if err != nil {
		logger.Error("Failed to create workflow", "error", err.Error())
		return err
	}

	build := func(id string, description string, workflows []abstractions.Workflow) (bootstrap.Application, error) {
		agentOS, err := agentos.New(id, description, workflows,
			agentos.WithLogger(logger),
			agentos.WithStorage(store),
			agentos.WithArtifactStore(artifactStore),
			agentos.WithValidator(validate),
			agentos.WithVersion(Version),
			agentos.WithMCP(serviceConfig.Service.EnableMCP),
		)
		if err != nil {
			return nil, err
		}
		return agentOS.GetApp(), nil
	}
	listen := func(ctx context.Context, cfg config.ServiceConfig, app http.Handler) error {
		return server.NewServer(cfg, app, logger).Start(ctx)
	}

	logger.Info("Starting server",
		"version", Version,
		"build", Build,
		"build_date", BuildDate,
		"port", serviceConfig.Service.Port,
		"local_mode", serviceConfig.Service.LocalMode,
		"runtime", runtime.Name(),
	)
	if err := bootstrap.Run(ctx, *serviceConfig.Service, []abstractions.Workflow{workflow}, build, listen, stdout); err != nil {
		logger.Error("Server failed", "error", err.Error())
		return err
	}
	logger.Info("Server shutdown gracefully")
	return nil
}

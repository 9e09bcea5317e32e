package agentos

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/internal/executor"
	"github.com/playbook-ai/playbook-ai/internal/handlers"
	"github.com/playbook-ai/playbook-ai/internal/storage/sql"
	"github.com/playbook-ai/playbook-ai/internal/validation"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

// MCPPath is where the MCP streamable HTTP endpoint is mounted
const MCPPath = "/mcp"

// AgentOS serves a set of workflows over HTTP: run endpoints, API documents,
// a configuration report and a small control plane UI.
type AgentOS struct {
	id          string
	description string
	version     string
	workflows   []abstractions.Workflow

	logger    *slog.Logger
	storage   abstractions.Storage
	artifacts abstractions.ArtifactStore
	validate  *validator.Validate
	executor  *executor.Executor
	enableMCP bool

	app *App
}

type Option func(*AgentOS)

func WithLogger(logger *slog.Logger) Option {
	return func(o *AgentOS) { o.logger = logger }
}

// WithStorage sets the run storage, an in-memory sqlite database is used otherwise
func WithStorage(storage abstractions.Storage) Option {
	return func(o *AgentOS) { o.storage = storage }
}

func WithArtifactStore(store abstractions.ArtifactStore) Option {
	return func(o *AgentOS) { o.artifacts = store }
}

func WithValidator(validate *validator.Validate) Option {
	return func(o *AgentOS) { o.validate = validate }
}

func WithVersion(version string) Option {
	return func(o *AgentOS) { o.version = version }
}

// WithMCP mounts the workflows as MCP tools on /mcp
func WithMCP(enabled bool) Option {
	return func(o *AgentOS) { o.enableMCP = enabled }
}

// WithExecutor replaces the executor built from the storage and artifact store
func WithExecutor(exec *executor.Executor) Option {
	return func(o *AgentOS) { o.executor = exec }
}

// New validates the workflows and builds the application serving them.
func New(id string, description string, workflows []abstractions.Workflow, opts ...Option) (*AgentOS, error) {
	if id == "" {
		return nil, errors.New("agentos: id is required")
	}
	if len(workflows) == 0 {
		return nil, errors.New("agentos: at least one workflow is required")
	}
	seen := make(map[string]bool, len(workflows))
	for _, workflow := range workflows {
		if workflow == nil {
			return nil, errors.New("agentos: nil workflow")
		}
		if seen[workflow.ID()] {
			return nil, fmt.Errorf("agentos: duplicate workflow id %q", workflow.ID())
		}
		seen[workflow.ID()] = true
	}

	o := &AgentOS{
		id:          id,
		description: description,
		version:     constants.DEFAULT_VERSION,
		workflows:   workflows,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.storage == nil {
		storage, err := sql.NewStorage(map[string]any{"driver": sql.SQLITE_DRIVER, "url": ":memory:"}, o.logger)
		if err != nil {
			return nil, fmt.Errorf("agentos: default storage: %w", err)
		}
		o.storage = storage
	}
	if o.validate == nil {
		validate, err := validation.NewValidator()
		if err != nil {
			return nil, fmt.Errorf("agentos: validator: %w", err)
		}
		o.validate = validate
	}
	if o.executor == nil {
		o.executor = executor.New(o.storage, o.artifacts, o.logger)
	}

	info := handlers.ServerInfo{
		OSID:        o.id,
		Description: o.description,
		Version:     o.version,
	}
	if o.enableMCP {
		info.Interfaces = append(info.Interfaces, api.InterfaceResource{Type: "mcp", Route: MCPPath})
	}
	h := handlers.New(info, o.workflows, o.storage, o.executor, o.validate, o.artifacts)

	app, err := newApp(o, h)
	if err != nil {
		return nil, err
	}
	o.app = app
	o.logger.Info("AgentOS created", "os_id", o.id, "workflows", len(o.workflows), "mcp", o.enableMCP)
	return o, nil
}

func (o *AgentOS) ID() string { return o.id }

func (o *AgentOS) Description() string { return o.description }

func (o *AgentOS) Workflows() []abstractions.Workflow { return o.workflows }

// GetApp returns the HTTP application, further routes can be added to it
func (o *AgentOS) GetApp() *App {
	return o.app
}

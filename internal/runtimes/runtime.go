package runtimes

import (
	"fmt"
	"log/slog"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/config"
	"github.com/playbook-ai/playbook-ai/internal/runtimes/anthropic"
	"github.com/playbook-ai/playbook-ai/internal/runtimes/local"
)

const (
	ProviderLocal     = "local"
	ProviderAnthropic = "anthropic"
)

func NewRuntime(logger *slog.Logger, serviceConfig *config.Config) (abstractions.Runtime, error) {
	var runtime abstractions.Runtime
	var err error

	provider := ProviderLocal
	if serviceConfig.Model != nil {
		provider = serviceConfig.Model.Provider
	}
	if serviceConfig.Service != nil && serviceConfig.Service.LocalMode {
		provider = ProviderLocal
	}

	switch provider {
	case ProviderLocal, "":
		runtime, err = local.NewLocalRuntime(logger)
	case ProviderAnthropic:
		runtime, err = anthropic.NewAnthropicRuntime(logger, serviceConfig.Model)
	default:
		err = fmt.Errorf("unsupported model provider %q", provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Created model runtime", "runtime", runtime.Name())
	return runtime, nil
}

package storage

import (
	"log/slog"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/config"
	"github.com/playbook-ai/playbook-ai/internal/serviceerrors"
	"github.com/playbook-ai/playbook-ai/internal/storage/sql"
)

// NewStorage creates a new storage instance based on the configuration.
// It currently uses the SQL storage implementation.
func NewStorage(serviceConfig *config.Config, logger *slog.Logger) (abstractions.Storage, error) {
	if serviceConfig.Database == nil {
		return nil, serviceerrors.NewStorageError("database configuration is required")
	}
	name, settings, ok := serviceConfig.Database.EnabledSQL()
	if !ok {
		return nil, serviceerrors.NewStorageError("no enabled SQL database found in the configuration")
	}
	logger.Info("Using SQL database", "name", name)
	return sql.NewStorage(settings, logger)
}

package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel/attribute"

	// import the postgres driver - "pgx"
	_ "github.com/jackc/pgx/v5/stdlib"

	// import the sqlite driver - "sqlite"
	_ "modernc.org/sqlite"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/messages"
	se "github.com/playbook-ai/playbook-ai/internal/serviceerrors"
)

const (
	// These are the only drivers currently supported
	SQLITE_DRIVER   = "sqlite"
	POSTGRES_DRIVER = "pgx"

	// This is the only table currently supported
	TABLE_RUNS = "runs"
)

type SQLStorage struct {
	sqlConfig *SQLDatabaseConfig
	pool      *sql.DB
	logger    *slog.Logger
}

func NewStorage(config map[string]any, logger *slog.Logger) (abstractions.Storage, error) {
	var sqlConfig SQLDatabaseConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &sqlConfig,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}

	// check that the driver is supported
	switch sqlConfig.Driver {
	case SQLITE_DRIVER:
		break
	case POSTGRES_DRIVER:
		break
	default:
		return nil, getUnsupportedDriverError(sqlConfig.Driver)
	}

	logger = logger.With("driver", sqlConfig.Driver, "url", sqlConfig.getConnectionURL())
	logger.Info("Creating SQL storage")

	pool, err := otelsql.Open(sqlConfig.Driver, sqlConfig.URL,
		otelsql.WithAttributes(attribute.String("db.system", dbSystem(sqlConfig.Driver))),
		otelsql.WithDBName(sqlConfig.DatabaseName),
	)
	if err != nil {
		return nil, err
	}

	if sqlConfig.ConnMaxLifetime != nil {
		pool.SetConnMaxLifetime(*sqlConfig.ConnMaxLifetime)
	}
	if sqlConfig.MaxIdleConns != nil {
		pool.SetMaxIdleConns(*sqlConfig.MaxIdleConns)
	}
	if sqlConfig.MaxOpenConns != nil {
		pool.SetMaxOpenConns(*sqlConfig.MaxOpenConns)
	}
	if sqlConfig.isInMemory() {
		// a second connection would see a different, empty, database
		pool.SetMaxOpenConns(1)
	}

	storage := &SQLStorage{
		sqlConfig: &sqlConfig,
		pool:      pool,
		logger:    logger,
	}

	// ping the database to verify the DSN provided by the user is valid and the server is accessible
	logger.Info("Pinging SQL storage")
	if err := storage.Ping(1 * time.Second); err != nil {
		_ = pool.Close()
		return nil, err
	}

	// ensure the schemas are created
	logger.Info("Ensuring schemas are created")
	if err := storage.ensureSchema(); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return storage, nil
}

// Ping the database to verify DSN provided by the user is valid and the
// server accessible.
func (s *SQLStorage) Ping(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.pool.PingContext(ctx)
}

func (s *SQLStorage) GetDatasourceName() string {
	return s.sqlConfig.Driver
}

func (s *SQLStorage) exec(ctx context.Context, txn *sql.Tx, query string, args ...any) (sql.Result, error) {
	if txn != nil {
		return txn.ExecContext(ctx, query, args...)
	}
	return s.pool.ExecContext(ctx, query, args...)
}

func (s *SQLStorage) query(ctx context.Context, txn *sql.Tx, query string, args ...any) (*sql.Rows, error) {
	if txn != nil {
		return txn.QueryContext(ctx, query, args...)
	}
	return s.pool.QueryContext(ctx, query, args...)
}

func (s *SQLStorage) queryRow(ctx context.Context, txn *sql.Tx, query string, args ...any) *sql.Row {
	if txn != nil {
		return txn.QueryRowContext(ctx, query, args...)
	}
	return s.pool.QueryRowContext(ctx, query, args...)
}

// withTransaction runs fn inside a transaction. The transaction is rolled back
// when fn returns an error marked with WithRollback and committed otherwise.
func (s *SQLStorage) withTransaction(ctx context.Context, operation string, resourceID string, fn func(txn *sql.Tx) error) error {
	txn, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("Failed to start transaction", "operation", operation, "id", resourceID, "error", err)
		return se.NewServiceError(messages.DatabaseOperationFailed, "Type", "run", "ResourceId", resourceID, "Error", err.Error())
	}

	fnErr := fn(txn)
	if fnErr != nil && se.ShouldRollback(fnErr) {
		if rbErr := txn.Rollback(); rbErr != nil {
			s.logger.Error("Failed to rollback transaction", "operation", operation, "id", resourceID, "error", rbErr)
		}
		return fnErr
	}

	if err := txn.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "operation", operation, "id", resourceID, "error", err)
		return se.NewServiceError(messages.DatabaseOperationFailed, "Type", "run", "ResourceId", resourceID, "Error", err.Error())
	}
	return fnErr
}

func (s *SQLStorage) ensureSchema() error {
	schemas, err := schemasForDriver(s.sqlConfig.Driver)
	if err != nil {
		return err
	}
	for _, schema := range schemas {
		if _, err := s.exec(context.Background(), nil, schema); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLStorage) Close() error {
	return s.pool.Close()
}

func dbSystem(driver string) string {
	if driver == POSTGRES_DRIVER {
		return "postgresql"
	}
	return driver
}

func getUnsupportedDriverError(driver string) error {
	return fmt.Errorf("unsupported driver: %s", driver)
}

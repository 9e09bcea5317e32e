package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/playbook-ai/playbook-ai/internal/messages"
	se "github.com/playbook-ai/playbook-ai/internal/serviceerrors"
	"github.com/playbook-ai/playbook-ai/pkg/api"
)

// RunEntity is the JSON document stored in the entity column, the indexed
// fields live in their own columns.
type RunEntity struct {
	UserID      string           `json:"user_id,omitempty"`
	Input       map[string]any   `json:"input"`
	Steps       []api.StepStatus `json:"steps,omitempty"`
	Content     string           `json:"content,omitempty"`
	Message     *api.MessageInfo `json:"message,omitempty"`
	ArtifactURL *string          `json:"artifact_url,omitempty"`
}

// #######################################################################
// Run operations
// #######################################################################
func (s *SQLStorage) CreateRun(ctx context.Context, run *api.RunResource) error {
	entityJSON, err := createRunEntity(run)
	if err != nil {
		return err
	}
	s.logger.Info("Creating run", "id", run.ID, "workflow_id", run.WorkflowID, "status", run.Status)
	// (id, workflow_id, session_id, status, created_at, updated_at, entity)
	_, err = s.exec(ctx, nil, createAddRunStatement(s.sqlConfig.Driver),
		run.ID, run.WorkflowID, run.SessionID, string(run.Status),
		formatTimestamp(run.CreatedAt), formatTimestamp(run.UpdatedAt), string(entityJSON))
	if err != nil {
		s.logger.Error("Failed to create run", "error", err, "id", run.ID)
		return se.NewServiceError(messages.DatabaseOperationFailed, "Type", "run", "ResourceId", run.ID, "Error", err.Error())
	}
	return nil
}

func (s *SQLStorage) GetRun(ctx context.Context, workflowID string, id string) (*api.RunResource, error) {
	return s.getRunTransactional(ctx, nil, workflowID, id)
}

func (s *SQLStorage) getRunTransactional(ctx context.Context, txn *sql.Tx, workflowID string, id string) (*api.RunResource, error) {
	row := s.queryRow(ctx, txn, createGetRunStatement(s.sqlConfig.Driver), workflowID, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, se.NewNotFoundError(id, "run with ID %s not found", id)
		}
		s.logger.Error("Failed to get run", "error", err, "id", id)
		return nil, se.WithRollback(se.NewServiceError(messages.DatabaseOperationFailed, "Type", "run", "ResourceId", id, "Error", err.Error()))
	}
	return run, nil
}

func (s *SQLStorage) GetRuns(ctx context.Context, workflowID string, limit int, offset int, statusFilter string) (*api.RunResourceList, error) {
	// Get total count (with status filter if provided)
	countQuery, countArgs := createCountRunsStatement(s.sqlConfig.Driver, workflowID, statusFilter)
	var totalCount int
	if err := s.queryRow(ctx, nil, countQuery, countArgs...).Scan(&totalCount); err != nil {
		s.logger.Error("Failed to count runs", "error", err)
		return nil, se.NewServiceError(messages.QueryFailed, "Type", "runs", "Error", err.Error())
	}

	listQuery, listArgs := createListRunsStatement(s.sqlConfig.Driver, workflowID, limit, offset, statusFilter)
	rows, err := s.query(ctx, nil, listQuery, listArgs...)
	if err != nil {
		s.logger.Error("Failed to list runs", "error", err)
		return nil, se.NewServiceError(messages.QueryFailed, "Type", "runs", "Error", err.Error())
	}
	defer rows.Close()

	items := make([]api.RunResource, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			s.logger.Error("Failed to scan run row", "error", err)
			return nil, se.NewServiceError(messages.QueryFailed, "Type", "runs", "Error", err.Error())
		}
		items = append(items, *run)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("Error iterating run rows", "error", err)
		return nil, se.NewServiceError(messages.QueryFailed, "Type", "runs", "Error", err.Error())
	}

	// hrefs are populated by the handler from the request URL
	return &api.RunResourceList{
		Page: api.Page{
			Limit:      limit,
			Offset:     offset,
			TotalCount: totalCount,
		},
		Items: items,
	}, nil
}

// UpdateRun replaces the stored run. Runs that already reached a final state
// are left untouched so a late update can not resurrect a cancelled run.
func (s *SQLStorage) UpdateRun(ctx context.Context, run *api.RunResource) error {
	return s.withTransaction(ctx, "update run", run.ID, func(txn *sql.Tx) error {
		stored, err := s.getRunTransactional(ctx, txn, run.WorkflowID, run.ID)
		if err != nil {
			return err
		}
		if stored.Status.IsFinal() {
			s.logger.Warn("Ignoring update of a finished run", "id", run.ID, "status", stored.Status, "new_status", run.Status)
			return nil
		}

		entityJSON, err := createRunEntity(run)
		if err != nil {
			return se.WithRollback(err)
		}
		run.UpdatedAt = time.Now().UTC()
		_, err = s.exec(ctx, txn, createUpdateRunStatement(s.sqlConfig.Driver),
			run.SessionID, string(run.Status), formatTimestamp(run.UpdatedAt), string(entityJSON), run.WorkflowID, run.ID)
		if err != nil {
			s.logger.Error("Failed to update run", "error", err, "id", run.ID, "status", run.Status)
			return se.WithRollback(se.NewServiceError(messages.DatabaseOperationFailed, "Type", "run", "ResourceId", run.ID, "Error", err.Error()))
		}
		s.logger.Info("Updated run", "id", run.ID, "status", run.Status)
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*api.RunResource, error) {
	var id, workflowID, sessionID, statusStr, createdAt, updatedAt, entityJSON string
	if err := row.Scan(&id, &workflowID, &sessionID, &statusStr, &createdAt, &updatedAt, &entityJSON); err != nil {
		return nil, err
	}

	var entity RunEntity
	if err := json.Unmarshal([]byte(entityJSON), &entity); err != nil {
		return nil, se.NewServiceError(messages.JSONUnmarshalFailed, "Type", "run", "Error", err.Error())
	}
	status, err := api.GetState(statusStr)
	if err != nil {
		return nil, err
	}
	created, err := time.Parse(timestampLayout, createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := time.Parse(timestampLayout, updatedAt)
	if err != nil {
		return nil, err
	}

	return &api.RunResource{
		Resource: api.Resource{
			ID:        id,
			CreatedAt: created,
			UpdatedAt: updated,
		},
		WorkflowID:  workflowID,
		SessionID:   sessionID,
		UserID:      entity.UserID,
		Status:      status,
		Message:     entity.Message,
		Input:       entity.Input,
		Steps:       entity.Steps,
		Content:     entity.Content,
		ArtifactURL: entity.ArtifactURL,
	}, nil
}

func createRunEntity(run *api.RunResource) ([]byte, error) {
	entityJSON, err := json.Marshal(&RunEntity{
		UserID:      run.UserID,
		Input:       run.Input,
		Steps:       run.Steps,
		Content:     run.Content,
		Message:     run.Message,
		ArtifactURL: run.ArtifactURL,
	})
	if err != nil {
		return nil, se.NewServiceError(messages.InternalServerError, "Error", err.Error())
	}
	return entityJSON, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

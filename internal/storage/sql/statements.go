package sql

import (
	"fmt"
	"strings"
)

// timestampLayout sorts lexicographically, which the list query relies on
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func schemasForDriver(driver string) ([]string, error) {
	switch driver {
	case SQLITE_DRIVER, POSTGRES_DRIVER:
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + TABLE_RUNS + ` (
    id          VARCHAR(64) PRIMARY KEY,
    workflow_id VARCHAR(255) NOT NULL,
    session_id  VARCHAR(128) NOT NULL,
    status      VARCHAR(32) NOT NULL,
    created_at  VARCHAR(40) NOT NULL,
    updated_at  VARCHAR(40) NOT NULL,
    entity      TEXT NOT NULL
);`,
			`CREATE INDEX IF NOT EXISTS idx_runs_workflow_created ON ` + TABLE_RUNS + ` (workflow_id, created_at);`,
		}, nil
	default:
		return nil, getUnsupportedDriverError(driver)
	}
}

// placeholders returns n positional parameters in the syntax of the driver
func placeholders(driver string, n int) []string {
	params := make([]string, n)
	for i := range params {
		if driver == POSTGRES_DRIVER {
			params[i] = fmt.Sprintf("$%d", i+1)
		} else {
			params[i] = "?"
		}
	}
	return params
}

// createAddRunStatement the order or arguments is:
// id workflow_id session_id status created_at updated_at entity
func createAddRunStatement(driver string) string {
	p := placeholders(driver, 7)
	return fmt.Sprintf(`INSERT INTO %s (id, workflow_id, session_id, status, created_at, updated_at, entity) VALUES (%s);`,
		TABLE_RUNS, strings.Join(p, ", "))
}

// createGetRunStatement the order or arguments is:
// workflow_id id
func createGetRunStatement(driver string) string {
	p := placeholders(driver, 2)
	return fmt.Sprintf(`SELECT id, workflow_id, session_id, status, created_at, updated_at, entity FROM %s WHERE workflow_id = %s AND id = %s;`,
		TABLE_RUNS, p[0], p[1])
}

// createUpdateRunStatement the order or arguments is:
// session_id status updated_at entity workflow_id id
func createUpdateRunStatement(driver string) string {
	p := placeholders(driver, 6)
	return fmt.Sprintf(`UPDATE %s SET session_id = %s, status = %s, updated_at = %s, entity = %s WHERE workflow_id = %s AND id = %s;`,
		TABLE_RUNS, p[0], p[1], p[2], p[3], p[4], p[5])
}

func createCountRunsStatement(driver string, workflowID string, statusFilter string) (string, []any) {
	where, args := runsFilter(driver, workflowID, statusFilter)
	return fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s;`, TABLE_RUNS, where), args
}

// createListRunsStatement returns newest runs first
func createListRunsStatement(driver string, workflowID string, limit int, offset int, statusFilter string) (string, []any) {
	where, args := runsFilter(driver, workflowID, statusFilter)
	p := placeholders(driver, len(args)+2)
	query := fmt.Sprintf(`SELECT id, workflow_id, session_id, status, created_at, updated_at, entity FROM %s WHERE %s ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %s;`,
		TABLE_RUNS, where, p[len(args)], p[len(args)+1])
	return query, append(args, limit, offset)
}

func runsFilter(driver string, workflowID string, statusFilter string) (string, []any) {
	args := []any{workflowID}
	if statusFilter != "" {
		args = append(args, statusFilter)
	}
	p := placeholders(driver, len(args))
	where := "workflow_id = " + p[0]
	if statusFilter != "" {
		where += " AND status = " + p[1]
	}
	return where, args
}

package constants

const (
	MESSAGE_CODE_RUN_CREATED   = "workflow_run_created"
	MESSAGE_CODE_RUN_STARTED   = "workflow_run_started"
	MESSAGE_CODE_RUN_COMPLETED = "workflow_run_completed"
	MESSAGE_CODE_RUN_CANCELLED = "workflow_run_cancelled"
	MESSAGE_CODE_RUN_FAILED    = "workflow_run_failed"
	MESSAGE_CODE_STEP_FAILED   = "workflow_step_failed"
)

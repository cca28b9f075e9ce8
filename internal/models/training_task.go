package models

// TrainingTask represents a run of a training skill over many accounts
type TrainingTask struct {
	ID int64 `json:"id" db:"id"`

	// Task identification
	SkillName string `json:"skill_name" db:"skill_name"`
	TaskType  string `json:"task_type" db:"task_type"` // INCREMENTAL, FULL_RECOMPUTE

	// Status
	Status          string `json:"status" db:"status"` // pending, running, completed, failed
	ProgressPercent int    `json:"progress_percent" db:"progress_percent"`

	ParamsJSON string `json:"params_json,omitempty" db:"params_json"`

	// Execution info
	TotalEntities     int   `json:"total_entities" db:"total_entities"`
	ProcessedEntities int   `json:"processed_entities" db:"processed_entities"`
	FailedEntities    int   `json:"failed_entities" db:"failed_entities"`
	StartTime         int64 `json:"start_time,omitempty" db:"start_time"` // Unix timestamp
	EndTime           int64 `json:"end_time,omitempty" db:"end_time"`     // Unix timestamp

	// Results
	ResultSummary string `json:"result_summary,omitempty" db:"result_summary"` // JSON object
	ErrorMessage  string `json:"error_message,omitempty" db:"error_message"`

	// Metadata
	CreatedBy string `json:"created_by,omitempty" db:"created_by"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
	UpdatedAt int64  `json:"updated_at" db:"updated_at"`
}

// TaskType constants
const (
	TaskTypeIncremental   = "INCREMENTAL"
	TaskTypeFullRecompute = "FULL_RECOMPUTE"
)

// TaskStatus constants
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// IsActive reports whether the task has not finished yet
func (t *TrainingTask) IsActive() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusRunning
}

// TaskFailure names an account a task could not process
type TaskFailure struct {
	AccountID string `json:"account_id"`
	Error     string `json:"error"`
}

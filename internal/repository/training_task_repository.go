package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jengzang/periodic-risk-go/internal/models"
)

// TrainingTaskRepository handles database operations for training tasks
type TrainingTaskRepository struct {
	db *sqlx.DB
}

// NewTrainingTaskRepository creates a new training task repository
func NewTrainingTaskRepository(db *sqlx.DB) *TrainingTaskRepository {
	return &TrainingTaskRepository{db: db}
}

const taskColumns = `
	id, skill_name, task_type, status, progress_percent, params_json,
	total_entities, processed_entities, failed_entities, start_time, end_time,
	result_summary, error_message, created_by, created_at, updated_at
`

// Create creates a new training task
func (r *TrainingTaskRepository) Create(ctx context.Context, task *models.TrainingTask) error {
	now := time.Now().Unix()
	task.CreatedAt, task.UpdatedAt = now, now

	query := `
		INSERT INTO training_tasks (
			skill_name, task_type, status, progress_percent, params_json,
			total_entities, processed_entities, failed_entities, start_time, end_time,
			result_summary, error_message, created_by, created_at, updated_at
		) VALUES (
			:skill_name, :task_type, :status, :progress_percent, :params_json,
			:total_entities, :processed_entities, :failed_entities, :start_time, :end_time,
			:result_summary, :error_message, :created_by, :created_at, :updated_at
		)
	`

	result, err := r.db.NamedExecContext(ctx, query, task)
	if err != nil {
		return fmt.Errorf("failed to create training task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	return nil
}

// GetByID retrieves a training task by ID
func (r *TrainingTaskRepository) GetByID(ctx context.Context, id int64) (*models.TrainingTask, error) {
	task := &models.TrainingTask{}
	err := r.db.GetContext(ctx, task, `SELECT `+taskColumns+` FROM training_tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("training task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get training task: %w", err)
	}

	return task, nil
}

// List retrieves training tasks with optional filters, newest first
func (r *TrainingTaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]*models.TrainingTask, error) {
	query := `SELECT ` + taskColumns + ` FROM training_tasks WHERE 1=1`

	args := []interface{}{}
	if filter.SkillName != "" {
		query += " AND skill_name = ?"
		args = append(args, filter.SkillName)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	tasks := []*models.TrainingTask{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list training tasks: %w", err)
	}

	return tasks, nil
}

// UpdateProgress updates the entity counters of a training task
func (r *TrainingTaskRepository) UpdateProgress(ctx context.Context, id int64, total, processed, failed int) error {
	percent := 0
	if total > 0 {
		percent = processed * 100 / total
	}

	query := `
		UPDATE training_tasks
		SET total_entities = ?, processed_entities = ?, failed_entities = ?,
			progress_percent = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, total, processed, failed, percent, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update task progress: %w", err)
	}

	return nil
}

// MarkAsRunning marks a task as running
func (r *TrainingTaskRepository) MarkAsRunning(ctx context.Context, id int64) error {
	now := time.Now().Unix()
	query := `
		UPDATE training_tasks
		SET status = ?, start_time = ?, updated_at = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, models.TaskStatusRunning, now, now, id); err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}

	return nil
}

// MarkAsCompleted marks a task as completed with a result summary
func (r *TrainingTaskRepository) MarkAsCompleted(ctx context.Context, id int64, resultSummary string) error {
	now := time.Now().Unix()
	query := `
		UPDATE training_tasks
		SET status = ?, end_time = ?, result_summary = ?,
			progress_percent = 100, updated_at = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, models.TaskStatusCompleted, now, resultSummary, now, id); err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}

	return nil
}

// MarkAsFailed marks a task as failed with an error message
func (r *TrainingTaskRepository) MarkAsFailed(ctx context.Context, id int64, errorMessage string) error {
	now := time.Now().Unix()
	query := `
		UPDATE training_tasks
		SET status = ?, end_time = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, models.TaskStatusFailed, now, errorMessage, now, id); err != nil {
		return fmt.Errorf("failed to mark task as failed: %w", err)
	}

	return nil
}

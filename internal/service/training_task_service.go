package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jengzang/periodic-risk-go/internal/analysis"
	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/repository"
)

// TrainingTaskService creates training tasks and runs them in the background
type TrainingTaskService struct {
	repo   *repository.TrainingTaskRepository
	deps   analysis.Deps
	logger zerolog.Logger

	mu      sync.Mutex
	running map[int64]context.CancelFunc
	wg      sync.WaitGroup
}

// NewTrainingTaskService creates a new training task service
func NewTrainingTaskService(repo *repository.TrainingTaskRepository, deps analysis.Deps) *TrainingTaskService {
	return &TrainingTaskService{
		repo:    repo,
		deps:    deps,
		logger:  deps.Logger,
		running: make(map[int64]context.CancelFunc),
	}
}

// CreateTask creates a task and starts its analyzer asynchronously
func (s *TrainingTaskService) CreateTask(ctx context.Context, skillName, taskType string, params map[string]interface{}, createdBy string) (*models.TrainingTask, error) {
	if err := validateTask(skillName, taskType); err != nil {
		return nil, err
	}

	var paramsJSON string
	if params != nil {
		paramsBytes, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize params: %w", err)
		}
		paramsJSON = string(paramsBytes)
	}

	task := &models.TrainingTask{
		SkillName:  skillName,
		TaskType:   taskType,
		Status:     models.TaskStatusPending,
		ParamsJSON: paramsJSON,
		CreatedBy:  createdBy,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.running[task.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.execute(runCtx, task.ID, skillName, taskType)

	return task, nil
}

// RunTask runs a task synchronously and returns it in its final state
func (s *TrainingTaskService) RunTask(ctx context.Context, skillName, taskType, createdBy string) (*models.TrainingTask, error) {
	if err := validateTask(skillName, taskType); err != nil {
		return nil, err
	}

	task := &models.TrainingTask{
		SkillName: skillName,
		TaskType:  taskType,
		Status:    models.TaskStatusPending,
		CreatedBy: createdBy,
	}
	// the row must exist even when ctx is already done, so the run is recorded
	if err := s.repo.Create(context.WithoutCancel(ctx), task); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	s.execute(ctx, task.ID, skillName, taskType)
	return s.repo.GetByID(context.Background(), task.ID)
}

func validateTask(skillName, taskType string) error {
	// Validate skill name
	if !analysis.IsRegisteredSkill(skillName) {
		return fmt.Errorf("%w: unknown skill %q", ErrInvalidRequest, skillName)
	}

	// Validate task type
	if taskType != models.TaskTypeIncremental && taskType != models.TaskTypeFullRecompute {
		return fmt.Errorf("%w: invalid task type %q", ErrInvalidRequest, taskType)
	}
	return nil
}

func (s *TrainingTaskService) execute(ctx context.Context, taskID int64, skillName, taskType string) {
	defer s.wg.Done()
	defer s.release(taskID)

	logger := s.logger.With().Int64("task_id", taskID).Str("skill", skillName).Logger()
	logger.Info().Str("type", taskType).Msg("starting training task")

	analyzer := analysis.GetAnalyzer(skillName, s.deps)
	if analyzer == nil {
		s.fail(logger, taskID, fmt.Sprintf("unknown skill: %s", skillName))
		return
	}

	if err := analyzer.Analyze(ctx, taskID, taskType); err != nil {
		msg := fmt.Sprintf("analysis failed: %v", err)
		if ctx.Err() != nil {
			msg = "task cancelled"
		}
		s.fail(logger, taskID, msg)
		return
	}

	logger.Info().Msg("training task completed")
}

// fail runs detached from the task context, which may already be cancelled
func (s *TrainingTaskService) fail(logger zerolog.Logger, taskID int64, msg string) {
	logger.Warn().Str("reason", msg).Msg("training task failed")
	if err := s.repo.MarkAsFailed(context.Background(), taskID, msg); err != nil {
		logger.Error().Err(err).Msg("failed to record task failure")
	}
}

func (s *TrainingTaskService) release(taskID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.running[taskID]; ok {
		cancel()
		delete(s.running, taskID)
	}
}

// GetTask retrieves a task by ID
func (s *TrainingTaskService) GetTask(ctx context.Context, id int64) (*models.TrainingTask, error) {
	return s.repo.GetByID(ctx, id)
}

// ListTasks retrieves tasks with optional filters
func (s *TrainingTaskService) ListTasks(ctx context.Context, filter models.TaskFilter) ([]*models.TrainingTask, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// CancelTask cancels a pending or running task
func (s *TrainingTaskService) CancelTask(ctx context.Context, id int64) error {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !task.IsActive() {
		return fmt.Errorf("%w: status %s", ErrTaskNotActive, task.Status)
	}

	s.mu.Lock()
	cancel, ok := s.running[id]
	s.mu.Unlock()
	if ok {
		// the worker records the failure once the analyzer returns
		cancel()
		return nil
	}

	// left over from a previous process
	return s.repo.MarkAsFailed(ctx, id, "task cancelled")
}

// Wait blocks until every started task has finished
func (s *TrainingTaskService) Wait() {
	s.wg.Wait()
}

// Shutdown cancels all running tasks and waits for them
func (s *TrainingTaskService) Shutdown() {
	s.mu.Lock()
	for _, cancel := range s.running {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

package analysis

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/jengzang/periodic-risk-go/internal/cache"
	"github.com/jengzang/periodic-risk-go/internal/repository"
	"github.com/jengzang/periodic-risk-go/internal/training"
)

// Analyzer is the interface that all training skills must implement
type Analyzer interface {
	// Analyze runs the skill for a given task
	// mode: models.TaskTypeIncremental or models.TaskTypeFullRecompute
	Analyze(ctx context.Context, taskID int64, mode string) error

	// GetName returns the name of the analyzer
	GetName() string
}

// Deps are the shared collaborators handed to analyzer factories
type Deps struct {
	DB      *sqlx.DB
	Trainer *training.Trainer
	Cache   cache.ProfileCache
	Logger  zerolog.Logger
}

// BaseAnalyzer provides common functionality for all analyzers
type BaseAnalyzer struct {
	Tasks  *repository.TrainingTaskRepository
	Name   string
	Logger zerolog.Logger
}

// NewBaseAnalyzer creates a new base analyzer
func NewBaseAnalyzer(db *sqlx.DB, name string, logger zerolog.Logger) *BaseAnalyzer {
	return &BaseAnalyzer{
		Tasks:  repository.NewTrainingTaskRepository(db),
		Name:   name,
		Logger: logger.With().Str("skill", name).Logger(),
	}
}

// GetName returns the analyzer name
func (a *BaseAnalyzer) GetName() string {
	return a.Name
}

// MarkTaskAsRunning marks a task as running
func (a *BaseAnalyzer) MarkTaskAsRunning(ctx context.Context, taskID int64) error {
	return a.Tasks.MarkAsRunning(ctx, taskID)
}

// MarkTaskAsCompleted marks a task as completed with a result summary
func (a *BaseAnalyzer) MarkTaskAsCompleted(ctx context.Context, taskID int64, summary string) error {
	return a.Tasks.MarkAsCompleted(ctx, taskID, summary)
}

// UpdateTaskProgress updates the entity counters of a task
func (a *BaseAnalyzer) UpdateTaskProgress(ctx context.Context, taskID int64, total, processed, failed int) error {
	return a.Tasks.UpdateProgress(ctx, taskID, total, processed, failed)
}

// AnalyzerFactory is a function that creates an analyzer instance
type AnalyzerFactory func(deps Deps) Analyzer

// AnalyzerRegistry maps skill names to analyzer factories
var AnalyzerRegistry = make(map[string]AnalyzerFactory)

// RegisterAnalyzer registers an analyzer factory for a skill name
func RegisterAnalyzer(skillName string, factory AnalyzerFactory) {
	AnalyzerRegistry[skillName] = factory
}

// GetAnalyzer retrieves an analyzer instance for a skill name
func GetAnalyzer(skillName string, deps Deps) Analyzer {
	factory, ok := AnalyzerRegistry[skillName]
	if !ok {
		return nil
	}
	return factory(deps)
}

// IsRegisteredSkill checks if an analyzer exists for a skill
func IsRegisteredSkill(skillName string) bool {
	_, ok := AnalyzerRegistry[skillName]
	return ok
}

// SkillNames returns the registered skills in name order
func SkillNames() []string {
	names := make([]string, 0, len(AnalyzerRegistry))
	for name := range AnalyzerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

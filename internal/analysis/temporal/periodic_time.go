package temporal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jengzang/periodic-risk-go/internal/analysis"
	"github.com/jengzang/periodic-risk-go/internal/cache"
	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/repository"
	"github.com/jengzang/periodic-risk-go/internal/training"
)

// SkillName is the skill that trains periodic time risk profiles
const SkillName = "periodic_time"

// maxReportedFailures caps the failures listed in a task summary
const maxReportedFailures = 20

func init() {
	analysis.RegisterAnalyzer(SkillName, NewPeriodicTimeAnalyzer)
}

// PeriodicTimeAnalyzer trains the hour, weekday and day-of-month densities
// of every account and stores them as risk profiles
type PeriodicTimeAnalyzer struct {
	*analysis.BatchAnalyzer
	events   *repository.EventRepository
	profiles *repository.RiskProfileRepository
	trainer  *training.Trainer
	cache    cache.ProfileCache
}

// Summary is stored as the result of a periodic_time task
type Summary struct {
	Mode     string               `json:"mode"`
	Stats    analysis.BatchStats  `json:"stats"`
	Trained  int                  `json:"trained"`
	Failures []models.TaskFailure `json:"failures,omitempty"`
}

// NewPeriodicTimeAnalyzer creates a new periodic time analyzer
func NewPeriodicTimeAnalyzer(deps analysis.Deps) analysis.Analyzer {
	trainer := deps.Trainer
	if trainer == nil {
		trainer = training.NewTrainer(training.DefaultConfig())
	}
	c := deps.Cache
	if c == nil {
		c = cache.NopCache{}
	}

	return &PeriodicTimeAnalyzer{
		BatchAnalyzer: analysis.NewBatchAnalyzer(deps.DB, SkillName, 100, deps.Logger),
		events:        repository.NewEventRepository(deps.DB),
		profiles:      repository.NewRiskProfileRepository(deps.DB),
		trainer:       trainer,
		cache:         c,
	}
}

// Analyze trains all accounts (full recompute) or only those with events
// newer than their profile (incremental)
func (a *PeriodicTimeAnalyzer) Analyze(ctx context.Context, taskID int64, mode string) error {
	a.Logger.Info().Int64("task_id", taskID).Str("mode", mode).Msg("starting analysis")

	if err := a.MarkTaskAsRunning(ctx, taskID); err != nil {
		return err
	}

	var accounts []string
	var err error
	switch mode {
	case models.TaskTypeFullRecompute:
		accounts, err = a.events.ListAccounts(ctx)
	case models.TaskTypeIncremental:
		accounts, err = a.events.ListStaleAccounts(ctx)
	default:
		return fmt.Errorf("unknown task mode: %s", mode)
	}
	if err != nil {
		return err
	}

	summary := Summary{Mode: mode}
	stats, err := a.ProcessInBatches(ctx, taskID, accounts, func(ctx context.Context, batch []string) (int, error) {
		trained, failures, err := a.trainBatch(ctx, batch)
		if err != nil {
			return 0, err
		}
		summary.Trained += trained
		for _, f := range failures {
			if len(summary.Failures) < maxReportedFailures {
				summary.Failures = append(summary.Failures, f)
			}
		}
		return len(failures), nil
	})
	if err != nil {
		return err
	}
	summary.Stats = stats

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := a.MarkTaskAsCompleted(ctx, taskID, string(payload)); err != nil {
		return err
	}

	a.Logger.Info().
		Int64("task_id", taskID).
		Int("accounts", stats.Total).
		Int("trained", summary.Trained).
		Int("failed", stats.Failed).
		Msg("analysis completed")
	return nil
}

func (a *PeriodicTimeAnalyzer) trainBatch(ctx context.Context, batch []string) (int, []models.TaskFailure, error) {
	samples, err := a.events.SamplesByAccounts(ctx, batch)
	if err != nil {
		return 0, nil, err
	}

	times := make(map[string][]time.Time, len(samples))
	for acc, sample := range samples {
		times[acc] = sample.Times
	}
	res, err := a.trainer.TrainAll(ctx, times)
	if err != nil {
		return 0, nil, err
	}
	// events ingested after the read stay newer than the profile
	for _, p := range res.Profiles {
		p.LastEventID = samples[p.AccountID].LastEventID
	}
	if err := a.profiles.SaveBatch(ctx, res.Profiles); err != nil {
		return 0, nil, err
	}

	for _, p := range res.Profiles {
		if err := a.cache.Delete(ctx, p.AccountID); err != nil {
			a.Logger.Warn().Err(err).Str("account_id", p.AccountID).Msg("failed to evict cached profile")
		}
	}

	failures := make([]models.TaskFailure, 0, len(res.Failures))
	for _, f := range res.Failures {
		failures = append(failures, models.TaskFailure{AccountID: f.AccountID, Error: f.Err.Error()})
	}
	return len(res.Profiles), failures, nil
}

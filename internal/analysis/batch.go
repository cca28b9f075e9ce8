package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// BatchAnalyzer provides base functionality for analyzers that work through
// a list of accounts
type BatchAnalyzer struct {
	*BaseAnalyzer
	BatchSize int // Number of accounts to process in each batch
}

// BatchStats counts the accounts a batch run went through
type BatchStats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// BatchFunc processes one batch and returns how many of its accounts failed
type BatchFunc func(ctx context.Context, batch []string) (failed int, err error)

// NewBatchAnalyzer creates a new batch analyzer
func NewBatchAnalyzer(db *sqlx.DB, name string, batchSize int, logger zerolog.Logger) *BatchAnalyzer {
	if batchSize <= 0 {
		batchSize = 100 // Default batch size
	}

	return &BatchAnalyzer{
		BaseAnalyzer: NewBaseAnalyzer(db, name, logger),
		BatchSize:    batchSize,
	}
}

// ProcessInBatches feeds accounts to fn in batches and records progress after
// each one. A batch whose fn returns an error counts as failed entirely and
// processing continues, unless ctx is done.
func (a *BatchAnalyzer) ProcessInBatches(ctx context.Context, taskID int64, accounts []string, fn BatchFunc) (BatchStats, error) {
	stats := BatchStats{Total: len(accounts)}
	if err := a.UpdateTaskProgress(ctx, taskID, stats.Total, 0, 0); err != nil {
		return stats, err
	}

	start := time.Now()
	for offset := 0; offset < len(accounts); offset += a.BatchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		end := min(offset+a.BatchSize, len(accounts))
		batch := accounts[offset:end]

		failed, err := fn(ctx, batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			a.Logger.Warn().Err(err).Int64("task_id", taskID).Int("offset", offset).Msg("batch failed")
			failed = len(batch)
		}

		stats.Processed = end
		stats.Failed += failed

		if err := a.UpdateTaskProgress(ctx, taskID, stats.Total, stats.Processed, stats.Failed); err != nil {
			return stats, fmt.Errorf("failed to update progress: %w", err)
		}

		a.Logger.Debug().
			Int64("task_id", taskID).
			Int("processed", stats.Processed).
			Int("total", stats.Total).
			Dur("elapsed", time.Since(start)).
			Msg("batch done")
	}

	return stats, nil
}
